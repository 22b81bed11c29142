// Package parser extracts structured metadata from Dataform SQLX sources.
package parser

import (
	"regexp"
	"strings"
)

// SQLXConfig is the metadata carried in a file's config block. Absent fields
// stay empty rather than defaulted.
type SQLXConfig struct {
	Type         string   `json:"type,omitempty"`
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

var (
	configBlockPattern = regexp.MustCompile(`(?s)config\s*\{([^}]+)\}`)
	typePattern        = regexp.MustCompile(`type:\s*"([^"]+)"`)
	namePattern        = regexp.MustCompile(`name:\s*"([^"]+)"`)
	descPattern        = regexp.MustCompile(`description:\s*"([^"]+)"`)
	tagsPattern        = regexp.MustCompile(`tags:\s*\[([^\]]+)\]`)
	depsPattern        = regexp.MustCompile(`dependencies:\s*\[([^\]]+)\]`)
	refPattern         = regexp.MustCompile(`ref\(["']([^"']+)["']\)`)
)

// ParseSQLXConfig extracts the first config block from raw file text.
// Each field is matched independently with its own pattern; there is no real
// grammar here, so a nested brace inside the block truncates the body at the
// first closing brace. Files without a config block yield the zero value.
func ParseSQLXConfig(fileContent string) SQLXConfig {
	var cfg SQLXConfig

	block := configBlockPattern.FindStringSubmatch(fileContent)
	if block == nil {
		return cfg
	}
	body := block[1]

	if m := typePattern.FindStringSubmatch(body); m != nil {
		cfg.Type = m[1]
	}
	if m := namePattern.FindStringSubmatch(body); m != nil {
		cfg.Name = m[1]
	}
	if m := descPattern.FindStringSubmatch(body); m != nil {
		cfg.Description = m[1]
	}
	if m := tagsPattern.FindStringSubmatch(body); m != nil {
		for _, tag := range strings.Split(m[1], ",") {
			cfg.Tags = append(cfg.Tags, strings.Trim(strings.TrimSpace(tag), `"`))
		}
	}
	if m := depsPattern.FindStringSubmatch(body); m != nil {
		for _, ref := range refPattern.FindAllStringSubmatch(m[1], -1) {
			cfg.Dependencies = append(cfg.Dependencies, ref[1])
		}
	}

	return cfg
}
