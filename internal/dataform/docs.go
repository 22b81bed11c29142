package dataform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mkarlsen/datapilot/internal/models"
	"github.com/mkarlsen/datapilot/internal/parser"
)

// FileDoc is one SQLX file with its parsed config.
type FileDoc struct {
	Path   string            `json:"path"`
	Config parser.SQLXConfig `json:"config"`
}

// Documentation is the generated pipeline documentation.
type Documentation struct {
	models.Result
	TotalFiles int    `json:"total_files"`
	Markdown   string `json:"markdown"`
}

// GenerateDocumentation reads every SQLX file in the workspace and renders
// markdown documentation: files grouped by type, a mermaid dependency graph,
// and a tag index. Files that fail to read are skipped.
func (s *Service) GenerateDocumentation(ctx context.Context) (*Documentation, error) {
	list, err := s.SearchFiles(ctx, ".sqlx")
	if err != nil {
		return nil, err
	}

	var docs []FileDoc
	for _, path := range list.Files {
		if !strings.HasSuffix(path, ".sqlx") {
			continue
		}
		file, err := s.ReadFile(ctx, path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		docs = append(docs, FileDoc{Path: path, Config: parser.ParseSQLXConfig(file.Content)})
	}

	if len(docs) == 0 {
		return &Documentation{
			Result:   models.OK(),
			Markdown: "No SQLX files found in Dataform workspace.",
		}, nil
	}

	return &Documentation{
		Result:     models.OK(),
		TotalFiles: len(docs),
		Markdown:   renderMarkdownDocs(docs, s.now().UTC()),
	}, nil
}

// renderMarkdownDocs renders the documentation deterministically: types,
// tags, and graph nodes all come out sorted.
func renderMarkdownDocs(docs []FileDoc, generated time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dataform Pipeline Documentation\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", generated.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Total Files:** %d\n\n", len(docs))
	b.WriteString("## Pipeline Overview\n\n")

	byType := map[string][]FileDoc{}
	for _, doc := range docs {
		t := doc.Config.Type
		if t == "" {
			t = "unknown"
		}
		byType[t] = append(byType[t], doc)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		files := byType[t]
		fmt.Fprintf(&b, "### %s Files (%d)\n\n", titleCase(t), len(files))
		for _, doc := range files {
			name := doc.Config.Name
			if name == "" {
				name = doc.Path
			}
			desc := doc.Config.Description
			if desc == "" {
				desc = "No description"
			}
			fmt.Fprintf(&b, "- **%s** (%s)\n", name, doc.Path)
			fmt.Fprintf(&b, "  - %s\n", desc)
			if len(doc.Config.Tags) > 0 {
				fmt.Fprintf(&b, "  - Tags: %s\n", strings.Join(doc.Config.Tags, ", "))
			}
			if len(doc.Config.Dependencies) > 0 {
				fmt.Fprintf(&b, "  - Dependencies: %s\n", strings.Join(doc.Config.Dependencies, ", "))
			}
		}
		b.WriteString("\n")
	}

	writeDependencyGraph(&b, docs)
	writeTagIndex(&b, docs)
	return b.String()
}

func writeDependencyGraph(b *strings.Builder, docs []FileDoc) {
	type edge struct{ from, to string }
	var edges []edge
	for _, doc := range docs {
		if len(doc.Config.Dependencies) == 0 {
			continue
		}
		from := doc.Config.Name
		if from == "" {
			from = doc.Path
		}
		for _, dep := range doc.Config.Dependencies {
			edges = append(edges, edge{from: mermaidID(from), to: mermaidID(dep)})
		}
	}
	if len(edges) == 0 {
		return
	}

	b.WriteString("## Dependency Graph\n\n```mermaid\ngraph TD\n")
	for _, e := range edges {
		fmt.Fprintf(b, "    %s --> %s\n", e.from, e.to)
	}
	b.WriteString("```\n\n")
}

func writeTagIndex(b *strings.Builder, docs []FileDoc) {
	tagged := map[string][]string{}
	for _, doc := range docs {
		for _, tag := range doc.Config.Tags {
			tagged[tag] = append(tagged[tag], doc.Path)
		}
	}
	if len(tagged) == 0 {
		return
	}

	tags := make([]string, 0, len(tagged))
	for tag := range tagged {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	b.WriteString("## Tags\n\n")
	for _, tag := range tags {
		fmt.Fprintf(b, "### %s\n", tag)
		fmt.Fprintf(b, "**Files (%d):**\n", len(tagged[tag]))
		for _, path := range tagged[tag] {
			fmt.Fprintf(b, "- %s\n", path)
		}
		b.WriteString("\n")
	}
}

// mermaidID makes a node name safe for mermaid syntax.
func mermaidID(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
