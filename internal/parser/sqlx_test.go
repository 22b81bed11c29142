package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSQLXConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    SQLXConfig
	}{
		{
			name: "full block",
			content: `config {
  type: "table",
  name: "foo",
  description: "daily orders rollup",
  tags: ["a", "b"],
  dependencies: [ref("x"), ref('y')]
}

SELECT * FROM ${ref("x")}`,
			want: SQLXConfig{
				Type:         "table",
				Name:         "foo",
				Description:  "daily orders rollup",
				Tags:         []string{"a", "b"},
				Dependencies: []string{"x", "y"},
			},
		},
		{
			name:    "no config block",
			content: `SELECT 1`,
			want:    SQLXConfig{},
		},
		{
			name:    "type only",
			content: `config { type: "incremental" }`,
			want:    SQLXConfig{Type: "incremental"},
		},
		{
			name:    "tags without quotes are kept trimmed",
			content: `config { tags: [daily, "hourly" ] }`,
			want:    SQLXConfig{Tags: []string{"daily", "hourly"}},
		},
		{
			name:    "non-ref entries in dependencies are ignored",
			content: `config { dependencies: ["bare", ref("real")] }`,
			want:    SQLXConfig{Dependencies: []string{"real"}},
		},
		{
			name: "body truncates at first closing brace",
			content: `config {
  type: "view",
  bigquery: { partitionBy: "dt" },
  name: "after_nested"
}`,
			want: SQLXConfig{Type: "view"},
		},
		{
			name: "only the first config block counts",
			content: `config { type: "table" }
config { type: "view" }`,
			want: SQLXConfig{Type: "table"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSQLXConfig(tt.content))
		})
	}
}
