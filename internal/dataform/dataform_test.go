package dataform

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/dataform/apiv1/dataformpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/datapilot/internal/parser"
)

func relationAction(name string, tags ...string) *dataformpb.CompilationResultAction {
	return &dataformpb.CompilationResultAction{
		Target: &dataformpb.Target{Database: "proj", Schema: "analytics", Name: name},
		CompiledObject: &dataformpb.CompilationResultAction_Relation_{
			Relation: &dataformpb.CompilationResultAction_Relation{Tags: tags},
		},
	}
}

func assertionAction(name string, tags ...string) *dataformpb.CompilationResultAction {
	return &dataformpb.CompilationResultAction{
		Target: &dataformpb.Target{Database: "proj", Schema: "assertions", Name: name},
		CompiledObject: &dataformpb.CompilationResultAction_Assertion_{
			Assertion: &dataformpb.CompilationResultAction_Assertion{Tags: tags},
		},
	}
}

func TestActionTags(t *testing.T) {
	assert.Equal(t, []string{"silver", "staging"}, actionTags(relationAction("orders", "silver", "staging")))
	assert.Equal(t, []string{"quality"}, actionTags(assertionAction("orders_not_null", "quality")))
	assert.Nil(t, actionTags(&dataformpb.CompilationResultAction{}))
}

func TestHasAllTags(t *testing.T) {
	tags := []string{"gold", "pltv", "looker"}

	assert.True(t, hasAllTags(tags, nil))
	assert.True(t, hasAllTags(tags, []string{"gold"}))
	assert.True(t, hasAllTags(tags, []string{"gold", "looker"}))
	assert.False(t, hasAllTags(tags, []string{"gold", "staging"}))
	assert.False(t, hasAllTags(nil, []string{"gold"}))
}

func TestAvailableTags(t *testing.T) {
	actions := []*dataformpb.CompilationResultAction{
		relationAction("a", "silver", "staging"),
		relationAction("b", "silver", "gold"),
		assertionAction("c", "quality"),
	}

	got := availableTags(actions)
	assert.Equal(t, []string{"silver", "staging", "gold", "quality"}, got)
}

func TestRenderMarkdownDocs(t *testing.T) {
	generated := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	docs := []FileDoc{
		{
			Path: "definitions/staging/orders.sqlx",
			Config: parser.SQLXConfig{
				Type:         "table",
				Name:         "orders",
				Description:  "Daily orders",
				Tags:         []string{"staging", "daily"},
				Dependencies: []string{"raw_orders"},
			},
		},
		{
			Path:   "definitions/reporting/revenue.sqlx",
			Config: parser.SQLXConfig{Type: "view", Name: "revenue", Tags: []string{"daily"}},
		},
		{
			Path:   "includes/helpers.sqlx",
			Config: parser.SQLXConfig{},
		},
	}

	md := renderMarkdownDocs(docs, generated)

	assert.Contains(t, md, "# Dataform Pipeline Documentation")
	assert.Contains(t, md, "**Generated:** 2026-08-25 09:00:00 UTC")
	assert.Contains(t, md, "**Total Files:** 3")
	assert.Contains(t, md, "### Table Files (1)")
	assert.Contains(t, md, "### View Files (1)")
	assert.Contains(t, md, "### Unknown Files (1)")
	assert.Contains(t, md, "- **orders** (definitions/staging/orders.sqlx)")
	assert.Contains(t, md, "  - Daily orders")
	assert.Contains(t, md, "  - Tags: staging, daily")
	assert.Contains(t, md, "  - Dependencies: raw_orders")

	// Mermaid graph with sanitized node names.
	assert.Contains(t, md, "```mermaid")
	assert.Contains(t, md, "    orders --> raw_orders")

	// Tag index is sorted and complete.
	dailyIdx := strings.Index(md, "### daily")
	stagingIdx := strings.Index(md, "### staging")
	require.Greater(t, dailyIdx, 0)
	require.Greater(t, stagingIdx, 0)
	assert.Less(t, dailyIdx, stagingIdx)
	assert.Contains(t, md, "**Files (2):**")
}

func TestRenderMarkdownDocs_NoEdgesNoTags(t *testing.T) {
	md := renderMarkdownDocs([]FileDoc{
		{Path: "a.sqlx", Config: parser.SQLXConfig{Type: "operations", Name: "a"}},
	}, time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))

	assert.NotContains(t, md, "## Dependency Graph")
	assert.NotContains(t, md, "## Tags")
}

func TestMermaidID(t *testing.T) {
	assert.Equal(t, "analytics_orders_v2", mermaidID("analytics.orders-v2"))
}

func TestParseWorkflowSettings(t *testing.T) {
	raw := `dataformCoreVersion: "3.0.0"
defaultProject: my-proj
defaultLocation: EU
defaultDataset: analytics
defaultAssertionDataset: assertions
`
	settings, err := parseWorkflowSettings(raw)
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", settings.DataformCoreVersion)
	assert.Equal(t, "my-proj", settings.DefaultProject)
	assert.Equal(t, "EU", settings.DefaultLocation)
	assert.Equal(t, "analytics", settings.DefaultDataset)
	assert.Equal(t, "assertions", settings.DefaultAssertionDataset)
	assert.Equal(t, raw, settings.Raw)

	_, err = parseWorkflowSettings("{not yaml")
	assert.Error(t, err)
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "proj.analytics.orders",
		targetString(&dataformpb.Target{Database: "proj", Schema: "analytics", Name: "orders"}))
	assert.Equal(t, "", targetString(nil))
}
