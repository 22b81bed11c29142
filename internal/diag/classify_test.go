package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError_Categories(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    ErrorCategory
	}{
		{"resources exceeded", "Resources exceeded during query execution", CategoryMemoryExhaustion},
		{"memory lowercase", "ran out of memory while shuffling", CategoryMemoryExhaustion},
		{"memory mixed case", "Out of MEMORY", CategoryMemoryExhaustion},
		{"limit marker", "The query hit 100% of limit", CategoryMemoryExhaustion},
		{"timeout", "Operation timeout after 6h", CategoryTimeout},
		{"deadline", "context deadline exceeded while waiting", CategoryTimeout},
		{"access denied", "Access Denied: dataset analytics", CategoryPermission},
		{"permission", "caller lacks permission bigquery.tables.get", CategoryPermission},
		{"not found", "Not found: Table proj:ds.users", CategoryTableNotFound},
		{"does not exist", "Dataset foo does not exist in location EU", CategoryTableNotFound},
		{"syntax", "Syntax error: Unexpected keyword FORM at [3:1]", CategorySyntax},
		{"invalid", "Invalid field name ts", CategorySyntax},
		{"slot exceeded", "slot quota exceeded for reservation", CategorySlotExhaustion},
		{"slot unavailable", "slots unavailable in region", CategorySlotExhaustion},
		{"unknown", "something completely different happened", CategoryOther},
		{"empty message", "", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.message, "", true)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestClassifyError_PriorityOrderIsTotal(t *testing.T) {
	// Rule 1 precedes rule 2: a message carrying both keywords is memory.
	got := ClassifyError("Resources exceeded before the timeout fired", "", true)
	assert.Equal(t, CategoryMemoryExhaustion, got.Category)

	// "slot ... exceeded" also contains "exceeded" but slot is rule 6;
	// plain "exceeded" alone matches nothing earlier, so slot wins.
	got = ClassifyError("slot capacity exceeded", "", true)
	assert.Equal(t, CategorySlotExhaustion, got.Category)

	// "permission" (rule 3) beats "does not exist" (rule 4).
	got = ClassifyError("permission check failed: resource does not exist for you", "", true)
	assert.Equal(t, CategoryPermission, got.Category)
}

func TestClassifyError_EndToEndScenario(t *testing.T) {
	msg := "Query exceeded resource limits: Resources exceeded during execution (100% of limit)."
	got := ClassifyError(msg, "", true)

	require.Equal(t, CategoryMemoryExhaustion, got.Category)
	assert.Len(t, got.SuggestedFixes, 6)
	assert.Contains(t, strings.ToLower(got.RootCause), "memory")
	assert.NotEmpty(t, got.NextSteps)
}

func TestClassifyError_SuggestionsToggle(t *testing.T) {
	with := ClassifyError("timeout", "", true)
	without := ClassifyError("timeout", "", false)

	assert.Equal(t, with.Category, without.Category)
	assert.Equal(t, with.RootCause, without.RootCause)
	assert.NotEmpty(t, with.SuggestedFixes)
	assert.Empty(t, without.SuggestedFixes)
	assert.Empty(t, without.NextSteps)
}

func TestClassifyError_SyntaxLocationInterpolated(t *testing.T) {
	got := ClassifyError("Syntax error: unexpected end of input", "query.sqlx:12", true)
	require.Equal(t, CategorySyntax, got.Category)
	require.NotEmpty(t, got.SuggestedFixes)
	assert.Contains(t, got.SuggestedFixes[0], "query.sqlx:12")
}
