package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector()
	c.RecordCall("bigquery", "estimate_query_cost", 20*time.Millisecond, false)
	c.RecordCall("bigquery", "estimate_query_cost", 40*time.Millisecond, true)
	c.RecordCall("dataform", "compile_dataform", 100*time.Millisecond, false)

	snap := c.Snapshot()
	assert.Equal(t, int64(3), snap.TotalCalls)
	assert.Equal(t, int64(1), snap.TotalErrors)

	tool, ok := snap.Tools["bigquery.estimate_query_cost"]
	require.True(t, ok)
	assert.Equal(t, int64(2), tool.Count)
	assert.Equal(t, int64(1), tool.Errors)
	assert.Equal(t, int64(20), tool.MinTimeMs)
	assert.Equal(t, int64(40), tool.MaxTimeMs)
	assert.Equal(t, 30.0, tool.AvgTimeMs)

	cat, ok := snap.Categories["dataform"]
	require.True(t, ok)
	assert.Equal(t, int64(1), cat.Count)
	assert.Equal(t, int64(0), cat.Errors)
}

func TestCollector_EmptySnapshot(t *testing.T) {
	snap := NewCollector().Snapshot()
	assert.Equal(t, int64(0), snap.TotalCalls)
	assert.Empty(t, snap.Tools)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}
