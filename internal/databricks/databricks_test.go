package databricks

import (
	"log/slog"
	"testing"

	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_RequiresCredentials(t *testing.T) {
	_, err := NewService("", "dapi123", slog.Default())
	assert.ErrorContains(t, err, "not configured")

	_, err = NewService("https://example.cloud.databricks.com", "", slog.Default())
	assert.ErrorContains(t, err, "not configured")
}

func TestBuildClusterSpec_Defaults(t *testing.T) {
	spec := buildClusterSpec(ClusterOptions{ClusterName: "etl"})

	assert.Equal(t, "etl", spec.ClusterName)
	assert.Equal(t, 2, spec.NumWorkers)
	assert.Equal(t, "i3.xlarge", spec.NodeTypeId)
	assert.Equal(t, "14.3.x-scala2.12", spec.SparkVersion)
	assert.Equal(t, 60, spec.AutoterminationMinutes)
	assert.Equal(t, compute.DataSecurityModeSingleUser, spec.DataSecurityMode)
}

func TestBuildClusterSpec_Overrides(t *testing.T) {
	spec := buildClusterSpec(ClusterOptions{
		ClusterName:            "etl",
		NumWorkers:             8,
		NodeTypeID:             "m5.2xlarge",
		SparkVersion:           "15.4.x-scala2.12",
		AutoterminationMinutes: 30,
		SparkConf:              map[string]string{"spark.sql.shuffle.partitions": "400"},
	})

	assert.Equal(t, 8, spec.NumWorkers)
	assert.Equal(t, "m5.2xlarge", spec.NodeTypeId)
	assert.Equal(t, "15.4.x-scala2.12", spec.SparkVersion)
	assert.Equal(t, 30, spec.AutoterminationMinutes)
	assert.Equal(t, "400", spec.SparkConf["spark.sql.shuffle.partitions"])
}

func TestBuildPySparkTask(t *testing.T) {
	task := buildPySparkTask("dbfs:/scripts/process.py", "0825-etl", []string{"--date", "2026-08-25"}, []string{"pandas==2.0.0"})

	assert.Equal(t, "main_task", task.TaskKey)
	assert.Equal(t, "0825-etl", task.ExistingClusterId)
	require.NotNil(t, task.SparkPythonTask)
	assert.Equal(t, "dbfs:/scripts/process.py", task.SparkPythonTask.PythonFile)
	assert.Equal(t, []string{"--date", "2026-08-25"}, task.SparkPythonTask.Parameters)
	require.Len(t, task.Libraries, 1)
	assert.Equal(t, "pandas==2.0.0", task.Libraries[0].Pypi.Package)
}

func TestBuildNotebookTask(t *testing.T) {
	task := buildNotebookTask("/Workspace/notebooks/process", "0825-etl", map[string]string{"env": "prod"})

	assert.Equal(t, "notebook_task", task.TaskKey)
	assert.Equal(t, "0825-etl", task.ExistingClusterId)
	require.NotNil(t, task.NotebookTask)
	assert.Equal(t, "/Workspace/notebooks/process", task.NotebookTask.NotebookPath)
	assert.Equal(t, "prod", task.NotebookTask.BaseParameters["env"])
	assert.Nil(t, task.Libraries)
}

func TestPypiLibraries_EmptyIsNil(t *testing.T) {
	assert.Nil(t, pypiLibraries(nil))
}

func TestFormatMillis(t *testing.T) {
	assert.Equal(t, "", formatMillis(0))
	assert.Equal(t, "2026-08-25T12:00:00Z", formatMillis(1_787_659_200_000))
}
