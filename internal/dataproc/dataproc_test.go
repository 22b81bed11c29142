package dataproc

import (
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/dataproc/v2/apiv1/dataprocpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionalEndpoint(t *testing.T) {
	assert.Equal(t, "europe-west1-dataproc.googleapis.com:443", regionalEndpoint("europe-west1"))
}

func TestRegionOrDefault(t *testing.T) {
	s := NewService("proj", "us-central1", slog.Default())
	assert.Equal(t, "us-central1", s.regionOrDefault(""))
	assert.Equal(t, "europe-west4", s.regionOrDefault("europe-west4"))
}

func TestBuildClusterSpec_Defaults(t *testing.T) {
	cluster := buildClusterSpec("proj", ClusterOptions{ClusterName: "etl"})

	assert.Equal(t, "proj", cluster.GetProjectId())
	assert.Equal(t, "etl", cluster.GetClusterName())
	assert.Equal(t, "datapilot", cluster.GetLabels()["created_by"])

	master := cluster.GetConfig().GetMasterConfig()
	require.NotNil(t, master)
	assert.Equal(t, int32(1), master.GetNumInstances())
	assert.Equal(t, "n1-standard-4", master.GetMachineTypeUri())
	assert.Equal(t, int32(100), master.GetDiskConfig().GetBootDiskSizeGb())

	worker := cluster.GetConfig().GetWorkerConfig()
	require.NotNil(t, worker)
	assert.Equal(t, int32(2), worker.GetNumInstances())
	assert.Equal(t, "n1-standard-4", worker.GetMachineTypeUri())

	software := cluster.GetConfig().GetSoftwareConfig()
	require.NotNil(t, software)
	assert.Equal(t, "2.1-debian11", software.GetImageVersion())
	assert.Empty(t, software.GetProperties())
	assert.Nil(t, cluster.GetConfig().GetLifecycleConfig())
}

func TestBuildClusterSpec_IdleDelete(t *testing.T) {
	cluster := buildClusterSpec("proj", ClusterOptions{
		ClusterName:       "etl",
		IdleDeleteMinutes: 30,
	})

	lifecycle := cluster.GetConfig().GetLifecycleConfig()
	require.NotNil(t, lifecycle)
	assert.Equal(t, 30*time.Minute, lifecycle.GetIdleDeleteTtl().AsDuration())
}

func TestBuildClusterSpec_PipPackagesAndOverrides(t *testing.T) {
	cluster := buildClusterSpec("proj", ClusterOptions{
		ClusterName:       "etl",
		NumWorkers:        5,
		MachineTypeMaster: "n1-highmem-8",
		MachineTypeWorker: "n1-standard-8",
		BootDiskSizeGB:    200,
		PipPackages:       []string{"pandas", "pyarrow"},
	})

	assert.Equal(t, int32(5), cluster.GetConfig().GetWorkerConfig().GetNumInstances())
	assert.Equal(t, "n1-highmem-8", cluster.GetConfig().GetMasterConfig().GetMachineTypeUri())
	assert.Equal(t, "n1-standard-8", cluster.GetConfig().GetWorkerConfig().GetMachineTypeUri())
	assert.Equal(t, int32(200), cluster.GetConfig().GetMasterConfig().GetDiskConfig().GetBootDiskSizeGb())
	assert.Equal(t, "pandas,pyarrow",
		cluster.GetConfig().GetSoftwareConfig().GetProperties()["dataproc:pip.packages"])
}

func TestJobType(t *testing.T) {
	pyspark := &dataprocpb.Job{
		TypeJob: &dataprocpb.Job_PysparkJob{PysparkJob: &dataprocpb.PySparkJob{}},
	}
	spark := &dataprocpb.Job{
		TypeJob: &dataprocpb.Job_SparkJob{SparkJob: &dataprocpb.SparkJob{}},
	}
	sparkSQL := &dataprocpb.Job{
		TypeJob: &dataprocpb.Job_SparkSqlJob{SparkSqlJob: &dataprocpb.SparkSqlJob{}},
	}

	assert.Equal(t, "PySpark", jobType(pyspark))
	assert.Equal(t, "Spark", jobType(spark))
	assert.Equal(t, "Spark SQL", jobType(sparkSQL))
	assert.Equal(t, "Unknown", jobType(&dataprocpb.Job{}))
}

func TestJobState(t *testing.T) {
	running := &dataprocpb.Job{
		Status: &dataprocpb.JobStatus{State: dataprocpb.JobStatus_RUNNING},
	}
	assert.Equal(t, "RUNNING", jobState(running))
	assert.Equal(t, "UNKNOWN", jobState(&dataprocpb.Job{}))
}

func TestBuildBatchSpec(t *testing.T) {
	batch := buildBatchSpec(BatchOptions{
		BatchID:           "nightly",
		MainPythonFileURI: "gs://bucket/job.py",
		Args:              []string{"--date", "2026-08-25"},
	})

	require.NotNil(t, batch.GetPysparkBatch())
	assert.Equal(t, "gs://bucket/job.py", batch.GetPysparkBatch().GetMainPythonFileUri())
	assert.Equal(t, "1.1", batch.GetRuntimeConfig().GetVersion())
	assert.Nil(t, batch.GetEnvironmentConfig().GetExecutionConfig())

	withSA := buildBatchSpec(BatchOptions{
		BatchID:           "nightly",
		MainPythonFileURI: "gs://bucket/job.py",
		RuntimeVersion:    "2.2",
		ServiceAccount:    "etl@proj.iam.gserviceaccount.com",
	})
	assert.Equal(t, "2.2", withSA.GetRuntimeConfig().GetVersion())
	assert.Equal(t, "etl@proj.iam.gserviceaccount.com",
		withSA.GetEnvironmentConfig().GetExecutionConfig().GetServiceAccount())
}

func TestBatchPaths(t *testing.T) {
	s := NewService("proj", "us-central1", slog.Default())
	assert.Equal(t, "projects/proj/locations/us-central1", s.batchParent("us-central1"))
	assert.Equal(t, "projects/proj/locations/us-central1/batches/nightly",
		s.batchName("us-central1", "nightly"))
}
