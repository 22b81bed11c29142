package dataproc

import (
	"context"
	"fmt"

	"cloud.google.com/go/dataproc/v2/apiv1/dataprocpb"

	"github.com/mkarlsen/datapilot/internal/models"
)

const defaultRuntimeVersion = "1.1"

// BatchOptions configures CreateServerlessBatch.
type BatchOptions struct {
	BatchID           string   `json:"batch_id"`
	MainPythonFileURI string   `json:"main_python_file_uri"`
	Args              []string `json:"args,omitempty"`
	Region            string   `json:"region,omitempty"`
	RuntimeVersion    string   `json:"runtime_version,omitempty"`
	ServiceAccount    string   `json:"service_account,omitempty"`
	PyFiles           []string `json:"py_files,omitempty"`
}

// buildBatchSpec assembles the serverless batch proto from the options.
func buildBatchSpec(opts BatchOptions) *dataprocpb.Batch {
	if opts.RuntimeVersion == "" {
		opts.RuntimeVersion = defaultRuntimeVersion
	}

	environment := &dataprocpb.EnvironmentConfig{}
	if opts.ServiceAccount != "" {
		environment.ExecutionConfig = &dataprocpb.ExecutionConfig{
			ServiceAccount: opts.ServiceAccount,
		}
	}

	return &dataprocpb.Batch{
		BatchConfig: &dataprocpb.Batch_PysparkBatch{
			PysparkBatch: &dataprocpb.PySparkBatch{
				MainPythonFileUri: opts.MainPythonFileURI,
				Args:              opts.Args,
				PythonFileUris:    opts.PyFiles,
			},
		},
		Labels:            map[string]string{"created_by": "datapilot"},
		RuntimeConfig:     &dataprocpb.RuntimeConfig{Version: opts.RuntimeVersion},
		EnvironmentConfig: environment,
	}
}

func (s *Service) batchParent(region string) string {
	return fmt.Sprintf("projects/%s/locations/%s", s.project, region)
}

func (s *Service) batchName(region, batchID string) string {
	return fmt.Sprintf("%s/batches/%s", s.batchParent(region), batchID)
}

// BatchCreation reports a created serverless batch.
type BatchCreation struct {
	models.Result
	Message  string `json:"message"`
	BatchID  string `json:"batch_id"`
	MainFile string `json:"main_file"`
}

// CreateServerlessBatch starts a serverless PySpark batch. No cluster is
// needed; Dataproc provisions the execution environment.
func (s *Service) CreateServerlessBatch(ctx context.Context, opts BatchOptions) (*BatchCreation, error) {
	region := s.regionOrDefault(opts.Region)
	client, err := s.batchClient(ctx, region)
	if err != nil {
		return nil, err
	}

	if _, err := client.CreateBatch(ctx, &dataprocpb.CreateBatchRequest{
		Parent:  s.batchParent(region),
		BatchId: opts.BatchID,
		Batch:   buildBatchSpec(opts),
	}); err != nil {
		return nil, fmt.Errorf("creating serverless batch %s: %w", opts.BatchID, err)
	}

	s.logger.Info("serverless batch created", "batch_id", opts.BatchID, "region", region)
	return &BatchCreation{
		Result:   models.OK(),
		Message:  fmt.Sprintf("Serverless batch %s created successfully", opts.BatchID),
		BatchID:  opts.BatchID,
		MainFile: opts.MainPythonFileURI,
	}, nil
}

// BatchStatus reports one batch's current state.
type BatchStatus struct {
	models.Result
	BatchID      string `json:"batch_id"`
	State        string `json:"state"`
	StateMessage string `json:"state_message,omitempty"`
}

// GetServerlessBatchStatus fetches one batch's state.
func (s *Service) GetServerlessBatchStatus(ctx context.Context, batchID, region string) (*BatchStatus, error) {
	region = s.regionOrDefault(region)
	client, err := s.batchClient(ctx, region)
	if err != nil {
		return nil, err
	}

	batch, err := client.GetBatch(ctx, &dataprocpb.GetBatchRequest{
		Name: s.batchName(region, batchID),
	})
	if err != nil {
		return nil, fmt.Errorf("getting batch %s in region %s: %w", batchID, region, err)
	}

	return &BatchStatus{
		Result:       models.OK(),
		BatchID:      batchID,
		State:        batch.GetState().String(),
		StateMessage: batch.GetStateMessage(),
	}, nil
}
