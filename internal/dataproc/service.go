// Package dataproc wraps the Dataproc API behind the tool-facing operations:
// cluster lifecycle, PySpark jobs, and serverless batches.
package dataproc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	dataprocapi "cloud.google.com/go/dataproc/v2/apiv1"
	"google.golang.org/api/option"
)

// Service is the Dataproc tool backend. Dataproc endpoints are regional, so
// clients are created per region on first use and cached.
type Service struct {
	project       string
	defaultRegion string
	logger        *slog.Logger

	mu             sync.Mutex
	clusterClients map[string]*dataprocapi.ClusterControllerClient
	jobClients     map[string]*dataprocapi.JobControllerClient
	batchClients   map[string]*dataprocapi.BatchControllerClient
}

// NewService builds the backend for one project. defaultRegion is used when a
// call leaves the region empty.
func NewService(project, defaultRegion string, logger *slog.Logger) *Service {
	return &Service{
		project:        project,
		defaultRegion:  defaultRegion,
		logger:         logger,
		clusterClients: map[string]*dataprocapi.ClusterControllerClient{},
		jobClients:     map[string]*dataprocapi.JobControllerClient{},
		batchClients:   map[string]*dataprocapi.BatchControllerClient{},
	}
}

// Close releases every cached regional client.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, c := range s.clusterClients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, c := range s.jobClients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, c := range s.batchClients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) regionOrDefault(region string) string {
	if region == "" {
		return s.defaultRegion
	}
	return region
}

// regionalEndpoint is the per-region API endpoint Dataproc requires for
// cluster and job RPCs.
func regionalEndpoint(region string) string {
	return fmt.Sprintf("%s-dataproc.googleapis.com:443", region)
}

func (s *Service) clusterClient(ctx context.Context, region string) (*dataprocapi.ClusterControllerClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clusterClients[region]; ok {
		return c, nil
	}
	c, err := dataprocapi.NewClusterControllerClient(ctx, option.WithEndpoint(regionalEndpoint(region)))
	if err != nil {
		return nil, fmt.Errorf("creating cluster client for region %s: %w", region, err)
	}
	s.clusterClients[region] = c
	return c, nil
}

func (s *Service) jobClient(ctx context.Context, region string) (*dataprocapi.JobControllerClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.jobClients[region]; ok {
		return c, nil
	}
	c, err := dataprocapi.NewJobControllerClient(ctx, option.WithEndpoint(regionalEndpoint(region)))
	if err != nil {
		return nil, fmt.Errorf("creating job client for region %s: %w", region, err)
	}
	s.jobClients[region] = c
	return c, nil
}

func (s *Service) batchClient(ctx context.Context, region string) (*dataprocapi.BatchControllerClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.batchClients[region]; ok {
		return c, nil
	}
	c, err := dataprocapi.NewBatchControllerClient(ctx, option.WithEndpoint(regionalEndpoint(region)))
	if err != nil {
		return nil, fmt.Errorf("creating batch client for region %s: %w", region, err)
	}
	s.batchClients[region] = c
	return c, nil
}
