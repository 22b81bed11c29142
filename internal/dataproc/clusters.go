package dataproc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/dataproc/v2/apiv1/dataprocpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/mkarlsen/datapilot/internal/models"
)

const (
	defaultNumWorkers     = 2
	defaultMachineType    = "n1-standard-4"
	defaultBootDiskSizeGB = 100
	defaultImageVersion   = "2.1-debian11"
)

// ClusterOptions configures CreateCluster. Zero values fall back to the
// defaults above.
type ClusterOptions struct {
	ClusterName       string   `json:"cluster_name"`
	Region            string   `json:"region,omitempty"`
	NumWorkers        int      `json:"num_workers,omitempty"`
	MachineTypeMaster string   `json:"machine_type_master,omitempty"`
	MachineTypeWorker string   `json:"machine_type_worker,omitempty"`
	BootDiskSizeGB    int      `json:"boot_disk_size_gb,omitempty"`
	IdleDeleteMinutes int      `json:"idle_delete_minutes,omitempty"`
	PipPackages       []string `json:"pip_packages,omitempty"`
}

// buildClusterSpec assembles the full cluster proto from the options. Pip
// packages are installed via the dataproc:pip.packages cluster property.
func buildClusterSpec(project string, opts ClusterOptions) *dataprocpb.Cluster {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultNumWorkers
	}
	if opts.MachineTypeMaster == "" {
		opts.MachineTypeMaster = defaultMachineType
	}
	if opts.MachineTypeWorker == "" {
		opts.MachineTypeWorker = defaultMachineType
	}
	if opts.BootDiskSizeGB <= 0 {
		opts.BootDiskSizeGB = defaultBootDiskSizeGB
	}

	properties := map[string]string{}
	if len(opts.PipPackages) > 0 {
		properties["dataproc:pip.packages"] = strings.Join(opts.PipPackages, ",")
	}

	var lifecycle *dataprocpb.LifecycleConfig
	if opts.IdleDeleteMinutes > 0 {
		lifecycle = &dataprocpb.LifecycleConfig{
			IdleDeleteTtl: durationpb.New(time.Duration(opts.IdleDeleteMinutes) * time.Minute),
		}
	}

	return &dataprocpb.Cluster{
		ProjectId:   project,
		ClusterName: opts.ClusterName,
		Labels:      map[string]string{"created_by": "datapilot"},
		Config: &dataprocpb.ClusterConfig{
			LifecycleConfig: lifecycle,
			GceClusterConfig: &dataprocpb.GceClusterConfig{
				ServiceAccountScopes: []string{"https://www.googleapis.com/auth/cloud-platform"},
			},
			MasterConfig: &dataprocpb.InstanceGroupConfig{
				NumInstances:   1,
				MachineTypeUri: opts.MachineTypeMaster,
				DiskConfig:     &dataprocpb.DiskConfig{BootDiskSizeGb: int32(opts.BootDiskSizeGB)},
			},
			WorkerConfig: &dataprocpb.InstanceGroupConfig{
				NumInstances:   int32(opts.NumWorkers),
				MachineTypeUri: opts.MachineTypeWorker,
				DiskConfig:     &dataprocpb.DiskConfig{BootDiskSizeGb: int32(opts.BootDiskSizeGB)},
			},
			SoftwareConfig: &dataprocpb.SoftwareConfig{
				ImageVersion: defaultImageVersion,
				Properties:   properties,
			},
		},
	}
}

// ClusterOperation reports an initiated cluster create or delete. Both are
// long-running; the operation returns before the cluster settles.
type ClusterOperation struct {
	models.Result
	Message       string `json:"message"`
	ClusterName   string `json:"cluster_name"`
	OperationName string `json:"operation_name,omitempty"`
	Note          string `json:"note,omitempty"`
}

// CreateCluster starts creation of a cluster and returns without waiting for
// it to become ready.
func (s *Service) CreateCluster(ctx context.Context, opts ClusterOptions) (*ClusterOperation, error) {
	region := s.regionOrDefault(opts.Region)
	client, err := s.clusterClient(ctx, region)
	if err != nil {
		return nil, err
	}

	op, err := client.CreateCluster(ctx, &dataprocpb.CreateClusterRequest{
		ProjectId: s.project,
		Region:    region,
		Cluster:   buildClusterSpec(s.project, opts),
	})
	if err != nil {
		return nil, fmt.Errorf("creating cluster %s: %w", opts.ClusterName, err)
	}

	s.logger.Info("dataproc cluster creation initiated", "cluster", opts.ClusterName, "region", region)
	return &ClusterOperation{
		Result:        models.OK(),
		Message:       fmt.Sprintf("Cluster %s creation initiated in region %s", opts.ClusterName, region),
		ClusterName:   opts.ClusterName,
		OperationName: op.Name(),
		Note:          "Cluster creation may take several minutes. Use list_dataproc_clusters to check status.",
	}, nil
}

// ClusterInfo is one cluster in a listing.
type ClusterInfo struct {
	ClusterName string `json:"cluster_name"`
	Status      string `json:"status"`
	NumWorkers  int    `json:"num_workers"`
	Region      string `json:"region"`
}

// ClusterList lists the clusters of one region.
type ClusterList struct {
	models.Result
	Clusters []ClusterInfo `json:"clusters"`
	Count    int           `json:"count"`
}

func clusterState(c *dataprocpb.Cluster) string {
	if c.GetStatus() == nil {
		return "UNKNOWN"
	}
	return c.GetStatus().GetState().String()
}

// ListClusters lists all clusters in the region.
func (s *Service) ListClusters(ctx context.Context, region string) (*ClusterList, error) {
	region = s.regionOrDefault(region)
	client, err := s.clusterClient(ctx, region)
	if err != nil {
		return nil, err
	}

	list := ClusterList{Result: models.OK(), Clusters: []ClusterInfo{}}
	it := client.ListClusters(ctx, &dataprocpb.ListClustersRequest{
		ProjectId: s.project,
		Region:    region,
	})
	for {
		cluster, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing clusters in region %s: %w", region, err)
		}
		list.Clusters = append(list.Clusters, ClusterInfo{
			ClusterName: cluster.GetClusterName(),
			Status:      clusterState(cluster),
			NumWorkers:  int(cluster.GetConfig().GetWorkerConfig().GetNumInstances()),
			Region:      region,
		})
	}
	list.Count = len(list.Clusters)
	return &list, nil
}

// ClusterDetails describes one cluster.
type ClusterDetails struct {
	models.Result
	ClusterName       string `json:"cluster_name"`
	ClusterStatus     string `json:"cluster_status"`
	NumWorkers        int    `json:"num_workers"`
	MasterMachineType string `json:"master_machine_type,omitempty"`
	WorkerMachineType string `json:"worker_machine_type,omitempty"`
	Region            string `json:"region"`
}

// GetClusterDetails fetches one cluster's configuration and state.
func (s *Service) GetClusterDetails(ctx context.Context, clusterName, region string) (*ClusterDetails, error) {
	region = s.regionOrDefault(region)
	client, err := s.clusterClient(ctx, region)
	if err != nil {
		return nil, err
	}

	cluster, err := client.GetCluster(ctx, &dataprocpb.GetClusterRequest{
		ProjectId:   s.project,
		Region:      region,
		ClusterName: clusterName,
	})
	if err != nil {
		return nil, fmt.Errorf("getting cluster %s in region %s: %w", clusterName, region, err)
	}

	return &ClusterDetails{
		Result:            models.OK(),
		ClusterName:       cluster.GetClusterName(),
		ClusterStatus:     clusterState(cluster),
		NumWorkers:        int(cluster.GetConfig().GetWorkerConfig().GetNumInstances()),
		MasterMachineType: cluster.GetConfig().GetMasterConfig().GetMachineTypeUri(),
		WorkerMachineType: cluster.GetConfig().GetWorkerConfig().GetMachineTypeUri(),
		Region:            region,
	}, nil
}

// DeleteCluster starts deletion of a cluster.
func (s *Service) DeleteCluster(ctx context.Context, clusterName, region string) (*ClusterOperation, error) {
	region = s.regionOrDefault(region)
	client, err := s.clusterClient(ctx, region)
	if err != nil {
		return nil, err
	}

	if _, err := client.DeleteCluster(ctx, &dataprocpb.DeleteClusterRequest{
		ProjectId:   s.project,
		Region:      region,
		ClusterName: clusterName,
	}); err != nil {
		return nil, fmt.Errorf("deleting cluster %s: %w", clusterName, err)
	}

	s.logger.Info("dataproc cluster deletion initiated", "cluster", clusterName, "region", region)
	return &ClusterOperation{
		Result:      models.OK(),
		Message:     fmt.Sprintf("Cluster %s deletion initiated", clusterName),
		ClusterName: clusterName,
		Note:        "Cluster deletion may take several minutes.",
	}, nil
}
