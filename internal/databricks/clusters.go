package databricks

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go/service/compute"

	"github.com/mkarlsen/datapilot/internal/models"
)

const (
	defaultNumWorkers            = 2
	defaultNodeType              = "i3.xlarge"
	defaultSparkVersion          = "14.3.x-scala2.12"
	defaultAutoterminationMinute = 60
)

// ClusterOptions configures CreateCluster. Zero values fall back to the
// defaults above.
type ClusterOptions struct {
	ClusterName            string            `json:"cluster_name"`
	NumWorkers             int               `json:"num_workers,omitempty"`
	NodeTypeID             string            `json:"node_type_id,omitempty"`
	SparkVersion           string            `json:"spark_version,omitempty"`
	AutoterminationMinutes int               `json:"autotermination_minutes,omitempty"`
	SparkConf              map[string]string `json:"spark_conf,omitempty"`
}

// buildClusterSpec assembles the create request from the options. Clusters
// are created in single-user security mode.
func buildClusterSpec(opts ClusterOptions) compute.CreateCluster {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultNumWorkers
	}
	if opts.NodeTypeID == "" {
		opts.NodeTypeID = defaultNodeType
	}
	if opts.SparkVersion == "" {
		opts.SparkVersion = defaultSparkVersion
	}
	if opts.AutoterminationMinutes <= 0 {
		opts.AutoterminationMinutes = defaultAutoterminationMinute
	}
	return compute.CreateCluster{
		ClusterName:            opts.ClusterName,
		NumWorkers:             opts.NumWorkers,
		NodeTypeId:             opts.NodeTypeID,
		SparkVersion:           opts.SparkVersion,
		AutoterminationMinutes: opts.AutoterminationMinutes,
		SparkConf:              opts.SparkConf,
		DataSecurityMode:       compute.DataSecurityModeSingleUser,
	}
}

// ClusterCreation reports an initiated cluster creation.
type ClusterCreation struct {
	models.Result
	Message     string `json:"message"`
	ClusterID   string `json:"cluster_id"`
	ClusterName string `json:"cluster_name"`
	State       string `json:"state"`
	Note        string `json:"note,omitempty"`
}

// CreateCluster starts creation of a cluster and returns without waiting for
// it to reach the running state.
func (s *Service) CreateCluster(ctx context.Context, opts ClusterOptions) (*ClusterCreation, error) {
	wait, err := s.client.Clusters.Create(ctx, buildClusterSpec(opts))
	if err != nil {
		return nil, fmt.Errorf("creating cluster %s: %w", opts.ClusterName, err)
	}

	s.logger.Info("databricks cluster creation initiated",
		"cluster", opts.ClusterName, "cluster_id", wait.Response.ClusterId)
	return &ClusterCreation{
		Result:      models.OK(),
		Message:     fmt.Sprintf("Cluster %s creation initiated", opts.ClusterName),
		ClusterID:   wait.Response.ClusterId,
		ClusterName: opts.ClusterName,
		State:       "PENDING",
		Note:        "Cluster creation may take several minutes. Use get_databricks_cluster_status to check progress.",
	}, nil
}

// ClusterInfo is one cluster in a listing.
type ClusterInfo struct {
	ClusterID    string `json:"cluster_id"`
	ClusterName  string `json:"cluster_name"`
	State        string `json:"state"`
	NumWorkers   int    `json:"num_workers"`
	SparkVersion string `json:"spark_version"`
}

// ClusterList lists workspace clusters.
type ClusterList struct {
	models.Result
	Clusters []ClusterInfo `json:"clusters"`
	Count    int           `json:"count"`
}

// ListClusters lists workspace clusters. Terminated clusters are skipped
// unless includeTerminated is set.
func (s *Service) ListClusters(ctx context.Context, includeTerminated bool) (*ClusterList, error) {
	clusters, err := s.client.Clusters.ListAll(ctx, compute.ListClustersRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing clusters: %w", err)
	}

	list := ClusterList{Result: models.OK(), Clusters: []ClusterInfo{}}
	for _, cluster := range clusters {
		if !includeTerminated && cluster.State == compute.StateTerminated {
			continue
		}
		list.Clusters = append(list.Clusters, ClusterInfo{
			ClusterID:    cluster.ClusterId,
			ClusterName:  cluster.ClusterName,
			State:        string(cluster.State),
			NumWorkers:   cluster.NumWorkers,
			SparkVersion: cluster.SparkVersion,
		})
	}
	list.Count = len(list.Clusters)
	return &list, nil
}

// ClusterStatus describes one cluster.
type ClusterStatus struct {
	models.Result
	ClusterID              string `json:"cluster_id"`
	ClusterName            string `json:"cluster_name"`
	State                  string `json:"state"`
	NumWorkers             int    `json:"num_workers"`
	SparkVersion           string `json:"spark_version"`
	NodeTypeID             string `json:"node_type_id,omitempty"`
	DriverNodeTypeID       string `json:"driver_node_type_id,omitempty"`
	AutoterminationMinutes int    `json:"autotermination_minutes,omitempty"`
	StartTime              string `json:"start_time,omitempty"`
}

// GetClusterStatus fetches one cluster's configuration and state.
func (s *Service) GetClusterStatus(ctx context.Context, clusterID string) (*ClusterStatus, error) {
	cluster, err := s.client.Clusters.GetByClusterId(ctx, clusterID)
	if err != nil {
		return nil, fmt.Errorf("getting cluster %s: %w", clusterID, err)
	}

	return &ClusterStatus{
		Result:                 models.OK(),
		ClusterID:              cluster.ClusterId,
		ClusterName:            cluster.ClusterName,
		State:                  string(cluster.State),
		NumWorkers:             cluster.NumWorkers,
		SparkVersion:           cluster.SparkVersion,
		NodeTypeID:             cluster.NodeTypeId,
		DriverNodeTypeID:       cluster.DriverNodeTypeId,
		AutoterminationMinutes: cluster.AutoterminationMinutes,
		StartTime:              formatMillis(cluster.StartTime),
	}, nil
}

// ClusterDeletion reports an initiated cluster deletion.
type ClusterDeletion struct {
	models.Result
	Message   string `json:"message"`
	ClusterID string `json:"cluster_id"`
}

// DeleteCluster terminates a cluster.
func (s *Service) DeleteCluster(ctx context.Context, clusterID string) (*ClusterDeletion, error) {
	if _, err := s.client.Clusters.Delete(ctx, compute.DeleteCluster{ClusterId: clusterID}); err != nil {
		return nil, fmt.Errorf("deleting cluster %s: %w", clusterID, err)
	}

	s.logger.Info("databricks cluster deletion initiated", "cluster_id", clusterID)
	return &ClusterDeletion{
		Result:    models.OK(),
		Message:   fmt.Sprintf("Cluster %s deletion initiated", clusterID),
		ClusterID: clusterID,
	}, nil
}
