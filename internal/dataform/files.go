package dataform

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/dataform/apiv1/dataformpb"
	"google.golang.org/api/iterator"
	"gopkg.in/yaml.v3"

	"github.com/mkarlsen/datapilot/internal/models"
)

// FileOperation reports a single write or delete against the workspace.
type FileOperation struct {
	models.Result
	Path    string `json:"path"`
	Message string `json:"message"`
}

// WriteFile uploads file content to the workspace.
func (s *Service) WriteFile(ctx context.Context, path, content string) (*FileOperation, error) {
	_, err := s.client.WriteFile(ctx, &dataformpb.WriteFileRequest{
		Workspace: s.workspacePath(),
		Path:      path,
		Contents:  []byte(content),
	})
	if err != nil {
		return nil, fmt.Errorf("writing file %s: %w", path, err)
	}
	return &FileOperation{
		Result:  models.OK(),
		Path:    path,
		Message: fmt.Sprintf("File uploaded: %s", path),
	}, nil
}

// DeleteFile removes a file from the workspace.
func (s *Service) DeleteFile(ctx context.Context, path string) (*FileOperation, error) {
	_, err := s.client.RemoveFile(ctx, &dataformpb.RemoveFileRequest{
		Workspace: s.workspacePath(),
		Path:      path,
	})
	if err != nil {
		return nil, fmt.Errorf("deleting file %s: %w", path, err)
	}
	return &FileOperation{
		Result:  models.OK(),
		Path:    path,
		Message: fmt.Sprintf("File deleted: %s", path),
	}, nil
}

// FileContent is the content of one workspace file.
type FileContent struct {
	models.Result
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ReadFile fetches a file's content from the workspace.
func (s *Service) ReadFile(ctx context.Context, path string) (*FileContent, error) {
	resp, err := s.client.ReadFile(ctx, &dataformpb.ReadFileRequest{
		Workspace: s.workspacePath(),
		Path:      path,
	})
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return &FileContent{
		Result:  models.OK(),
		Path:    path,
		Content: string(resp.GetFileContents()),
	}, nil
}

// FileList is the paths matching a search.
type FileList struct {
	models.Result
	Pattern string   `json:"pattern,omitempty"`
	Files   []string `json:"files"`
}

// SearchFiles lists workspace file paths, optionally filtered by a substring
// pattern.
func (s *Service) SearchFiles(ctx context.Context, pattern string) (*FileList, error) {
	it := s.client.SearchFiles(ctx, &dataformpb.SearchFilesRequest{
		Workspace: s.workspacePath(),
	})

	list := FileList{Result: models.OK(), Pattern: pattern, Files: []string{}}
	for {
		result, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("searching files: %w", err)
		}
		file := result.GetFile()
		if file == nil {
			continue
		}
		if pattern != "" && !strings.Contains(file.GetPath(), pattern) {
			continue
		}
		list.Files = append(list.Files, file.GetPath())
	}
	return &list, nil
}

// WorkflowSettings is the parsed workflow_settings.yaml.
type WorkflowSettings struct {
	models.Result
	Raw                     string `json:"raw"`
	DataformCoreVersion     string `json:"dataform_core_version,omitempty"`
	DefaultProject          string `json:"default_project,omitempty"`
	DefaultLocation         string `json:"default_location,omitempty"`
	DefaultDataset          string `json:"default_dataset,omitempty"`
	DefaultAssertionDataset string `json:"default_assertion_dataset,omitempty"`
}

// parseWorkflowSettings decodes the YAML settings document.
func parseWorkflowSettings(raw string) (WorkflowSettings, error) {
	var doc struct {
		DataformCoreVersion     string `yaml:"dataformCoreVersion"`
		DefaultProject          string `yaml:"defaultProject"`
		DefaultLocation         string `yaml:"defaultLocation"`
		DefaultDataset          string `yaml:"defaultDataset"`
		DefaultAssertionDataset string `yaml:"defaultAssertionDataset"`
	}
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return WorkflowSettings{}, fmt.Errorf("parsing workflow_settings.yaml: %w", err)
	}
	return WorkflowSettings{
		Raw:                     raw,
		DataformCoreVersion:     doc.DataformCoreVersion,
		DefaultProject:          doc.DefaultProject,
		DefaultLocation:         doc.DefaultLocation,
		DefaultDataset:          doc.DefaultDataset,
		DefaultAssertionDataset: doc.DefaultAssertionDataset,
	}, nil
}

// ReadWorkflowSettings reads and parses workflow_settings.yaml.
func (s *Service) ReadWorkflowSettings(ctx context.Context) (*WorkflowSettings, error) {
	file, err := s.ReadFile(ctx, "workflow_settings.yaml")
	if err != nil {
		return nil, err
	}
	settings, err := parseWorkflowSettings(file.Content)
	if err != nil {
		return nil, err
	}
	settings.Result = models.OK()
	return &settings, nil
}

// RepoLink is the GCP console link for the repository workspace.
type RepoLink struct {
	models.Result
	RepositoryURL  string `json:"repository_url"`
	RepositoryName string `json:"repository_name"`
	ProjectID      string `json:"project_id"`
	Location       string `json:"location"`
	WorkspaceName  string `json:"workspace_name"`
}

// GetRepoLink builds the console URL for the configured workspace.
func (s *Service) GetRepoLink() *RepoLink {
	url := fmt.Sprintf(
		"https://console.cloud.google.com/bigquery/dataform/locations/%s/repositories/%s/workspaces/%s",
		s.location, s.repository, s.workspace)
	return &RepoLink{
		Result:         models.OK(),
		RepositoryURL:  url,
		RepositoryName: s.repository,
		ProjectID:      s.project,
		Location:       s.location,
		WorkspaceName:  s.workspace,
	}
}
