// Package dataform wraps the Dataform API behind the tool-facing operations:
// workspace files, compilation, workflow execution, and pipeline monitoring.
package dataform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dataformapi "cloud.google.com/go/dataform/apiv1"
	"cloud.google.com/go/dataform/apiv1/dataformpb"
)

// Service is the Dataform tool backend.
type Service struct {
	client     *dataformapi.Client
	project    string
	location   string
	repository string
	workspace  string
	logger     *slog.Logger
	now        func() time.Time
}

// NewService connects a Dataform client bound to one repository workspace.
func NewService(ctx context.Context, project, location, repository, workspace string, logger *slog.Logger) (*Service, error) {
	client, err := dataformapi.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating dataform client: %w", err)
	}
	return &Service{
		client:     client,
		project:    project,
		location:   location,
		repository: repository,
		workspace:  workspace,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) repositoryPath() string {
	return fmt.Sprintf("projects/%s/locations/%s/repositories/%s",
		s.project, s.location, s.repository)
}

func (s *Service) workspacePath() string {
	return fmt.Sprintf("%s/workspaces/%s", s.repositoryPath(), s.workspace)
}

func formatTimestamp(inv *dataformpb.WorkflowInvocation) (create, update string) {
	timing := inv.GetInvocationTiming()
	if start := timing.GetStartTime(); start != nil {
		create = start.AsTime().UTC().Format(time.RFC3339)
	}
	if end := timing.GetEndTime(); end != nil {
		update = end.AsTime().UTC().Format(time.RFC3339)
	}
	return create, update
}

// actionTags pulls the tag list off whichever compiled-object variant the
// action carries.
func actionTags(action *dataformpb.CompilationResultAction) []string {
	switch {
	case action.GetRelation() != nil:
		return action.GetRelation().GetTags()
	case action.GetAssertion() != nil:
		return action.GetAssertion().GetTags()
	case action.GetOperations() != nil:
		return action.GetOperations().GetTags()
	default:
		return nil
	}
}

// hasAllTags reports whether the action carries every required tag.
func hasAllTags(tags, required []string) bool {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

func targetString(t *dataformpb.Target) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%s.%s.%s", t.GetDatabase(), t.GetSchema(), t.GetName())
}
