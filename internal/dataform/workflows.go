package dataform

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/dataform/apiv1/dataformpb"
	"google.golang.org/api/iterator"

	"github.com/mkarlsen/datapilot/internal/diag"
	"github.com/mkarlsen/datapilot/internal/models"
)

// compile creates a compilation result for the workspace and returns it with
// its actions. Compilation errors abort with a joined message.
func (s *Service) compile(ctx context.Context) (*dataformpb.CompilationResult, []*dataformpb.CompilationResultAction, error) {
	result, err := s.client.CreateCompilationResult(ctx, &dataformpb.CreateCompilationResultRequest{
		Parent: s.repositoryPath(),
		CompilationResult: &dataformpb.CompilationResult{
			Source: &dataformpb.CompilationResult_Workspace{
				Workspace: s.workspacePath(),
			},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating compilation result: %w", err)
	}
	if errs := result.GetCompilationErrors(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.GetPath(), e.GetMessage()))
		}
		return nil, nil, fmt.Errorf("compilation errors: %v", msgs)
	}

	it := s.client.QueryCompilationResultActions(ctx, &dataformpb.QueryCompilationResultActionsRequest{
		Name: result.GetName(),
	})
	var actions []*dataformpb.CompilationResultAction
	for {
		action, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("listing compilation actions: %w", err)
		}
		actions = append(actions, action)
	}
	return result, actions, nil
}

// CompileReport is the outcome of a compile or compile+execute run.
type CompileReport struct {
	models.Result
	Message      string   `json:"message"`
	Actions      []string `json:"pipeline_dag"`
	InvocationID string   `json:"workflow_invocation_id,omitempty"`
}

// Compile compiles the workspace and, unless compileOnly, starts a workflow
// invocation over the full compilation result.
func (s *Service) Compile(ctx context.Context, compileOnly bool) (*CompileReport, error) {
	result, actions, err := s.compile(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, targetString(a.GetTarget()))
	}

	if compileOnly {
		return &CompileReport{
			Result:  models.OK(),
			Message: "Compilation successful (compile-only mode)",
			Actions: names,
		}, nil
	}

	invocation, err := s.client.CreateWorkflowInvocation(ctx, &dataformpb.CreateWorkflowInvocationRequest{
		Parent: s.repositoryPath(),
		WorkflowInvocation: &dataformpb.WorkflowInvocation{
			CompilationSource: &dataformpb.WorkflowInvocation_CompilationResult{
				CompilationResult: result.GetName(),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating workflow invocation: %w", err)
	}
	return &CompileReport{
		Result:       models.OK(),
		Message:      "Compilation and execution successful",
		Actions:      names,
		InvocationID: invocation.GetName(),
	}, nil
}

// ExecutionReport is the outcome of starting a workflow execution.
type ExecutionReport struct {
	models.Result
	Message      string   `json:"message"`
	InvocationID string   `json:"workflow_invocation_id"`
	WorkflowName string   `json:"workflow_name,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ActionsCount int      `json:"actions_count,omitempty"`
}

// ExecuteWorkflow starts an invocation of a pre-configured workflow config.
func (s *Service) ExecuteWorkflow(ctx context.Context, workflowName string) (*ExecutionReport, error) {
	invocation, err := s.client.CreateWorkflowInvocation(ctx, &dataformpb.CreateWorkflowInvocationRequest{
		Parent: s.repositoryPath(),
		WorkflowInvocation: &dataformpb.WorkflowInvocation{
			CompilationSource: &dataformpb.WorkflowInvocation_WorkflowConfig{
				WorkflowConfig: workflowName,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("executing workflow %s: %w", workflowName, err)
	}
	return &ExecutionReport{
		Result:       models.OK(),
		Message:      "Workflow execution started",
		InvocationID: invocation.GetName(),
		WorkflowName: workflowName,
	}, nil
}

// TagExecutionReport is the outcome of a tag-filtered execution.
type TagExecutionReport struct {
	models.Result
	Message       string   `json:"message"`
	InvocationID  string   `json:"workflow_invocation_id,omitempty"`
	Tags          []string `json:"tags"`
	Actions       []string `json:"actions,omitempty"`
	ActionsCount  int      `json:"actions_count"`
	AvailableTags []string `json:"available_tags,omitempty"`
	CompileOnly   bool     `json:"compile_only,omitempty"`
}

// ExecuteByTags compiles the workspace and executes only the actions that
// carry ALL the requested tags. An empty match reports the available tags
// instead of starting anything.
func (s *Service) ExecuteByTags(ctx context.Context, tags []string, compileOnly bool) (*TagExecutionReport, error) {
	result, actions, err := s.compile(ctx)
	if err != nil {
		return nil, err
	}

	var targets []*dataformpb.Target
	var names []string
	for _, action := range actions {
		if hasAllTags(actionTags(action), tags) {
			targets = append(targets, action.GetTarget())
			names = append(names, targetString(action.GetTarget()))
		}
	}

	if len(targets) == 0 {
		return &TagExecutionReport{
			Result:        models.Errorf("no actions found with all tags: %v", tags),
			Tags:          tags,
			AvailableTags: availableTags(actions),
		}, nil
	}

	if compileOnly {
		return &TagExecutionReport{
			Result:       models.OK(),
			Message:      fmt.Sprintf("Found %d actions with tags %v", len(targets), tags),
			Tags:         tags,
			Actions:      names,
			ActionsCount: len(targets),
			CompileOnly:  true,
		}, nil
	}

	invocation, err := s.client.CreateWorkflowInvocation(ctx, &dataformpb.CreateWorkflowInvocationRequest{
		Parent: s.repositoryPath(),
		WorkflowInvocation: &dataformpb.WorkflowInvocation{
			CompilationSource: &dataformpb.WorkflowInvocation_CompilationResult{
				CompilationResult: result.GetName(),
			},
			InvocationConfig: &dataformpb.InvocationConfig{
				IncludedTargets: targets,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating tag-filtered invocation: %w", err)
	}
	return &TagExecutionReport{
		Result:       models.OK(),
		Message:      fmt.Sprintf("Workflow execution started for %d actions with tags %v", len(targets), tags),
		InvocationID: invocation.GetName(),
		Tags:         tags,
		ActionsCount: len(targets),
	}, nil
}

// availableTags collects the distinct tags across all compiled actions.
func availableTags(actions []*dataformpb.CompilationResultAction) []string {
	seen := map[string]struct{}{}
	var tags []string
	for _, action := range actions {
		for _, tag := range actionTags(action) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// ExecutionLogs is the per-action view of one invocation. Status is error
// when any action failed.
type ExecutionLogs struct {
	models.Result
	InvocationID string                 `json:"workflow_invocation_id"`
	Actions      []models.ActionSummary `json:"actions"`
}

// GetExecutionLogs lists the invocation's actions with their states, failure
// reasons, and BigQuery job ids.
func (s *Service) GetExecutionLogs(ctx context.Context, invocationID string) (*ExecutionLogs, error) {
	it := s.client.QueryWorkflowInvocationActions(ctx, &dataformpb.QueryWorkflowInvocationActionsRequest{
		Name: invocationID,
	})

	logs := ExecutionLogs{
		Result:       models.OK(),
		InvocationID: invocationID,
		Actions:      []models.ActionSummary{},
	}
	failed := false
	for {
		action, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing invocation actions: %w", err)
		}

		summary := models.ActionSummary{
			Name:            action.GetTarget().GetName(),
			Status:          action.GetState().String(),
			CanonicalTarget: action.GetCanonicalTarget().GetName(),
			JobID:           action.GetBigqueryAction().GetJobId(),
		}
		if action.GetState() == dataformpb.WorkflowInvocationAction_FAILED {
			summary.ErrorMessage = action.GetFailureReason()
			failed = true
		}
		logs.Actions = append(logs.Actions, summary)
	}

	if failed {
		logs.Result = models.Errorf(
			"one or more actions failed in workflow invocation %s; see actions for details",
			invocationID)
	}
	return &logs, nil
}

// WorkflowStatus is the current state of one invocation.
type WorkflowStatus struct {
	models.Result
	InvocationID string `json:"workflow_invocation_id"`
	State        string `json:"state"`
	CreateTime   string `json:"create_time,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
}

// GetWorkflowStatus fetches the invocation's state and timing.
func (s *Service) GetWorkflowStatus(ctx context.Context, invocationID string) (*WorkflowStatus, error) {
	invocation, err := s.client.GetWorkflowInvocation(ctx, &dataformpb.GetWorkflowInvocationRequest{
		Name: invocationID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching workflow status: %w", err)
	}

	create, update := formatTimestamp(invocation)
	return &WorkflowStatus{
		Result:       models.OK(),
		InvocationID: invocationID,
		State:        invocation.GetState().String(),
		CreateTime:   create,
		UpdateTime:   update,
	}, nil
}

// listInvocations returns recent invocations as summaries, newest first per
// the API's default ordering, optionally narrowed to one workflow config and
// a lookback window in days.
func (s *Service) listInvocations(ctx context.Context, workflowName string, days int) ([]models.InvocationSummary, error) {
	threshold := s.now().UTC().AddDate(0, 0, -days)

	it := s.client.ListWorkflowInvocations(ctx, &dataformpb.ListWorkflowInvocationsRequest{
		Parent: s.repositoryPath(),
	})

	var invocations []models.InvocationSummary
	for {
		inv, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing workflow invocations: %w", err)
		}
		if workflowName != "" && inv.GetWorkflowConfig() != workflowName {
			continue
		}
		if start := inv.GetInvocationTiming().GetStartTime(); start != nil && start.AsTime().Before(threshold) {
			continue
		}

		summary := models.InvocationSummary{
			ID:                inv.GetName(),
			WorkflowConfig:    inv.GetWorkflowConfig(),
			State:             inv.GetState().String(),
			CompilationResult: inv.GetCompilationResult(),
		}
		if start := inv.GetInvocationTiming().GetStartTime(); start != nil {
			summary.CreateTime = start.AsTime()
		}
		if end := inv.GetInvocationTiming().GetEndTime(); end != nil {
			summary.UpdateTime = end.AsTime()
		}
		invocations = append(invocations, summary)
	}
	return invocations, nil
}

// HealthReport is the aggregated health view of recent invocations.
type HealthReport struct {
	models.Result
	WorkflowName string              `json:"workflow_name"`
	PeriodDays   int                 `json:"period_days"`
	Message      string              `json:"message,omitempty"`
	Metrics      *diag.HealthMetrics `json:"metrics,omitempty"`
}

// MonitorHealth aggregates success rate, duration, trend, and failure
// patterns over the lookback window. No invocations is a success with a
// message, not an error.
func (s *Service) MonitorHealth(ctx context.Context, workflowName string, days int) (*HealthReport, error) {
	if days <= 0 {
		days = 7
	}
	invocations, err := s.listInvocations(ctx, workflowName, days)
	if err != nil {
		return nil, err
	}

	report := HealthReport{
		Result:       models.OK(),
		WorkflowName: workflowName,
		PeriodDays:   days,
	}
	if report.WorkflowName == "" {
		report.WorkflowName = "all_workflows"
	}
	if len(invocations) == 0 {
		report.Message = fmt.Sprintf("No workflow invocations found in the last %d days", days)
		return &report, nil
	}

	metrics := diag.AggregateHealth(invocations)
	report.Metrics = &metrics
	return &report, nil
}

// FailedWorkflow is one failed invocation with its failed actions.
type FailedWorkflow struct {
	InvocationID  string                 `json:"workflow_invocation_id"`
	WorkflowName  string                 `json:"workflow_config,omitempty"`
	CreateTime    string                 `json:"create_time,omitempty"`
	UpdateTime    string                 `json:"update_time,omitempty"`
	FailedActions []models.ActionSummary `json:"failed_actions,omitempty"`
	ErrorSummary  string                 `json:"error_summary,omitempty"`
}

// FailedWorkflowsReport lists failed invocations in the lookback window.
type FailedWorkflowsReport struct {
	models.Result
	Days            int              `json:"days"`
	FailedWorkflows []FailedWorkflow `json:"failed_workflows"`
	Count           int              `json:"count"`
}

// GetFailedWorkflows lists failed invocations with per-action error detail.
// Log fetch failures degrade to the bare invocation record.
func (s *Service) GetFailedWorkflows(ctx context.Context, days int) (*FailedWorkflowsReport, error) {
	if days <= 0 {
		days = 7
	}
	invocations, err := s.listInvocations(ctx, "", days)
	if err != nil {
		return nil, err
	}

	report := FailedWorkflowsReport{
		Result:          models.OK(),
		Days:            days,
		FailedWorkflows: []FailedWorkflow{},
	}
	for _, inv := range invocations {
		if inv.State != models.InvocationFailed {
			continue
		}

		failed := FailedWorkflow{
			InvocationID: inv.ID,
			WorkflowName: inv.WorkflowConfig,
		}
		if !inv.CreateTime.IsZero() {
			failed.CreateTime = inv.CreateTime.UTC().Format(time.RFC3339)
		}
		if !inv.UpdateTime.IsZero() {
			failed.UpdateTime = inv.UpdateTime.UTC().Format(time.RFC3339)
		}

		if logs, err := s.GetExecutionLogs(ctx, inv.ID); err == nil {
			for _, action := range logs.Actions {
				if action.Status == models.ActionFailed {
					failed.FailedActions = append(failed.FailedActions, action)
				}
			}
			if len(failed.FailedActions) > 0 {
				failed.ErrorSummary = failed.FailedActions[0].ErrorMessage
			}
		}
		report.FailedWorkflows = append(report.FailedWorkflows, failed)
	}

	report.Count = len(report.FailedWorkflows)
	return &report, nil
}

// PipelineHealthReport combines compiled-action scope with recent execution
// health into an overall verdict.
type PipelineHealthReport struct {
	models.Result
	OverallStatus   string              `json:"overall_status"`
	HealthScore     float64             `json:"health_score"`
	ActionsAnalyzed int                 `json:"actions_analyzed"`
	TagsFilter      []string            `json:"tags_filter,omitempty"`
	Metrics         *diag.HealthMetrics `json:"metrics,omitempty"`
	Issues          []string            `json:"issues,omitempty"`
	Recommendations []string            `json:"recommendations"`
}

// CheckPipelineHealth compiles the workspace, counts the actions in scope
// (optionally tag-filtered), and scores the last 7 days of executions.
func (s *Service) CheckPipelineHealth(ctx context.Context, tags []string) (*PipelineHealthReport, error) {
	_, actions, err := s.compile(ctx)
	if err != nil {
		return nil, err
	}

	analyzed := 0
	for _, action := range actions {
		if len(tags) == 0 || hasAllTags(actionTags(action), tags) {
			analyzed++
		}
	}

	invocations, err := s.listInvocations(ctx, "", 7)
	if err != nil {
		return nil, err
	}
	metrics := diag.AggregateHealth(invocations)
	health := diag.ScorePipeline(metrics)

	return &PipelineHealthReport{
		Result:          models.OK(),
		OverallStatus:   string(health.Status),
		HealthScore:     health.Score,
		ActionsAnalyzed: analyzed,
		TagsFilter:      tags,
		Metrics:         &metrics,
		Issues:          health.Issues,
		Recommendations: health.Recommendations,
	}, nil
}
