package gh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/mkarlsen/datapilot/internal/models"
)

// BranchResult reports a branch creation or deletion.
type BranchResult struct {
	models.Result
	Message    string `json:"message"`
	BranchName string `json:"branch_name"`
}

// CreateBranch creates a branch from the source branch's head.
func (s *Service) CreateBranch(ctx context.Context, branchName, sourceBranch string) (*BranchResult, error) {
	sourceBranch = s.branchOrDefault(sourceBranch)

	source, _, err := s.client.Git.GetRef(ctx, s.owner, s.repo, "refs/heads/"+sourceBranch)
	if err != nil {
		return nil, fmt.Errorf("resolving source branch %s: %w", sourceBranch, err)
	}
	_, _, err = s.client.Git.CreateRef(ctx, s.owner, s.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branchName),
		Object: &github.GitObject{SHA: source.Object.SHA},
	})
	if err != nil {
		return nil, fmt.Errorf("creating branch %s: %w", branchName, err)
	}
	return &BranchResult{
		Result:     models.OK(),
		Message:    fmt.Sprintf("Branch %s created successfully from %s", branchName, sourceBranch),
		BranchName: branchName,
	}, nil
}

// DeleteBranch deletes a branch. Deleting the default branch is refused.
func (s *Service) DeleteBranch(ctx context.Context, branchName string) (*BranchResult, error) {
	if branchName == s.defaultBranch {
		return nil, fmt.Errorf("refusing to delete default branch %s", branchName)
	}

	_, err := s.client.Git.DeleteRef(ctx, s.owner, s.repo, "refs/heads/"+branchName)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("branch %s not found, it may have already been deleted", branchName)
		}
		return nil, fmt.Errorf("deleting branch %s: %w", branchName, err)
	}
	return &BranchResult{
		Result:     models.OK(),
		Message:    fmt.Sprintf("Branch %s deleted successfully", branchName),
		BranchName: branchName,
	}, nil
}

// PullRequest reports a created PR.
type PullRequest struct {
	models.Result
	Message string `json:"message"`
	Number  int    `json:"pr_number"`
	URL     string `json:"pr_url"`
	Title   string `json:"pr_title"`
}

// CreatePullRequest opens a PR from head into base.
func (s *Service) CreatePullRequest(ctx context.Context, title, body, headBranch, baseBranch string) (*PullRequest, error) {
	baseBranch = s.branchOrDefault(baseBranch)

	pr, _, err := s.client.PullRequests.Create(ctx, s.owner, s.repo, &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(headBranch),
		Base:  github.String(baseBranch),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}
	return &PullRequest{
		Result:  models.OK(),
		Message: "Pull request created successfully",
		Number:  pr.GetNumber(),
		URL:     pr.GetHTMLURL(),
		Title:   pr.GetTitle(),
	}, nil
}

// MergedPR is one merged pull request.
type MergedPR struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	HeadBranch string `json:"head_branch"`
	MergedAt   string `json:"merged_at,omitempty"`
	URL        string `json:"url"`
}

// MergedPRList lists merged PRs against one base branch.
type MergedPRList struct {
	models.Result
	BaseBranch string     `json:"base_branch"`
	MergedPRs  []MergedPR `json:"merged_prs"`
}

// GetMergedPullRequests lists up to limit merged PRs into the base branch,
// most recently updated first. Closed-but-unmerged PRs are filtered out.
func (s *Service) GetMergedPullRequests(ctx context.Context, baseBranch string, limit int) (*MergedPRList, error) {
	baseBranch = s.branchOrDefault(baseBranch)
	if limit <= 0 {
		limit = 10
	}

	prs, _, err := s.client.PullRequests.List(ctx, s.owner, s.repo, &github.PullRequestListOptions{
		State:       "closed",
		Base:        baseBranch,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("listing merged pull requests: %w", err)
	}

	list := MergedPRList{Result: models.OK(), BaseBranch: baseBranch, MergedPRs: []MergedPR{}}
	for _, pr := range prs {
		if pr.MergedAt == nil {
			continue
		}
		if len(list.MergedPRs) >= limit {
			break
		}
		list.MergedPRs = append(list.MergedPRs, MergedPR{
			Number:     pr.GetNumber(),
			Title:      pr.GetTitle(),
			HeadBranch: pr.GetHead().GetRef(),
			MergedAt:   pr.GetMergedAt().UTC().Format(time.RFC3339),
			URL:        pr.GetHTMLURL(),
		})
	}
	return &list, nil
}

// CleanupReport is the outcome of a merged-branch cleanup.
type CleanupReport struct {
	models.Result
	Mode            string   `json:"mode"`
	Message         string   `json:"message"`
	Branches        []string `json:"branches,omitempty"`
	DeletedBranches []string `json:"deleted_branches,omitempty"`
	FailedBranches  []string `json:"failed_branches,omitempty"`
	Note            string   `json:"note,omitempty"`
}

const cleanupScanLimit = 50

// CleanupMergedBranches deletes the head branches of merged PRs. In dry-run
// mode it only lists them. Per-branch failures are collected, not fatal.
func (s *Service) CleanupMergedBranches(ctx context.Context, baseBranch string, dryRun bool) (*CleanupReport, error) {
	merged, err := s.GetMergedPullRequests(ctx, baseBranch, cleanupScanLimit)
	if err != nil {
		return nil, err
	}

	branches := make([]string, 0, len(merged.MergedPRs))
	for _, pr := range merged.MergedPRs {
		branches = append(branches, pr.HeadBranch)
	}

	if dryRun {
		return &CleanupReport{
			Result:   models.OK(),
			Mode:     "dry_run",
			Message:  fmt.Sprintf("Found %d branches that would be deleted", len(branches)),
			Branches: branches,
			Note:     "Run with dry_run=false to actually delete these branches",
		}, nil
	}

	report := CleanupReport{Result: models.OK(), Mode: "delete"}
	for _, branch := range branches {
		if branch == merged.BaseBranch {
			continue
		}
		if _, err := s.DeleteBranch(ctx, branch); err != nil {
			s.logger.Warn("failed to delete merged branch", "branch", branch, "error", err)
			report.FailedBranches = append(report.FailedBranches, branch)
			continue
		}
		report.DeletedBranches = append(report.DeletedBranches, branch)
	}
	report.Message = fmt.Sprintf("Deleted %d branches", len(report.DeletedBranches))
	return &report, nil
}
