package tools

import (
	"context"
	"fmt"

	"github.com/mkarlsen/datapilot/internal/gh"
)

// RepoFileInput identifies one repository file on a branch.
type RepoFileInput struct {
	Path   string `json:"path" jsonschema:"required,File path in the repository"`
	Branch string `json:"branch,omitempty" jsonschema:"Branch name (default branch if omitted)"`
}

// WriteRepoFileInput defines the input schema for write_file_to_github.
type WriteRepoFileInput struct {
	Path          string `json:"path" jsonschema:"required,File path in the repository"`
	Content       string `json:"content" jsonschema:"required,Full file content"`
	CommitMessage string `json:"commit_message" jsonschema:"required,Commit message"`
	Branch        string `json:"branch,omitempty" jsonschema:"Branch name (default branch if omitted)"`
}

// ListRepoFilesInput defines the input schema for list_github_files.
type ListRepoFilesInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Directory path (repository root if omitted)"`
	Branch string `json:"branch,omitempty" jsonschema:"Branch name (default branch if omitted)"`
}

// FileHistoryInput defines the input schema for get_github_file_history.
type FileHistoryInput struct {
	Path   string `json:"path" jsonschema:"required,File path in the repository"`
	Branch string `json:"branch,omitempty" jsonschema:"Branch name (default branch if omitted)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum commits to return (default 10)"`
}

// CreateBranchInput defines the input schema for create_github_branch.
type CreateBranchInput struct {
	BranchName   string `json:"branch_name" jsonschema:"required,Name of the branch to create"`
	SourceBranch string `json:"source_branch,omitempty" jsonschema:"Branch to fork from (default branch if omitted)"`
}

// BranchNameInput identifies one branch.
type BranchNameInput struct {
	BranchName string `json:"branch_name" jsonschema:"required,Branch name"`
}

// CreatePRInput defines the input schema for create_github_pull_request.
type CreatePRInput struct {
	Title      string `json:"title" jsonschema:"required,Pull request title"`
	Body       string `json:"body,omitempty" jsonschema:"Pull request description"`
	HeadBranch string `json:"head_branch" jsonschema:"required,Branch with the changes"`
	BaseBranch string `json:"base_branch,omitempty" jsonschema:"Branch to merge into (default branch if omitted)"`
}

// MergedPRsInput defines the input schema for get_merged_pull_requests.
type MergedPRsInput struct {
	BaseBranch string `json:"base_branch,omitempty" jsonschema:"Base branch (default branch if omitted)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum PRs to return (default 10)"`
}

// CleanupBranchesInput defines the input schema for cleanup_merged_branches.
type CleanupBranchesInput struct {
	BaseBranch string `json:"base_branch,omitempty" jsonschema:"Base branch (default branch if omitted)"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema:"List branches without deleting them"`
}

// CreateRepoInput defines the input schema for create_github_repository.
type CreateRepoInput struct {
	Name              string `json:"name" jsonschema:"required,Repository name"`
	Description       string `json:"description,omitempty" jsonschema:"Repository description"`
	Private           bool   `json:"private,omitempty" jsonschema:"Create as private repository"`
	Organization      string `json:"organization,omitempty" jsonschema:"Create under this organization instead of the authenticated user"`
	AutoInit          bool   `json:"auto_init,omitempty" jsonschema:"Initialize with an empty README"`
	GitignoreTemplate string `json:"gitignore_template,omitempty" jsonschema:"Gitignore template name"`
	LicenseTemplate   string `json:"license_template,omitempty" jsonschema:"License template name"`
}

// SyncFileInput defines the input schema for sync_dataform_to_github.
type SyncFileInput struct {
	FilePath      string `json:"file_path" jsonschema:"required,Path of the file in both Dataform and GitHub"`
	CommitMessage string `json:"commit_message,omitempty" jsonschema:"Custom commit message"`
	Branch        string `json:"branch,omitempty" jsonschema:"GitHub branch to sync to (default branch if omitted)"`
}

func registerGitHub(r *Registry) {
	svc := r.deps.GitHub

	Add(r, "github", "read_file_from_github",
		"Read a file from the GitHub repository",
		func(ctx context.Context, in RepoFileInput) (any, error) {
			return svc.ReadFile(ctx, in.Path, in.Branch)
		})

	Add(r, "github", "write_file_to_github",
		"Create or update a file in the GitHub repository",
		func(ctx context.Context, in WriteRepoFileInput) (any, error) {
			return svc.WriteFile(ctx, in.Path, in.Content, in.CommitMessage, in.Branch)
		})

	Add(r, "github", "list_github_files",
		"List the entries of a repository directory",
		func(ctx context.Context, in ListRepoFilesInput) (any, error) {
			return svc.ListFiles(ctx, in.Path, in.Branch)
		})

	Add(r, "github", "get_github_file_history",
		"List recent commits touching a file",
		func(ctx context.Context, in FileHistoryInput) (any, error) {
			return svc.GetFileHistory(ctx, in.Path, in.Branch, in.Limit)
		})

	Add(r, "github", "create_github_branch",
		"Create a branch from the head of a source branch",
		func(ctx context.Context, in CreateBranchInput) (any, error) {
			return svc.CreateBranch(ctx, in.BranchName, in.SourceBranch)
		})

	Add(r, "github", "delete_github_branch",
		"Delete a branch (the default branch is refused)",
		func(ctx context.Context, in BranchNameInput) (any, error) {
			return svc.DeleteBranch(ctx, in.BranchName)
		})

	Add(r, "github", "create_github_pull_request",
		"Open a pull request from a head branch into a base branch",
		func(ctx context.Context, in CreatePRInput) (any, error) {
			return svc.CreatePullRequest(ctx, in.Title, in.Body, in.HeadBranch, in.BaseBranch)
		})

	Add(r, "github", "get_merged_pull_requests",
		"List recently merged pull requests into a base branch",
		func(ctx context.Context, in MergedPRsInput) (any, error) {
			return svc.GetMergedPullRequests(ctx, in.BaseBranch, in.Limit)
		})

	Add(r, "github", "cleanup_merged_branches",
		"Delete the head branches of merged pull requests, with a dry-run mode",
		func(ctx context.Context, in CleanupBranchesInput) (any, error) {
			return svc.CleanupMergedBranches(ctx, in.BaseBranch, in.DryRun)
		})

	Add(r, "github", "create_github_repository",
		"Create a repository under the user or an organization",
		func(ctx context.Context, in CreateRepoInput) (any, error) {
			return svc.CreateRepository(ctx, gh.RepoOptions{
				Name:              in.Name,
				Description:       in.Description,
				Private:           in.Private,
				Organization:      in.Organization,
				AutoInit:          in.AutoInit,
				GitignoreTemplate: in.GitignoreTemplate,
				LicenseTemplate:   in.LicenseTemplate,
			})
		})

	// Composition over the dataform backend; skipped when it is unavailable.
	if r.deps.Dataform == nil {
		r.deps.Logger.Warn("sync_dataform_to_github disabled, dataform backend unavailable")
		return
	}
	dataformSvc := r.deps.Dataform
	Add(r, "github", "sync_dataform_to_github",
		"Read a file from the Dataform workspace and commit it to GitHub",
		func(ctx context.Context, in SyncFileInput) (any, error) {
			file, err := dataformSvc.ReadFile(ctx, in.FilePath)
			if err != nil {
				return nil, fmt.Errorf("reading %s from dataform: %w", in.FilePath, err)
			}
			message := in.CommitMessage
			if message == "" {
				message = fmt.Sprintf("Sync %s from Dataform", in.FilePath)
			}
			return svc.WriteFile(ctx, in.FilePath, file.Content, message, in.Branch)
		})
}
