// Package gh wraps the GitHub API behind the tool-facing operations:
// repository files, branches, and pull-request lifecycle.
package gh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/mkarlsen/datapilot/internal/models"
)

// Service is the GitHub tool backend, bound to one repository.
type Service struct {
	client        *github.Client
	owner         string
	repo          string
	defaultBranch string
	logger        *slog.Logger
}

// NewService builds an authenticated client for owner/repo. defaultBranch is
// used when a call leaves the branch empty.
func NewService(ctx context.Context, token, owner, repo, defaultBranch string, logger *slog.Logger) (*Service, error) {
	if token == "" {
		return nil, errors.New("github token not configured")
	}
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Service{
		client:        github.NewClient(oauth2.NewClient(ctx, ts)),
		owner:         owner,
		repo:          repo,
		defaultBranch: defaultBranch,
		logger:        logger,
	}, nil
}

func (s *Service) branchOrDefault(branch string) string {
	if branch == "" {
		return s.defaultBranch
	}
	return branch
}

// isNotFound reports whether the API error is a 404.
func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil &&
		errResp.Response.StatusCode == http.StatusNotFound
}

// FileContent is one file read from the repository.
type FileContent struct {
	models.Result
	Path    string `json:"path"`
	Branch  string `json:"branch"`
	Content string `json:"content"`
}

// ReadFile fetches and decodes a file from the given branch.
func (s *Service) ReadFile(ctx context.Context, path, branch string) (*FileContent, error) {
	branch = s.branchOrDefault(branch)
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, fmt.Errorf("reading %s from branch %s: %w", path, branch, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &FileContent{
		Result:  models.OK(),
		Path:    path,
		Branch:  branch,
		Content: content,
	}, nil
}

// CommitResult reports a file write.
type CommitResult struct {
	models.Result
	Message   string `json:"message"`
	CommitSHA string `json:"commit_sha"`
	CommitURL string `json:"commit_url,omitempty"`
}

// WriteFile creates or updates a file on the given branch. Existing files are
// updated in place via their blob SHA.
func (s *Service) WriteFile(ctx context.Context, path, content, commitMessage, branch string) (*CommitResult, error) {
	branch = s.branchOrDefault(branch)
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(commitMessage),
		Content: []byte(content),
		Branch:  github.String(branch),
	}

	existing, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		resp, _, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
		if err != nil {
			return nil, fmt.Errorf("updating %s on branch %s: %w", path, branch, err)
		}
		return &CommitResult{
			Result:    models.OK(),
			Message:   fmt.Sprintf("File %s updated successfully", path),
			CommitSHA: resp.Commit.GetSHA(),
			CommitURL: resp.Commit.GetHTMLURL(),
		}, nil
	case err != nil && !isNotFound(err):
		return nil, fmt.Errorf("checking %s on branch %s: %w", path, branch, err)
	default:
		resp, _, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
		if err != nil {
			return nil, fmt.Errorf("creating %s on branch %s: %w", path, branch, err)
		}
		return &CommitResult{
			Result:    models.OK(),
			Message:   fmt.Sprintf("File %s created successfully", path),
			CommitSHA: resp.Commit.GetSHA(),
			CommitURL: resp.Commit.GetHTMLURL(),
		}, nil
	}
}

// FileList is the entries of one directory.
type FileList struct {
	models.Result
	Path   string   `json:"path"`
	Branch string   `json:"branch"`
	Files  []string `json:"files"`
}

// ListFiles lists the entries of a directory (empty path for the root).
func (s *Service) ListFiles(ctx context.Context, path, branch string) (*FileList, error) {
	branch = s.branchOrDefault(branch)
	file, dir, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, fmt.Errorf("listing %q on branch %s: %w", path, branch, err)
	}

	list := FileList{Result: models.OK(), Path: path, Branch: branch, Files: []string{}}
	if file != nil {
		list.Files = append(list.Files, file.GetPath())
		return &list, nil
	}
	for _, entry := range dir {
		list.Files = append(list.Files, entry.GetPath())
	}
	return &list, nil
}

// Commit is one entry of a file's history.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Author  string `json:"author,omitempty"`
	Date    string `json:"date,omitempty"`
	URL     string `json:"url,omitempty"`
}

// FileHistory is the recent commit history of one file.
type FileHistory struct {
	models.Result
	Path    string   `json:"file_path"`
	Branch  string   `json:"branch"`
	Commits []Commit `json:"commits"`
}

const shortSHALen = 7

func shortSHA(sha string) string {
	if len(sha) > shortSHALen {
		return sha[:shortSHALen]
	}
	return sha
}

// GetFileHistory lists up to limit commits touching the file.
func (s *Service) GetFileHistory(ctx context.Context, path, branch string, limit int) (*FileHistory, error) {
	branch = s.branchOrDefault(branch)
	if limit <= 0 {
		limit = 10
	}
	commits, _, err := s.client.Repositories.ListCommits(ctx, s.owner, s.repo, &github.CommitsListOptions{
		Path:        path,
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("listing commits for %s: %w", path, err)
	}

	history := FileHistory{Result: models.OK(), Path: path, Branch: branch, Commits: []Commit{}}
	for i, c := range commits {
		if i >= limit {
			break
		}
		entry := Commit{
			SHA:     shortSHA(c.GetSHA()),
			Message: c.GetCommit().GetMessage(),
			URL:     c.GetHTMLURL(),
		}
		if author := c.GetCommit().GetAuthor(); author != nil {
			entry.Author = author.GetName()
			entry.Date = author.GetDate().UTC().Format(time.RFC3339)
		}
		history.Commits = append(history.Commits, entry)
	}
	return &history, nil
}

// RepoCreation reports a newly created repository.
type RepoCreation struct {
	models.Result
	Message  string `json:"message"`
	HTMLURL  string `json:"repository_url"`
	CloneURL string `json:"clone_url"`
	SSHURL   string `json:"ssh_url"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
}

// RepoOptions configures CreateRepository.
type RepoOptions struct {
	Name              string
	Description       string
	Private           bool
	Organization      string
	AutoInit          bool
	GitignoreTemplate string
	LicenseTemplate   string
}

// CreateRepository creates a repository under the organization, or the
// authenticated user when no organization is given.
func (s *Service) CreateRepository(ctx context.Context, opts RepoOptions) (*RepoCreation, error) {
	repo := &github.Repository{
		Name:              github.String(opts.Name),
		Private:           github.Bool(opts.Private),
		AutoInit:          github.Bool(opts.AutoInit),
		GitignoreTemplate: github.String(opts.GitignoreTemplate),
		LicenseTemplate:   github.String(opts.LicenseTemplate),
	}
	if opts.Description != "" {
		repo.Description = github.String(opts.Description)
	}

	created, _, err := s.client.Repositories.Create(ctx, opts.Organization, repo)
	if err != nil {
		return nil, fmt.Errorf("creating repository %s: %w", opts.Name, err)
	}
	return &RepoCreation{
		Result:   models.OK(),
		Message:  fmt.Sprintf("Repository %s created successfully", opts.Name),
		HTMLURL:  created.GetHTMLURL(),
		CloneURL: created.GetCloneURL(),
		SSHURL:   created.GetSSHURL(),
		FullName: created.GetFullName(),
		Private:  created.GetPrivate(),
	}, nil
}
