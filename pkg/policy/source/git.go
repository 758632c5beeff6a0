package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"parapet-hq/parapet/pkg/policy/engine"
)

// GitConfig configures a Git-backed policy source.
type GitConfig struct {
	// URL is the repository clone URL.
	URL string

	// Branch to track. Required.
	Branch string

	// Subdir restricts loading to a directory inside the repository.
	// Empty loads from the repository root.
	Subdir string

	// LocalPath is where the working clone lives. Empty picks a directory
	// under the OS temp dir.
	LocalPath string

	// Token enables HTTP token auth for private repositories.
	Token string

	// Timeout bounds each clone and pull. Zero means 60s.
	Timeout time.Duration
}

// GitSource loads policy sets from a Git repository, stamping every set
// with the commit it was read at so audit records can name the exact
// policy revision that produced a decision.
type GitSource struct {
	cfg    GitConfig
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewGitSource creates a Git-backed source. Sync must be called before the
// first Load.
func NewGitSource(cfg GitConfig, logger *slog.Logger) (*GitSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("git source: repository URL required")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("git source: branch required")
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(os.TempDir(), "parapet-policies")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{cfg: cfg, logger: logger}, nil
}

func (s *GitSource) auth() transport.AuthMethod {
	if s.cfg.Token == "" {
		return nil
	}
	// Username is ignored by token-auth forges but must be non-empty.
	return &githttp.BasicAuth{Username: "token", Password: s.cfg.Token}
}

// Sync brings the local clone up to date with the tracked branch, cloning
// on first use. It reports whether HEAD moved.
func (s *GitSource) Sync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.repo == nil {
		if _, err := os.Stat(filepath.Join(s.cfg.LocalPath, ".git")); err == nil {
			repo, err := gogit.PlainOpen(s.cfg.LocalPath)
			if err != nil {
				return false, fmt.Errorf("open policy clone: %w", err)
			}
			s.repo = repo
		} else {
			repo, err := gogit.PlainCloneContext(ctx, s.cfg.LocalPath, false, &gogit.CloneOptions{
				URL:           s.cfg.URL,
				ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
				SingleBranch:  true,
				Auth:          s.auth(),
			})
			if err != nil {
				return false, fmt.Errorf("clone policy repository: %w", err)
			}
			s.repo = repo
			s.logger.Info("policy repository cloned",
				"url", s.cfg.URL,
				"branch", s.cfg.Branch,
				"path", s.cfg.LocalPath,
			)
			return true, nil
		}
	}

	head, err := s.repo.Head()
	if err != nil {
		return false, fmt.Errorf("read HEAD: %w", err)
	}
	before := head.Hash()

	wt, err := s.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("open worktree: %w", err)
	}
	err = wt.PullContext(ctx, &gogit.PullOptions{
		RemoteName: "origin",
		Auth:       s.auth(),
	})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return false, fmt.Errorf("pull policy repository: %w", err)
	}

	head, err = s.repo.Head()
	if err != nil {
		return false, fmt.Errorf("read HEAD after pull: %w", err)
	}
	moved := head.Hash() != before
	if moved {
		s.logger.Info("policy repository updated",
			"from", before.String(),
			"to", head.Hash().String(),
		)
	}
	return moved, nil
}

// Version returns the revision of the current clone.
func (s *GitSource) Version() (*engine.PolicyVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versionLocked()
}

func (s *GitSource) versionLocked() (*engine.PolicyVersion, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("git source: not synced")
	}
	head, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}
	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	return &engine.PolicyVersion{
		CommitSHA:  head.Hash().String(),
		CommitTime: commit.Author.When,
		Branch:     s.cfg.Branch,
		Repository: s.cfg.URL,
		Author:     commit.Author.Name,
	}, nil
}

// Load reads policy definitions from the current clone and stamps each set
// with the clone's revision.
func (s *GitSource) Load(ctx context.Context) ([]*engine.EndpointPolicySet, error) {
	s.mu.Lock()
	version, err := s.versionLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	dir := s.cfg.LocalPath
	if s.cfg.Subdir != "" {
		dir = filepath.Join(dir, s.cfg.Subdir)
	}

	sets, err := NewFileSource(dir, s.logger).Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		set.Version = version
	}
	return sets, nil
}

// Poll syncs the clone on a fixed interval and invokes onChange after each
// sync that moved HEAD. It blocks until the context is cancelled. Failed
// pulls are logged and retried next tick.
func (s *GitSource) Poll(ctx context.Context, interval time.Duration, onChange func() error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			moved, err := s.Sync(ctx)
			if err != nil {
				s.logger.Error("policy repository sync failed", "error", err)
				continue
			}
			if !moved {
				continue
			}
			if err := onChange(); err != nil {
				s.logger.Error("policy reload failed, keeping previous policies", "error", err)
			}
		}
	}
}
