// Package vcs fetches the repositories builds run on.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrUnknownRevision is returned when a branch or tag does not exist in the
// fetched repository.
var ErrUnknownRevision = errors.New("unknown revision")

// GitSource is a remote repository.
type GitSource struct {
	URL string
}

// Name returns the project name of the repository: the last segment of its
// URL without a trailing ".git".
func (s GitSource) Name() string {
	return ProjectName(s.URL)
}

// ProjectName derives a project name from a repository URL.
func ProjectName(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, ":"); i >= 0 && !strings.Contains(trimmed[i:], "//") {
		trimmed = trimmed[i+1:]
	}
	name := strings.TrimSuffix(path.Base(trimmed), ".git")
	if name == "" || name == "." || name == "/" {
		return "project"
	}
	return name
}

// WorkingCopy is a checked out clone of a GitSource. Close removes it from
// disk.
type WorkingCopy struct {
	Dir string

	repo *git.Repository
}

// Fetch clones the repository into a new directory below root.
func (s GitSource) Fetch(ctx context.Context, root string) (*WorkingCopy, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(root, s.Name()+"-")
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: s.URL})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("clone %s: %w", s.URL, err)
	}
	return &WorkingCopy{Dir: dir, repo: repo}, nil
}

// CheckoutBranch checks out origin/<branch> on a local branch of the same
// name.
func (w *WorkingCopy) CheckoutBranch(branch string) error {
	remoteRef, err := w.repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("branch %s: %w", branch, ErrUnknownRevision)
	}

	localRef := plumbing.NewBranchReferenceName(branch)
	if err := w.repo.Storer.SetReference(plumbing.NewHashReference(localRef, remoteRef.Hash())); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return w.checkout(&git.CheckoutOptions{Branch: localRef, Force: true})
}

// CheckoutTag checks out the commit a tag points to, detached.
func (w *WorkingCopy) CheckoutTag(tag string) error {
	hash, err := w.repo.ResolveRevision(plumbing.Revision(plumbing.NewTagReferenceName(tag)))
	if err != nil {
		return fmt.Errorf("tag %s: %w", tag, ErrUnknownRevision)
	}
	return w.checkout(&git.CheckoutOptions{Hash: *hash, Force: true})
}

// Head returns the commit currently checked out.
func (w *WorkingCopy) Head() (string, error) {
	ref, err := w.repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

func (w *WorkingCopy) checkout(opts *git.CheckoutOptions) error {
	worktree, err := w.repo.Worktree()
	if err != nil {
		return err
	}
	if err := worktree.Checkout(opts); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return nil
}

// Path returns the directory of the working copy.
func (w *WorkingCopy) Path() string {
	return w.Dir
}

// Close removes the working copy.
func (w *WorkingCopy) Close() error {
	return os.RemoveAll(w.Dir)
}
