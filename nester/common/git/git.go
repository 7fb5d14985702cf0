// Package git answers the few repository questions usenest needs: where the
// repository root is and which files have uncommitted changes.
package git

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
)

// RepoRoot returns the root of the worktree containing path.
func RepoRoot(path string) (string, error) {
	wt, err := worktree(path)
	if err != nil {
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

// ChangedFiles returns the absolute paths of files in the worktree containing
// path that are untracked, modified or staged. Deleted files are left out.
func ChangedFiles(path string) ([]string, error) {
	wt, err := worktree(path)
	if err != nil {
		return nil, err
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}

	root := wt.Filesystem.Root()
	var files []string
	for file, s := range status {
		if s.Worktree == git.Deleted || s.Staging == git.Deleted {
			continue
		}
		if s.Worktree == git.Unmodified && s.Staging == git.Unmodified {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(file)))
	}
	sort.Strings(files)
	return files, nil
}

func worktree(path string) (*git.Worktree, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree at %s: %w", path, err)
	}
	return wt, nil
}
