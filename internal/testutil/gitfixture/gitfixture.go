// Package gitfixture builds throwaway git repositories for tests.
package gitfixture

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultBranch is the branch NewRepo commits to.
const DefaultBranch = "main"

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// RequireGit skips the test when the git CLI is unavailable and sets a
// commit identity so `git commit` works on machines without a global config.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
	t.Setenv("GIT_AUTHOR_NAME", "ppi test")
	t.Setenv("GIT_AUTHOR_EMAIL", "ppi@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "ppi test")
	t.Setenv("GIT_COMMITTER_EMAIL", "ppi@example.com")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

// NewRepo creates a repository in a temp dir with commits commits on
// DefaultBranch. Commit i writes file<i>.txt, one hour after commit i-1.
func NewRepo(t *testing.T, commits int) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch)},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	for i := 0; i < commits; i++ {
		commitFile(t, repo, dir, fmt.Sprintf("file%d.txt", i), fmt.Sprintf("commit %d", i), base.Add(time.Duration(i)*time.Hour))
	}
	return dir
}

// AddBranch creates branch from the current HEAD, adds commits to it, and
// switches back to DefaultBranch.
func AddBranch(t *testing.T, dir, branch string, commits int) {
	t.Helper()
	repo := open(t, dir)
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch), Create: true}); err != nil {
		t.Fatalf("create branch %s: %v", branch, err)
	}
	for i := 0; i < commits; i++ {
		when := base.Add(time.Duration(100+i) * time.Hour)
		commitFile(t, repo, dir, fmt.Sprintf("%s%d.txt", branch, i), fmt.Sprintf("%s commit %d", branch, i), when)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(DefaultBranch)}); err != nil {
		t.Fatalf("checkout %s: %v", DefaultBranch, err)
	}
}

// CommitCount counts commits reachable from HEAD.
func CommitCount(t *testing.T, dir string) int {
	t.Helper()
	repo := open(t, dir)
	iter, err := repo.Log(&gogit.LogOptions{})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	defer iter.Close()
	n := 0
	for {
		_, err := iter.Next()
		if err == io.EOF {
			return n
		}
		if err != nil {
			t.Fatalf("log: %v", err)
		}
		n++
	}
}

// HeadMessage returns the message of the HEAD commit.
func HeadMessage(t *testing.T, dir string) string {
	t.Helper()
	repo := open(t, dir)
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	c, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("commit object: %v", err)
	}
	return c.Message
}

func open(t *testing.T, dir string) *gogit.Repository {
	t.Helper()
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		t.Fatalf("open %s: %v", dir, err)
	}
	return repo
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, msg string, when time.Time) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(msg+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	sig := &object.Signature{Name: "skeleton author", Email: "author@example.com", When: when}
	if _, err := wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("commit %s: %v", msg, err)
	}
}
