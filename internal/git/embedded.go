package git

import (
	"context"
	stderrors "errors"
	"io"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/NielsdaWheelz/ppi/internal/errors"
)

// OriginRemote is the remote created by a clone.
const OriginRemote = "origin"

// Client is the embedded repository client. It is an interface so tests can
// force the clone to fail and exercise the CLI fallback.
type Client interface {
	Clone(ctx context.Context, source, dest string) (*gogit.Repository, error)
	Open(path string) (*gogit.Repository, error)
}

// GoGitClient is the production Client backed by go-git.
type GoGitClient struct {
	// Progress receives clone progress output (optional).
	Progress io.Writer
}

// NewGoGitClient creates a new GoGitClient.
func NewGoGitClient() *GoGitClient {
	return &GoGitClient{}
}

// Clone clones source into dest as a non-bare repository.
func (c *GoGitClient) Clone(ctx context.Context, source, dest string) (*gogit.Repository, error) {
	repo, err := gogit.PlainCloneContext(ctx, dest, false, &gogit.CloneOptions{
		URL:      source,
		Progress: c.Progress,
	})
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EEmbeddedClient, "embedded clone failed", err,
			map[string]string{"source": source, "dest": dest})
	}
	return repo, nil
}

// Open opens the repository at path.
func (c *GoGitClient) Open(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EEmbeddedClient, "failed to open repository", err,
			map[string]string{"path": path})
	}
	return repo, nil
}

// DeleteRemote removes the named remote, the upstream settings of every
// branch that tracked it, and every remote-tracking reference under
// refs/remotes/<name>/. A missing remote is not an error.
func DeleteRemote(repo *gogit.Repository, name string) error {
	if err := repo.DeleteRemote(name); err != nil && !stderrors.Is(err, gogit.ErrRemoteNotFound) {
		return errors.WrapWithDetails(errors.EEmbeddedClient, "failed to delete remote", err,
			map[string]string{"remote": name})
	}
	if err := dropUpstreams(repo, name); err != nil {
		return err
	}

	refs, err := repo.References()
	if err != nil {
		return errors.Wrap(errors.EEmbeddedClient, "failed to list references", err)
	}
	prefix := "refs/remotes/" + name + "/"
	var stale []plumbing.ReferenceName
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().String(), prefix) {
			stale = append(stale, ref.Name())
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.EEmbeddedClient, "failed to list references", err)
	}
	for _, refName := range stale {
		if err := repo.Storer.RemoveReference(refName); err != nil {
			return errors.WrapWithDetails(errors.EEmbeddedClient, "failed to remove remote-tracking reference", err,
				map[string]string{"ref": refName.String()})
		}
	}
	return nil
}

// dropUpstreams clears branch.<b>.remote and branch.<b>.merge for branches
// tracking remote. A branch section left with no other settings is removed.
func dropUpstreams(repo *gogit.Repository, remote string) error {
	cfg, err := repo.Config()
	if err != nil {
		return errors.Wrap(errors.EEmbeddedClient, "failed to read repository config", err)
	}
	changed := false
	for key, b := range cfg.Branches {
		if b.Remote != remote {
			continue
		}
		changed = true
		if b.Rebase == "" && b.Description == "" {
			delete(cfg.Branches, key)
			continue
		}
		b.Remote = ""
		b.Merge = ""
	}
	if !changed {
		return nil
	}
	if err := repo.Storer.SetConfig(cfg); err != nil {
		return errors.WrapWithDetails(errors.EEmbeddedClient, "failed to write repository config", err,
			map[string]string{"remote": remote})
	}
	return nil
}

// Upstreams returns the branches whose upstream is remote, sorted.
func Upstreams(repo *gogit.Repository, remote string) ([]string, error) {
	cfg, err := repo.Config()
	if err != nil {
		return nil, errors.Wrap(errors.EEmbeddedClient, "failed to read repository config", err)
	}
	var names []string
	for key, b := range cfg.Branches {
		if b.Remote == remote {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasRemote reports whether the repository has a remote called name.
func HasRemote(repo *gogit.Repository, name string) (bool, error) {
	_, err := repo.Remote(name)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, gogit.ErrRemoteNotFound) {
		return false, nil
	}
	return false, errors.Wrap(errors.EEmbeddedClient, "failed to look up remote", err)
}

// OldestCommit walks history from HEAD ordered by committer time and returns
// the oldest reachable commit.
// Returns E_EMPTY_SKELETON if HEAD does not resolve to a commit.
func OldestCommit(repo *gogit.Repository) (plumbing.Hash, error) {
	head, err := repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, errors.New(errors.EEmptySkeleton, "skeleton repository has no commits")
		}
		return plumbing.ZeroHash, errors.Wrap(errors.EEmbeddedClient, "failed to resolve HEAD", err)
	}

	iter, err := repo.Log(&gogit.LogOptions{From: head.Hash(), Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return plumbing.ZeroHash, errors.Wrap(errors.EEmbeddedClient, "failed to walk history", err)
	}
	defer iter.Close()

	oldest := plumbing.ZeroHash
	for {
		c, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return plumbing.ZeroHash, errors.Wrap(errors.EEmbeddedClient, "failed to walk history", err)
		}
		oldest = c.Hash
	}
	if oldest.IsZero() {
		return plumbing.ZeroHash, errors.New(errors.EEmptySkeleton, "skeleton repository has no commits")
	}
	return oldest, nil
}
