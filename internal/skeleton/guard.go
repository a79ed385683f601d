package skeleton

import (
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/fs"
)

// destGuard owns the output directory for the duration of one provisioning
// run. On failure it leaves the filesystem as it found it: directories it
// created are removed, a pre-existing empty directory is emptied again.
type destGuard struct {
	fsys fs.FS
	dest string

	// removeRoot is the topmost ancestor of dest (or dest itself) that did
	// not exist when the guard was acquired. Empty when dest pre-existed.
	removeRoot string

	released bool
}

// acquireDest checks that dest is absent or an empty directory.
// Returns E_OUTPUT_DIR_NOT_EMPTY otherwise.
func acquireDest(fsys fs.FS, dest string) (*destGuard, error) {
	exists, empty, err := fs.DirState(fsys, dest)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EInternal, "failed to inspect output directory", err,
			map[string]string{"path": dest})
	}
	if exists && !empty {
		return nil, errors.NewWithDetails(errors.EOutputDirNotEmpty, "output directory already exists and is not empty",
			map[string]string{"path": dest, "hint": "choose a new directory or empty this one"})
	}

	g := &destGuard{fsys: fsys, dest: dest}
	if !exists {
		g.removeRoot = dest
		for parent := filepath.Dir(g.removeRoot); parent != g.removeRoot; parent = filepath.Dir(parent) {
			if _, err := fsys.Stat(parent); !os.IsNotExist(err) {
				break
			}
			g.removeRoot = parent
		}
	}
	return g, nil
}

// reset returns dest to the state it had when the guard was acquired.
func (g *destGuard) reset() error {
	if g.removeRoot != "" {
		return g.fsys.RemoveAll(g.removeRoot)
	}

	entries, err := g.fsys.ReadDir(g.dest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := g.fsys.RemoveAll(filepath.Join(g.dest, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// cleanup resets dest unless the guard was released.
func (g *destGuard) cleanup() error {
	if g.released {
		return nil
	}
	g.released = true
	return g.reset()
}

// release keeps whatever is in dest.
func (g *destGuard) release() {
	g.released = true
}
