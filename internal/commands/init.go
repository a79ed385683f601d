// Package commands implements the root-level ppi actions.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/fs"
	"github.com/NielsdaWheelz/ppi/internal/scaffold"
)

// InitConfigOpts holds options for --init-config.
type InitConfigOpts struct {
	Force bool
}

// InitConfigResult holds the result of --init-config for output formatting.
type InitConfigResult struct {
	ConfigPath  string
	ConfigState string // "created" or "overwritten"
}

// InitConfig writes the starter configuration to path.
// An existing file is only replaced when opts.Force is set.
func InitConfig(fsys fs.FS, path string, opts InitConfigOpts, stdout io.Writer) error {
	_, err := fsys.Stat(path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return errors.WrapWithDetails(errors.EInternal, "failed to check config file", err,
			map[string]string{"path": path})
	}

	if exists && !opts.Force {
		return errors.NewWithDetails(errors.EConfigExists, "config file already exists",
			map[string]string{"path": path, "hint": "use --force to overwrite"})
	}

	state := "created"
	if exists {
		state = "overwritten"
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithDetails(errors.EInternal, "failed to create config directory", err,
			map[string]string{"path": filepath.Dir(path)})
	}
	if err := fs.WriteFileAtomic(fsys, path, []byte(scaffold.ConfigTemplate), 0o644); err != nil {
		return errors.WrapWithDetails(errors.EInternal, "failed to write config file", err,
			map[string]string{"path": path})
	}

	writeInitConfigOutput(stdout, InitConfigResult{ConfigPath: path, ConfigState: state})
	return nil
}

// writeInitConfigOutput writes the stable key: value output for --init-config.
func writeInitConfigOutput(w io.Writer, r InitConfigResult) {
	fmt.Fprintf(w, "config_path: %s\n", r.ConfigPath)
	fmt.Fprintf(w, "config: %s\n", r.ConfigState)
}
