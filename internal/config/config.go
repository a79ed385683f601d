// Package config loads and validates the ppi configuration document.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/fs"
	"github.com/NielsdaWheelz/ppi/internal/paths"
)

// SkeletonSpec is a clonable template repository and the branch to check out.
// An empty Branch keeps the repository's default branch.
type SkeletonSpec struct {
	Name   string
	Source string
	Branch string
}

// ScriptSpec is an external program invoked verbatim.
type ScriptSpec struct {
	Name string
	Path string
}

// Config holds the two subcommand namespaces.
type Config struct {
	Skeletons map[string]SkeletonSpec
	Scripts   map[string]ScriptSpec

	// Path is the file the config was read from (empty for Parse).
	Path string
}

// SkeletonNames returns the skeleton names in sorted order.
func (c Config) SkeletonNames() []string {
	return sortedKeys(c.Skeletons)
}

// ScriptNames returns the script names in sorted order.
func (c Config) ScriptNames() []string {
	return sortedKeys(c.Scripts)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads and parses the config document at path.
// Returns E_CONFIG_MISSING if the file does not exist or cannot be read.
// Returns E_CONFIG_INVALID if the document is not valid TOML or an entry has the wrong shape.
// Does NOT check namespace disjointness; call Validate for that.
func Load(fsys fs.FS, path, homeDir string) (Config, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		details := map[string]string{
			"path": path,
			"hint": fmt.Sprintf("create one at %s or run 'ppi --init-config'", path),
		}
		if os.IsNotExist(err) {
			return Config{}, errors.NewWithDetails(errors.EConfigMissing, "config file not found", details)
		}
		return Config{}, errors.WrapWithDetails(errors.EConfigMissing, "failed to read config file", err, details)
	}

	cfg, err := Parse(data, homeDir)
	if err != nil {
		if pe, ok := errors.AsPpiError(err); ok && pe.Details == nil {
			pe.Details = map[string]string{"path": path}
		}
		return Config{}, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes a config document.
//
// Accepted shapes:
//
//	[subcommands.skeletons]
//	lib   = { source = "https://example/repo.git", branch = "main" }
//	tuple = ["https://example/other.git", "develop"]
//	bare  = "https://example/bare.git"
//
//	[subcommands.scripts]
//	fmt = "/usr/bin/true"
//	lint = { path = "~/bin/lint" }
//
// Missing tables yield empty mappings. A skeletons or scripts key that is not a
// table is logged and treated as empty. The patching table is accepted and ignored.
func Parse(data []byte, homeDir string) (Config, error) {
	var raw map[string]any
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Config{}, errors.Wrap(errors.EConfigInvalid, "invalid toml", err)
	}

	cfg := Config{
		Skeletons: map[string]SkeletonSpec{},
		Scripts:   map[string]ScriptSpec{},
	}

	if !meta.IsDefined("subcommands") {
		return cfg, nil
	}
	sub, ok := raw["subcommands"].(map[string]any)
	if !ok {
		log.Warn().Msg("config: subcommands is not a table; ignoring it")
		return cfg, nil
	}

	if meta.IsDefined("subcommands", "skeletons") {
		if table, ok := sectionTable(sub, "skeletons"); ok {
			for name, v := range table {
				spec, err := parseSkeleton(name, v)
				if err != nil {
					return Config{}, err
				}
				cfg.Skeletons[name] = spec
			}
		}
	}

	if meta.IsDefined("subcommands", "scripts") {
		if table, ok := sectionTable(sub, "scripts"); ok {
			for name, v := range table {
				spec, err := parseScript(name, v, homeDir)
				if err != nil {
					return Config{}, err
				}
				cfg.Scripts[name] = spec
			}
		}
	}

	return cfg, nil
}

func sectionTable(sub map[string]any, key string) (map[string]any, bool) {
	table, ok := sub[key].(map[string]any)
	if !ok {
		log.Warn().Str("section", "subcommands."+key).Msg("config: section is not a table; treating it as empty")
		return nil, false
	}
	return table, true
}

func parseSkeleton(name string, v any) (SkeletonSpec, error) {
	field := "subcommands.skeletons." + name
	spec := SkeletonSpec{Name: name}

	switch val := v.(type) {
	case string:
		spec.Source = val
	case []any:
		if len(val) != 2 {
			return SkeletonSpec{}, errors.New(errors.EConfigInvalid, field+" must be [source, branch]")
		}
		src, ok1 := val[0].(string)
		branch, ok2 := val[1].(string)
		if !ok1 || !ok2 {
			return SkeletonSpec{}, errors.New(errors.EConfigInvalid, field+" must be [source, branch] strings")
		}
		spec.Source, spec.Branch = src, branch
	case map[string]any:
		src, ok := val["source"].(string)
		if !ok {
			return SkeletonSpec{}, errors.New(errors.EConfigInvalid, field+".source must be a string")
		}
		spec.Source = src
		if rawBranch, present := val["branch"]; present {
			branch, ok := rawBranch.(string)
			if !ok {
				return SkeletonSpec{}, errors.New(errors.EConfigInvalid, field+".branch must be a string")
			}
			spec.Branch = branch
		}
	default:
		return SkeletonSpec{}, errors.New(errors.EConfigInvalid, field+" must be a string, a [source, branch] pair, or a table")
	}

	spec.Source = strings.TrimSpace(spec.Source)
	spec.Branch = strings.TrimSpace(spec.Branch)
	if spec.Source == "" {
		return SkeletonSpec{}, errors.New(errors.EConfigInvalid, field+" has an empty source")
	}
	return spec, nil
}

func parseScript(name string, v any, homeDir string) (ScriptSpec, error) {
	field := "subcommands.scripts." + name

	var path string
	switch val := v.(type) {
	case string:
		path = val
	case map[string]any:
		p, ok := val["path"].(string)
		if !ok {
			return ScriptSpec{}, errors.New(errors.EConfigInvalid, field+".path must be a string")
		}
		path = p
	default:
		return ScriptSpec{}, errors.New(errors.EConfigInvalid, field+" must be an executable path")
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return ScriptSpec{}, errors.New(errors.EConfigInvalid, field+" has an empty path")
	}
	return ScriptSpec{Name: name, Path: paths.ExpandHome(path, homeDir)}, nil
}
