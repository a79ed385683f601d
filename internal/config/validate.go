package config

import (
	"sort"
	"strings"
	"unicode"

	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/fs"
)

// reservedNames cannot be used as subcommand names.
var reservedNames = map[string]bool{
	"help": true,
}

// Validate checks the namespaces before any command surface is built.
// Returns E_CONFIG_OVERLAP if a name is both a skeleton and a script.
// Returns E_CONFIG_INVALID if a name cannot be used as a subcommand.
func Validate(cfg Config) error {
	if overlap := Overlap(cfg); len(overlap) > 0 {
		return errors.NewWithDetails(errors.EConfigOverlap,
			"names defined as both skeleton and script: "+strings.Join(overlap, ", "),
			map[string]string{"hint": "rename one side so every subcommand name is unique"})
	}

	for _, name := range cfg.SkeletonNames() {
		if err := validateName("subcommands.skeletons", name); err != nil {
			return err
		}
	}
	for _, name := range cfg.ScriptNames() {
		if err := validateName("subcommands.scripts", name); err != nil {
			return err
		}
	}
	return nil
}

// Overlap returns the sorted intersection of skeleton and script names.
func Overlap(cfg Config) []string {
	var out []string
	for name := range cfg.Skeletons {
		if _, ok := cfg.Scripts[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func validateName(section, name string) error {
	switch {
	case name == "":
		return errors.New(errors.EConfigInvalid, section+" contains an empty name")
	case strings.HasPrefix(name, "-"):
		return errors.New(errors.EConfigInvalid, section+"."+name+": name must not start with '-'")
	case containsWhitespace(name):
		return errors.New(errors.EConfigInvalid, section+"."+name+": name must not contain whitespace")
	case reservedNames[name]:
		return errors.New(errors.EConfigInvalid, section+"."+name+": name is reserved")
	}
	return nil
}

func containsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

// LoadAndValidate is the primary entry point: load the document, then check
// the namespaces.
func LoadAndValidate(fsys fs.FS, path, homeDir string) (Config, error) {
	cfg, err := Load(fsys, path, homeDir)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
