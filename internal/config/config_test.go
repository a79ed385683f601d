package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/fs"
	"github.com/NielsdaWheelz/ppi/internal/testutil/testlog"
)

const home = "/home/testuser"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
[subcommands.skeletons]
lib = { source = "https://example/repo.git", branch = "main" }

[subcommands.scripts]
fmt = "/usr/bin/true"
`)

	cfg, err := Load(fs.NewRealFS(), path, home)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantSkel := SkeletonSpec{Name: "lib", Source: "https://example/repo.git", Branch: "main"}
	if got := cfg.Skeletons["lib"]; got != wantSkel {
		t.Errorf("skeleton = %+v, want %+v", got, wantSkel)
	}
	wantScript := ScriptSpec{Name: "fmt", Path: "/usr/bin/true"}
	if got := cfg.Scripts["fmt"]; got != wantScript {
		t.Errorf("script = %+v, want %+v", got, wantScript)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "config.toml")

	_, err := Load(fs.NewRealFS(), path, home)
	if errors.GetCode(err) != errors.EConfigMissing {
		t.Fatalf("code = %q, want %q", errors.GetCode(err), errors.EConfigMissing)
	}
	pe, _ := errors.AsPpiError(err)
	if pe.Details["path"] != path {
		t.Errorf("details[path] = %q, want %q", pe.Details["path"], path)
	}
	if !strings.Contains(pe.Details["hint"], "--init-config") {
		t.Errorf("hint = %q, want remediation mentioning --init-config", pe.Details["hint"])
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, "[subcommands.skeletons\nlib = ")

	_, err := Load(fs.NewRealFS(), path, home)
	if errors.GetCode(err) != errors.EConfigInvalid {
		t.Fatalf("code = %q, want %q", errors.GetCode(err), errors.EConfigInvalid)
	}
	pe, _ := errors.AsPpiError(err)
	if pe.Details["path"] != path {
		t.Errorf("details[path] = %q, want %q", pe.Details["path"], path)
	}
}

func TestParse_SkeletonForms(t *testing.T) {
	cfg, err := Parse([]byte(`
[subcommands.skeletons]
table = { source = "https://example/a.git", branch = "main" }
nobranch = { source = "https://example/b.git" }
tuple = ["https://example/c.git", "develop"]
bare = "https://example/d.git"
spaced = { source = "  https://example/e.git  ", branch = " trunk " }
`), home)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := map[string]SkeletonSpec{
		"table":    {Name: "table", Source: "https://example/a.git", Branch: "main"},
		"nobranch": {Name: "nobranch", Source: "https://example/b.git"},
		"tuple":    {Name: "tuple", Source: "https://example/c.git", Branch: "develop"},
		"bare":     {Name: "bare", Source: "https://example/d.git"},
		"spaced":   {Name: "spaced", Source: "https://example/e.git", Branch: "trunk"},
	}
	if !reflect.DeepEqual(cfg.Skeletons, want) {
		t.Errorf("skeletons = %+v, want %+v", cfg.Skeletons, want)
	}
}

func TestParse_ScriptForms(t *testing.T) {
	cfg, err := Parse([]byte(`
[subcommands.scripts]
fmt = "/usr/bin/true"
lint = { path = "~/bin/lint" }
`), home)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := map[string]ScriptSpec{
		"fmt":  {Name: "fmt", Path: "/usr/bin/true"},
		"lint": {Name: "lint", Path: filepath.Join(home, "bin", "lint")},
	}
	if !reflect.DeepEqual(cfg.Scripts, want) {
		t.Errorf("scripts = %+v, want %+v", cfg.Scripts, want)
	}
}

func TestParse_EmptyAndMissingSections(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", ""},
		{"only patching", "[patching]\nprefix = \"patches\"\n"},
		{"subcommands without sections", "[subcommands]\n"},
		{"scripts is not a table", "[subcommands]\nscripts = 5\n"},
		{"skeletons is not a table", "[subcommands]\nskeletons = \"nope\"\n"},
		{"subcommands is not a table", "subcommands = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc), home)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if cfg.Skeletons == nil || cfg.Scripts == nil {
				t.Fatal("maps should be non-nil")
			}
			if len(cfg.Skeletons) != 0 || len(cfg.Scripts) != 0 {
				t.Errorf("expected empty config, got %+v", cfg)
			}
		})
	}
}

func TestParse_InvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			"skeleton number",
			"[subcommands.skeletons]\nlib = 5\n",
			"subcommands.skeletons.lib",
		},
		{
			"skeleton table without source",
			"[subcommands.skeletons]\nlib = { branch = \"main\" }\n",
			"subcommands.skeletons.lib.source",
		},
		{
			"skeleton branch not string",
			"[subcommands.skeletons]\nlib = { source = \"x\", branch = 1 }\n",
			"subcommands.skeletons.lib.branch",
		},
		{
			"skeleton tuple wrong length",
			"[subcommands.skeletons]\nlib = [\"x\"]\n",
			"subcommands.skeletons.lib",
		},
		{
			"skeleton tuple wrong types",
			"[subcommands.skeletons]\nlib = [\"x\", 2]\n",
			"subcommands.skeletons.lib",
		},
		{
			"skeleton empty source",
			"[subcommands.skeletons]\nlib = \"  \"\n",
			"empty source",
		},
		{
			"script number",
			"[subcommands.scripts]\nfmt = 1\n",
			"subcommands.scripts.fmt",
		},
		{
			"script empty path",
			"[subcommands.scripts]\nfmt = \"\"\n",
			"empty path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), home)
			if errors.GetCode(err) != errors.EConfigInvalid {
				t.Fatalf("code = %q, want %q (err=%v)", errors.GetCode(err), errors.EConfigInvalid, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSortedNames(t *testing.T) {
	cfg := Config{
		Skeletons: map[string]SkeletonSpec{"web": {}, "api": {}, "lib": {}},
		Scripts:   map[string]ScriptSpec{"lint": {}, "fmt": {}},
	}
	if got := cfg.SkeletonNames(); !reflect.DeepEqual(got, []string{"api", "lib", "web"}) {
		t.Errorf("SkeletonNames() = %v", got)
	}
	if got := cfg.ScriptNames(); !reflect.DeepEqual(got, []string{"fmt", "lint"}) {
		t.Errorf("ScriptNames() = %v", got)
	}
}
