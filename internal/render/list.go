// Package render provides output formatting for ppi commands.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Subcommand kinds.
const (
	KindSkeleton = "skeleton"
	KindScript   = "script"
)

// Entry describes one configured subcommand in list output.
// This is the public contract for --list --json output.
type Entry struct {
	// Name is the subcommand name.
	Name string `json:"name"`

	// Kind is "skeleton" or "script".
	Kind string `json:"kind"`

	// Source is the repository location (skeletons only).
	Source string `json:"source,omitempty"`

	// Branch is the branch to check out (skeletons only; empty = default).
	Branch string `json:"branch,omitempty"`

	// Path is the executable path (scripts only).
	Path string `json:"path,omitempty"`
}

// Target returns the source for skeletons and the path for scripts.
func (e Entry) Target() string {
	if e.Kind == KindScript {
		return e.Path
	}
	return e.Source
}

// ListJSONEnvelope is the stable JSON output format for --list --json.
type ListJSONEnvelope struct {
	SchemaVersion string  `json:"schema_version"`
	Data          []Entry `json:"data"`
}

// WriteListJSON writes the entries as JSON to the given writer.
func WriteListJSON(w io.Writer, entries []Entry) error {
	env := ListJSONEnvelope{
		SchemaVersion: "1.0",
		Data:          entries,
	}
	// Use empty slice if nil for valid JSON array output
	if env.Data == nil {
		env.Data = []Entry{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// WriteListHuman writes the entries as whitespace-aligned columns.
// Nothing is written for an empty list.
func WriteListHuman(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	widths := columnWidths(entries)

	if _, err := fmt.Fprintln(w, formatRow(widths, "NAME", "KIND", "TARGET", "BRANCH")); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, formatRow(widths, e.Name, e.Kind, e.Target(), e.Branch)); err != nil {
			return err
		}
	}
	return nil
}

// colWidths holds the calculated column widths.
type colWidths struct {
	name   int
	kind   int
	target int
}

// columnWidths calculates the maximum width for each padded column.
func columnWidths(entries []Entry) colWidths {
	widths := colWidths{
		name:   len("NAME"),
		kind:   len("KIND"),
		target: len("TARGET"),
	}

	for _, e := range entries {
		widths.name = max(widths.name, len(e.Name))
		widths.kind = max(widths.kind, len(e.Kind))
		widths.target = max(widths.target, len(e.Target()))
	}

	return widths
}

// formatRow pads every column but the last.
func formatRow(w colWidths, name, kind, target, branch string) string {
	line := fmt.Sprintf("%-*s  %-*s  %-*s  %s", w.name, name, w.kind, kind, w.target, target, branch)
	return strings.TrimRight(line, " ")
}
