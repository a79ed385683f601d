package commands

import (
	"io"
	"sort"

	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/render"
)

// ListOpts holds options for --list.
type ListOpts struct {
	JSON bool
}

// List prints every configured subcommand sorted by name.
func List(cfg config.Config, opts ListOpts, stdout io.Writer) error {
	entries := make([]render.Entry, 0, len(cfg.Skeletons)+len(cfg.Scripts))
	for _, s := range cfg.Skeletons {
		entries = append(entries, render.Entry{Name: s.Name, Kind: render.KindSkeleton, Source: s.Source, Branch: s.Branch})
	}
	for _, s := range cfg.Scripts {
		entries = append(entries, render.Entry{Name: s.Name, Kind: render.KindScript, Path: s.Path})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	if opts.JSON {
		return render.WriteListJSON(stdout, entries)
	}
	return render.WriteListHuman(stdout, entries)
}
