package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/targetkit/targetkit/core/broker"
	"github.com/targetkit/targetkit/core/selector"
)

func runList(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
	all := flags.BoolP("all", "a", false, "include disabled targets")
	verbosity := flags.CountP("verbose", "v", "increase detail (repeatable)")
	projection := flags.StringSlice("projection", nil, "only fetch the named attribute fields")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: targetctl list [flags] [expression ...]\n\n"+
			"Expressions filter on target keywords, e.g. 'type == \"qemu\" and not owner'.\n"+
			"Multiple expressions are ORed together.\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	spec, err := selector.Compile(flags.Args(), *all)
	if err != nil {
		return err
	}

	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.saveState(ctx)

	snapshot, err := c.cache.Refresh(ctx, *projection)
	if err != nil {
		return err
	}
	selected, err := selector.Select(snapshot.Targets(), spec)
	if err != nil {
		return err
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].FullID < selected[j].FullID })

	for _, t := range selected {
		if err := printTarget(t, *verbosity); err != nil {
			return err
		}
	}
	return nil
}

// printTarget renders one target at the requested verbosity: just the
// fullid with ownership markers, then owner details, then the whole
// attribute tree as indented JSON.
func printTarget(t *broker.Target, verbosity int) error {
	switch {
	case verbosity <= 0:
		fmt.Println(t.FullID + listMarkers(t))
	case verbosity == 1:
		line := t.FullID + " type:" + t.Type()
		if owner := t.Owner(); owner != "" {
			line += " owner:" + owner
		}
		if t.Powered() {
			line += " on"
		}
		if t.Disabled() {
			line += " disabled"
		}
		fmt.Println(line)
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{t.FullID: t.Attrs})
	}
	return nil
}

func listMarkers(t *broker.Target) string {
	markers := ""
	if t.Owner() != "" {
		markers += "@"
	}
	if t.Powered() {
		markers += "!"
	}
	return markers
}
