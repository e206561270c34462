// Command cachectl inspects and maintains the collector cache.
//
//	cachectl [-config path] stats
//	cachectl [-config path] purge [-days N]
//	cachectl [-config path] check
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	timeout := flag.Duration("timeout", 60*time.Second, "operation timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(fmt.Errorf("load configuration: %w", err))
	}
	cfg.Cache.Enabled = true

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Cache, nil)
	if err != nil {
		fail(fmt.Errorf("open cache: %w", err))
	}
	defer store.Close()

	if err := run(ctx, os.Stdout, store, cfg, flag.Args()); err != nil {
		fail(err)
	}
}

func run(ctx context.Context, out io.Writer, store *storage.Store, cfg *config.Config, args []string) error {
	switch args[0] {
	case "stats":
		return runStats(ctx, out, store)
	case "purge":
		fs := flag.NewFlagSet("purge", flag.ContinueOnError)
		days := fs.Int("days", int(cfg.Cache.PurgeAge/(24*time.Hour)), "remove entries cached more than N days ago")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *days <= 0 {
			return errors.New("-days must be positive")
		}
		return runPurge(ctx, out, store, time.Duration(*days)*24*time.Hour)
	case "check":
		return runCheck(ctx, out, store)
	default:
		return fmt.Errorf("unknown command %q (stats|purge|check)", args[0])
	}
}

func runStats(ctx context.Context, out io.Writer, store *storage.Store) error {
	st, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Fprintf(out, "backend: %s\n", st.Backend)
	names := make([]string, 0, len(st.Namespaces))
	for ns := range st.Namespaces {
		names = append(names, string(ns))
	}
	sort.Strings(names)
	for _, name := range names {
		ns := st.Namespaces[storage.Namespace(name)]
		fmt.Fprintf(out, "  %-12s %8d entries (%d expired)\n", name, ns.Entries, ns.Expired)
	}
	fmt.Fprintf(out, "total: %d\n", st.Total())
	return nil
}

func runPurge(ctx context.Context, out io.Writer, store *storage.Store, age time.Duration) error {
	res, err := store.PurgeOlderThan(ctx, age)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"cutoff":  res.Cutoff.Format(time.RFC3339),
		"removed": res.Removed,
		"total":   res.Total(),
	})
}

func runCheck(ctx context.Context, out io.Writer, store *storage.Store) error {
	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("cache unhealthy: %w", err)
	}
	fmt.Fprintf(out, "ok: %s reachable\n", store.Backend().Name())
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: cachectl [-config path] [-timeout d] <stats|purge [-days N]|check>\n")
	flag.PrintDefaults()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "cachectl:", err)
	os.Exit(1)
}
