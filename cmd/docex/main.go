// Command docex extracts text, links, images and tables from PDF, DOCX and
// PPTX files and stores them as JSON/CSV files or in an SQLite database.
//
// Usage:
//
//	docex [-storage file|sql] [-config docex.yaml] [-out dir] [-db path] [-workers n] [-v] file...
//
// Exit status is 0 when every file was extracted, even if some operations
// fell back or failed; 1 when any file could not be loaded or stored; 2 on
// a usage or configuration error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tsawler/docex"
	"github.com/tsawler/docex/config"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/sink"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("docex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagStorage = fs.String("storage", "", "storage backend: file or sql")
		flagConfig  = fs.String("config", "", "YAML configuration file")
		flagOut     = fs.String("out", "", "output directory for file storage")
		flagDB      = fs.String("db", "", "database path for sql storage")
		flagWorkers = fs.Int("workers", 0, "files processed in parallel")
		flagVerbose = fs.Bool("v", false, "debug logging")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: docex [flags] file...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg := config.Default()
	if *flagConfig != "" {
		c, err := config.Load(*flagConfig)
		if err != nil {
			fmt.Fprintf(stderr, "docex: %v\n", err)
			return exitUsage
		}
		cfg = c
	}
	// Flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "storage":
			cfg.Storage = *flagStorage
		case "out":
			cfg.OutputDir = *flagOut
		case "db":
			cfg.DBPath = *flagDB
		case "workers":
			cfg.Workers = *flagWorkers
		case "v":
			if *flagVerbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "docex: %v\n", err)
		return exitUsage
	}
	if cfg.Workers < 1 {
		fmt.Fprintf(stderr, "docex: workers must be at least 1, got %d\n", cfg.Workers)
		return exitUsage
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	kinds, _ := cfg.RecordKinds()
	storage, _ := sink.ParseStorage(cfg.Storage)

	s, err := sink.New(storage, cfg.Target())
	if err != nil {
		logger.Error("opening sink", "storage", cfg.Storage, "target", cfg.Target(), "err", err)
		return exitFatal
	}
	defer s.Close()

	x := docex.New(
		docex.WithLogger(logger),
		docex.WithSink(s),
		docex.WithKinds(kinds...),
		docex.WithMaxFileSize(cfg.MaxFileSize),
		docex.WithTableConfig(cfg.Tables),
	)
	results, err := x.ProcessAll(ctx, fs.Args(), cfg.Workers)
	if err != nil {
		logger.Error("interrupted", "err", err)
	}

	code := exitOK
	for _, r := range results {
		if r.Err != nil {
			code = exitFatal
			fmt.Fprintf(stderr, "%s: failed: %v\n", r.Path, r.Err)
			continue
		}
		summarize(stderr, r.Path, r.Bundle.Report)
	}
	return code
}

// summarize prints one line per file naming the operations that fell back
// or failed.
func summarize(w io.Writer, path string, rep model.Report) {
	if !rep.Partial() {
		fmt.Fprintf(w, "%s: ok\n", path)
		return
	}
	fmt.Fprintf(w, "%s: partial:", path)
	for _, op := range rep.Operations {
		if op.Outcome == model.OutcomeFallback || op.Outcome == model.OutcomeFailed {
			fmt.Fprintf(w, " %s=%s", op.Kind, op.Outcome)
		}
	}
	fmt.Fprintln(w)
}
