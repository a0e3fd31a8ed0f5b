// File: cmd/loader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iyunix/go-triage/internal/app"
	"github.com/iyunix/go-triage/internal/config"
	"github.com/iyunix/go-triage/internal/services"
)

// Loads the symptom corpus into the configured vector index.
func main() {
	reset := flag.Bool("reset", false, "clear the index before loading")
	maxRows := flag.Int("max-rows", -1, "row cap (-1 uses CORPUS_MAX_ROWS, 0 loads everything)")
	path := flag.String("corpus", "", "corpus CSV path (default CORPUS_PATH)")
	flag.Parse()

	cfg := config.Load()
	if *maxRows >= 0 {
		cfg.CorpusMaxRows = *maxRows
	}
	if *path != "" {
		cfg.CorpusPath = *path
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, services.NewLoggerWithLevel("loader", cfg.Environment, cfg.LogLevel))
	if err != nil {
		log.Fatalf("Init failed: %v", err)
	}

	err = run(ctx, a, *reset, os.Stdout)
	if closeErr := a.Close(context.Background()); closeErr != nil {
		log.Printf("Close failed: %v", closeErr)
	}
	if err != nil {
		stop()
		log.Fatalf("Load failed: %v", err)
	}
}

func run(ctx context.Context, a *app.Application, reset bool, out io.Writer) error {
	report, err := a.LoadCorpus(ctx, reset)
	if err != nil {
		return err
	}

	count, err := a.Index.Count(ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}

	fmt.Fprintf(out, "index:    %s\n", a.Index.Name())
	fmt.Fprintf(out, "encoder:  %s\n", a.Encoder.ModelID())
	fmt.Fprintf(out, "skipped:  %t\n", report.Skipped)
	fmt.Fprintf(out, "inserted: %d\n", report.Inserted)
	fmt.Fprintf(out, "invalid:  %d\n", report.Invalid)
	fmt.Fprintf(out, "batches:  %d\n", report.Batches)
	fmt.Fprintf(out, "duration: %s\n", report.Duration)
	fmt.Fprintf(out, "records:  %d\n", count)
	return nil
}
