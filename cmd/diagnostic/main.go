// File: cmd/diagnostic/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/iyunix/go-triage/internal/app"
	"github.com/iyunix/go-triage/internal/config"
	"github.com/iyunix/go-triage/internal/services"
)

// Runs one symptom query through every stage and prints timings.
func main() {
	query := flag.String("query", "throbbing headache with nausea and sensitivity to light", "symptom text")
	topK := flag.Int("top-k", 0, "number of diseases (0 uses DETECT_TOP_K)")
	skipLLM := flag.Bool("skip-llm", false, "stop after disease detection")
	flag.Parse()

	cfg := config.Load()
	if *topK <= 0 {
		*topK = cfg.DetectTopK
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	started := time.Now()
	a, err := app.New(ctx, cfg, services.NewLoggerWithLevel("diagnostic", cfg.Environment, cfg.LogLevel))
	if err != nil {
		log.Fatalf("Init failed: %v", err)
	}
	err = run(ctx, a, cfg, *query, *topK, *skipLLM, started)
	if closeErr := a.Close(context.Background()); closeErr != nil {
		log.Printf("Close failed: %v", closeErr)
	}
	if err != nil {
		cancel()
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, a *app.Application, cfg *config.Config, query string, topK int, skipLLM bool, started time.Time) error {
	fmt.Printf("init         %8s  encoder=%s index=%s llm=%s\n", since(started), a.Encoder.ModelID(), a.Index.Name(), cfg.LLMBackend)

	started = time.Now()
	n, err := a.Index.Count(ctx)
	if err != nil {
		return fmt.Errorf("index count failed: %w", err)
	}
	fmt.Printf("count        %8s  records=%d\n", since(started), n)
	if n == 0 {
		return errors.New("index is empty; run cmd/loader first")
	}

	if a.Provider != nil {
		started = time.Now()
		err := a.Provider.HealthCheck(ctx)
		fmt.Printf("llm health   %8s  err=%v\n", since(started), err)
	}

	started = time.Now()
	vec, err := a.Encoder.Encode(ctx, query)
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}
	fmt.Printf("encode       %8s  dim=%d\n", since(started), len(vec))

	started = time.Now()
	matches, err := a.Index.Query(ctx, vec, topK)
	if err != nil {
		return fmt.Errorf("index query failed: %w", err)
	}
	fmt.Printf("index query  %8s  matches=%d\n", since(started), len(matches))
	for i, m := range matches {
		fmt.Printf("  %d. %-30s distance=%.4f  %q\n", i+1, m.Disease, m.Distance, m.SymptomText)
	}

	started = time.Now()
	diseases, err := a.Detector.Detect(ctx, query, topK)
	if err != nil {
		return fmt.Errorf("detect failed: %w", err)
	}
	fmt.Printf("detect       %8s  diseases=%d\n", since(started), len(diseases))
	names := make([]string, len(diseases))
	for i, d := range diseases {
		names[i] = d.Disease
		fmt.Printf("  %d. %-30s %6.2f\n", i+1, d.Disease, d.Confidence)
	}

	if skipLLM || len(names) == 0 {
		return nil
	}

	started = time.Now()
	resolutions := a.Resolver.Resolve(ctx, names)
	fmt.Printf("resolve      %8s\n", since(started))
	for _, r := range resolutions {
		if r.Err != nil {
			fmt.Printf("  %-30s ERROR %v\n", r.Disease, r.Err)
			continue
		}
		fmt.Printf("  %-30s -> %-25s proposals=%q\n", r.Disease, r.Department, r.Proposals)
	}
	return nil
}

func since(t time.Time) string {
	return time.Since(t).Round(time.Millisecond).String()
}
