// Command radiolens analyzes a single medical image and prints the
// diagnostic report to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"radiolens/internal/config"
	"radiolens/internal/imageprep"
	"radiolens/internal/report"
	"radiolens/internal/session"
	"radiolens/internal/vision"
)

func main() {
	sessionID := flag.String("session", "", "session id to append this result to")
	noHistory := flag.Bool("no-history", false, "skip recording the result in history")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: radiolens [flags] <image-path>")
		os.Exit(2)
	}
	imagePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	gemini, err := vision.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to initialize vision client: %v", err)
	}
	client := vision.Wrap(gemini,
		vision.Retry(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay),
		vision.RateLimit(cfg.Rate.RPS, cfg.Rate.Burst),
	)
	defer client.Close()

	pipeline := report.NewPipeline(client, imageprep.Options{
		TargetWidth: cfg.Prepare.TargetWidth,
		Grayscale:   cfg.Prepare.Grayscale,
		Contrast:    cfg.Prepare.Contrast,
		TempDir:     cfg.Prepare.TempDir,
	}, nil)

	res := pipeline.AnalyzeFile(ctx, imagePath)

	fmt.Println(res.Render())
	if res.OK() {
		fmt.Println()
		fmt.Println("Summary:", res.Summary)
	}

	if !*noHistory {
		history, err := session.NewStore(cfg.History.FilePath, cfg.History.PostgresDSN)
		if err != nil {
			log.Printf("history unavailable: %v", err)
			return
		}
		defer history.Close()
		rec := session.Record{
			RequestID: res.RequestID,
			SessionID: *sessionID,
			FileName:  filepath.Base(imagePath),
			Report:    res.Render(),
			Summary:   res.Summary,
			CreatedAt: time.Now().UTC(),
		}
		if !res.OK() {
			rec.Fault = string(res.Kind)
		}
		if err := history.Append(ctx, rec); err != nil {
			log.Printf("history append: %v", err)
		}
	}

	if !res.OK() {
		os.Exit(1)
	}
}
