package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"radiolens/internal/config"
	"radiolens/internal/imageprep"
	"radiolens/internal/report"
	"radiolens/internal/server"
	"radiolens/internal/session"
	"radiolens/internal/vision"
)

func main() {
	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	gemini, err := vision.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to initialize vision client: %v", err)
	}
	// Each retry attempt consumes its own rate-limit token.
	client := vision.Wrap(gemini,
		vision.WithLogging(nil),
		vision.Retry(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay),
		vision.RateLimit(cfg.Rate.RPS, cfg.Rate.Burst),
	)
	defer client.Close()

	cache, err := report.NewCache(cfg.Cache.Entries, cfg.Cache.TTL)
	if err != nil {
		log.Fatalf("Failed to initialize report cache: %v", err)
	}

	pipeline := report.NewPipeline(client, imageprep.Options{
		TargetWidth: cfg.Prepare.TargetWidth,
		Grayscale:   cfg.Prepare.Grayscale,
		Contrast:    cfg.Prepare.Contrast,
		TempDir:     cfg.Prepare.TempDir,
	}, cache)

	history, err := session.NewStore(cfg.History.FilePath, cfg.History.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to initialize history store: %v", err)
	}
	defer history.Close()

	var archive *session.Archive
	if cfg.Archive.Enabled {
		archive, err = session.NewArchive(session.ArchiveConfig{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize report archive: %v", err)
		}
	}

	mux := server.NewMux(&server.Handler{
		Pipeline: pipeline,
		History:  history,
		Archive:  archive,
	})
	srv := server.New(*port, mux)

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
