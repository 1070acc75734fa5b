package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/scripturai/scriptura/internal/blob"
	"github.com/scripturai/scriptura/internal/config"
	"github.com/scripturai/scriptura/internal/content"
	"github.com/scripturai/scriptura/internal/httpapi"
	"github.com/scripturai/scriptura/internal/llm"
	"github.com/scripturai/scriptura/internal/store"
	"github.com/scripturai/scriptura/pkg/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("Failed to open verse store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	blobs, err := blob.Open(ctx, cfg.Storage.BlobBucketURL, cfg.Storage.BlobPublicURL)
	if err != nil {
		log.Fatal("Failed to open blob bucket: %v", err)
	}
	defer blobs.Close()

	client, err := llm.NewClient(&llm.Config{
		APIKey:         cfg.LLM.APIKey,
		APIURL:         cfg.LLM.APIURL,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		ImageModel:     cfg.LLM.ImageModel,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        cfg.LLM.Timeout,
		SiteURL:        cfg.LLM.SiteURL,
		AppName:        cfg.LLM.AppName,
	})
	if err != nil {
		log.Fatal("Failed to create LLM client: %v", err)
	}

	svc := content.NewService(db, db, client, blobs)
	server := httpapi.NewServer(cfg.Server.Addr, httpapi.NewHandler(svc, db))

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Fatal("HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown did not complete cleanly: %v", err)
	}
}
