package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/scripturai/scriptura/internal/config"
	"github.com/scripturai/scriptura/internal/llm"
	"github.com/scripturai/scriptura/internal/scraper"
	"github.com/scripturai/scriptura/internal/store"
	"github.com/scripturai/scriptura/pkg/log"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println("Usage: scraper <kjv [--translate] | failed | cron>")
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("Failed to open verse store: %v", err)
	}
	defer db.Close()

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

	ledger, err := scraper.NewLedger(cfg.Scraper.StateDir)
	if err != nil {
		log.Fatal("Failed to open scraper ledger: %v", err)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "kjv":
		translate := len(os.Args) > 2 && os.Args[2] == "--translate"
		if err := runIngest(ctx, cfg, db, client, ledger, translate); err != nil {
			log.Fatal("Scrape failed: %v", err)
		}

	case "failed":
		pipeline := scraper.NewPipeline(db, client, ledger, scraper.WithBatchSize(cfg.Scraper.BatchSize))
		if err := pipeline.ProcessFailedTranslations(ctx); err != nil {
			log.Fatal("Failed-translation pass did not complete: %v", err)
		}
		log.Info("Failed-translation ledger cleared.")

	case "cron":
		runCron(ctx, cfg, db, client, ledger)

	default:
		fmt.Printf("Unknown commandline arg: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func runIngest(ctx context.Context, cfg *config.Config, db *store.SQLiteStore, client *llm.Client, ledger *scraper.Ledger, translate bool) error {
	version := "KJV"
	if translate {
		version = "AI"
	}
	pipeline := scraper.NewPipeline(db, client, ledger,
		scraper.WithBatchSize(cfg.Scraper.BatchSize),
		scraper.WithTranslation(translate),
	)
	source := scraper.NewGitHubSource(cfg.Scraper.SourceRepo)
	return scraper.NewJob(source, pipeline, version).Run(ctx)
}

var ingestGroup singleflight.Group

// runCron schedules the ingest on the configured cron expression. The
// singleflight group drops a tick that fires while the previous run is still
// going.
func runCron(ctx context.Context, cfg *config.Config, db *store.SQLiteStore, client *llm.Client, ledger *scraper.Ledger) {
	c := cron.New()
	_, err := c.AddFunc(cfg.Scraper.CronExpr, func() {
		_, _, _ = ingestGroup.Do("ingest", func() (any, error) {
			if err := runIngest(ctx, cfg, db, client, ledger, false); err != nil {
				log.Error("Scheduled scrape failed: %v", err)
			}
			return nil, nil
		})
	})
	if err != nil {
		log.Fatal("Invalid cron expression %q: %v", cfg.Scraper.CronExpr, err)
	}

	c.Start()
	log.Info("Scraper daemon started with schedule %q.", cfg.Scraper.CronExpr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	<-c.Stop().Done()
	log.Info("Scraper daemon stopped.")
}
