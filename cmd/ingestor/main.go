package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/observability"
	redisad "github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/redis"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/source"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/app"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/shared"
	mysqlrepo "github.com/Arthurkhan/star-gazer-analysis-sub000/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	datasets := cfg.Datasets()
	if len(datasets) == 0 {
		log.Fatal().Msg("BUSINESS_DATASETS is empty, nothing to ingest")
	}

	log.Info().
		Str("base", cfg.SourceBase).
		Int("workers", cfg.Workers).
		Int("reviews", cfg.ReviewCount).
		Int("businesses", len(datasets)).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := source.New(cfg.SourceBase, cfg.SourceToken, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review source client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(client, repo, cache)
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, d := range datasets {
		d := d

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(ds shared.Dataset) {
			defer wg.Done()
			defer sem.Release(int64(1))

			b := domain.Business{Name: ds.Name, DatasetID: ds.DatasetID}
			if err := ing.IngestBusiness(ctx, b, cfg.ReviewCount); err != nil {
				log.Warn().Str("business", ds.Name).Err(err).Msg("ingest failed")
				return
			}
			log.Info().Str("business", ds.Name).Msg("ingest ok")
		}(d)
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
