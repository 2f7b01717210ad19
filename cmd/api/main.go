package main

import (
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/http_server"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/localcache"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/observability"
	redisad "github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/redis"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/app"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/dispatch"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/llm"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/shared"
	mysqlrepo "github.com/Arthurkhan/star-gazer-analysis-sub000/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := localcache.NewLayered(
		localcache.New(cfg.CacheTTL()),
		redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB),
	)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL())

	// analysis pipeline
	disp := dispatch.New(dispatch.Options{
		Workers:     cfg.AIWorkers,
		TaskTimeout: time.Duration(cfg.AITimeoutSec) * time.Second,
	})
	defer disp.Close()

	factory := func(provider, model string) (llm.Provider, error) {
		if provider == "" {
			provider = cfg.AIProvider
		}
		if model == "" {
			model = cfg.AIModel
		}
		return llm.NewProvider(llm.Config{
			Provider:  provider,
			Model:     model,
			APIKey:    cfg.APIKeyFor(provider),
			Timeout:   cfg.AITimeoutSec,
			MaxTokens: cfg.AIMaxTokens,
		})
	}
	a := app.NewAnalysisService(repo, cache, disp, factory, cfg.AnalysisTTL())

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, A: a})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
