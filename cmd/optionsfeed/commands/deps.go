package commands

import (
	"fmt"

	"github.com/DevMandalia/direction-sky-ingest/internal/external/polygon"
	"github.com/DevMandalia/direction-sky-ingest/internal/marketcal"
	"github.com/DevMandalia/direction-sky-ingest/internal/pipeline"
	"github.com/DevMandalia/direction-sky-ingest/internal/store"
	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
	"github.com/DevMandalia/direction-sky-ingest/pkg/database"
	"github.com/DevMandalia/direction-sky-ingest/pkg/httputil"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
	"github.com/DevMandalia/direction-sky-ingest/pkg/redis"
)

// deps is the wired object graph shared by the serving commands.
type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	pipeline *pipeline.Pipeline
}

// buildDeps wires config, logging, storage, the provider client, and the
// pipeline. Callers must invoke close when done.
func buildDeps() (*deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateFetch(); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// Redis is optional; a disabled client degrades caching and rate
	// limiting to pass-through.
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		redisClient = nil
	}

	var cache *redis.Cache
	httpClient := httputil.New(cfg, log)
	if redisClient != nil {
		cache = redis.NewCache(redisClient, "optionsfeed")
		httpClient = httpClient.WithRateLimiter(
			redis.NewRateLimiter(redisClient, "optionsfeed"), redis.PolygonRateLimit)
	}

	fetcher := polygon.NewClient(cfg, log, httpClient)
	cal := marketcal.New(cfg.Market.Timezone)
	snapStore := store.New(db, cfg, log)

	d := &deps{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		pipeline: pipeline.New(cfg, log, cal, fetcher, snapStore, cache),
	}

	cleanup := func() {
		db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	return d, cleanup, nil
}
