// Package bootstrap wires configuration into the catalog, sentiment and usecase layers
// shared by the HTTP server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/config"
	"github.com/ecoreco/backend/internal/domain"
	"github.com/ecoreco/backend/internal/infrastructure/cache"
	"github.com/ecoreco/backend/internal/infrastructure/catalog"
	"github.com/ecoreco/backend/internal/infrastructure/sentiment"
	"github.com/ecoreco/backend/internal/observability"
	"github.com/ecoreco/backend/internal/usecase"
)

const (
	serviceName            = "ecoreco-backend"
	memoryCacheSweep       = 10 * time.Minute
	developmentEnvironment = "development"
)

// App is the assembled dependency graph
type App struct {
	Config          *config.Config
	Logger          zerolog.Logger
	Catalog         domain.CatalogGateway
	Sentiment       domain.SentimentGateway
	Search          *usecase.SearchService
	Recommendations *usecase.RecommendationService
	Ratings         *usecase.RatingService

	closers []io.Closer
}

// NewLogger builds the service logger from cfg.Log
func NewLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      out,
		ServiceName: serviceName,
	})
}

// New builds every dependency described by cfg. Close releases them.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	catalogGateway, err := app.newCatalog(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Catalog = catalogGateway

	sentimentGateway, err := app.newSentiment(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Sentiment = sentimentGateway

	profile := usecase.Profile(cfg.Search.Profile)
	app.Search = usecase.NewSearchService(catalogGateway, logger, usecase.SearchConfig{
		Mode:               domain.RankingMode(cfg.Search.Mode),
		Profile:            profile,
		SQLPrefilter:       cfg.Search.SQLPrefilter,
		MaxResults:         cfg.Search.MaxResults,
		EnableDebugLogging: cfg.Search.Debug,
	})
	app.Recommendations = usecase.NewRecommendationService(catalogGateway, logger, profile)
	app.Ratings = usecase.NewRatingService(catalogGateway, sentimentGateway, logger, usecase.RatingConfig{
		Timeout: cfg.Rating.Timeout,
	})

	logger.Info().
		Str("catalog", cfg.Database.Driver).
		Str("sentiment", cfg.Sentiment.Provider).
		Str("search_mode", cfg.Search.Mode).
		Str("profile", cfg.Search.Profile).
		Bool("sql_prefilter", cfg.Search.SQLPrefilter).
		Msg("dependencies initialised")

	return app, nil
}

func (a *App) newCatalog(ctx context.Context) (domain.CatalogGateway, error) {
	db := a.Config.Database

	switch db.Driver {
	case "postgres":
		pg, err := catalog.NewPostgresCatalog(ctx, catalog.PostgresConfig{
			URL:             db.URL,
			MaxOpenConns:    db.MaxOpenConns,
			MaxIdleConns:    db.MaxIdleConns,
			ConnMaxLifetime: db.ConnMaxLifetime,
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("postgres catalog: %w", err)
		}
		a.closers = append(a.closers, pg)
		return pg, nil

	case "memory":
		if db.SeedFile == "" {
			a.Logger.Warn().Msg("memory catalog started without seed file")
			return catalog.NewMemoryCatalog(nil, nil), nil
		}
		mem, err := catalog.LoadSeedFile(db.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("memory catalog: %w", err)
		}
		a.Logger.Info().Str("seed_file", db.SeedFile).Int("products", mem.Len()).Msg("memory catalog loaded")
		return mem, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}
}

func (a *App) newSentiment(ctx context.Context) (domain.SentimentGateway, error) {
	sc := a.Config.Sentiment

	switch sc.Provider {
	case "lexicon":
		return sentiment.NewLexiconAnalyzer(), nil

	case "http":
		client := sentiment.NewClient(sentiment.ClientConfig{
			BaseURL:           sc.BaseURL,
			APIKey:            sc.APIKey,
			Timeout:           sc.Timeout,
			RequestsPerSecond: sc.RequestsPerSecond,
			Burst:             sc.Burst,
			BreakerFailures:   sc.BreakerFailures,
			BreakerTimeout:    sc.BreakerTimeout,
		}, a.Logger)
		if a.Config.Server.Environment == developmentEnvironment {
			client.SetDebug(true)
		}

		repo, err := a.newCache(ctx)
		if err != nil {
			return nil, err
		}
		return sentiment.NewCachedAnalyzer(client, repo, a.Config.Cache.TTL, a.Logger), nil

	default:
		return nil, fmt.Errorf("unknown sentiment provider %q", sc.Provider)
	}
}

func (a *App) newCache(ctx context.Context) (domain.CacheRepository, error) {
	cc := a.Config.Cache

	switch cc.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cc.RedisURL, Prefix: cc.Prefix})
		if err != nil {
			return nil, fmt.Errorf("sentiment cache: %w", err)
		}
		a.closers = append(a.closers, rc)
		return rc, nil

	case "memory":
		mc := cache.NewMemoryCache(memoryCacheSweep)
		a.closers = append(a.closers, mc)
		return mc, nil

	default:
		return nil, fmt.Errorf("unknown cache type %q", cc.Type)
	}
}

// Close releases pools and background goroutines in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
