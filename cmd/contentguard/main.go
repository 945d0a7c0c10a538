package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/flight-search/contentguard/pkg/blocklist"
	"github.com/flight-search/contentguard/pkg/cache"
	"github.com/flight-search/contentguard/pkg/classifier"
	"github.com/flight-search/contentguard/pkg/config"
	handlers "github.com/flight-search/contentguard/pkg/handlers/http"
	"github.com/flight-search/contentguard/pkg/infra/logger"
	"github.com/flight-search/contentguard/pkg/pipeline"
	"github.com/flight-search/contentguard/pkg/policy"
	"github.com/flight-search/contentguard/pkg/scorer"
	"github.com/flight-search/contentguard/pkg/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	if err := config.Load("./config"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	logg := logger.NewLogger(cfg.Server.LogLevel)

	table, err := policy.LoadFile(cfg.Blocklist.PoliciesFile)
	if err != nil {
		logg.WithError(err).Fatal("failed to load policy table")
	}

	store := blocklist.NewStore(table.CategoryNames())
	snapshot, err := store.LoadFile(cfg.Blocklist.RulesFile)
	if err != nil {
		logg.WithError(err).Fatal("failed to load blocklist rules")
	}
	logg.WithField("rules", len(snapshot.Rules)).Info("blocklist rules loaded")

	var fetchCache *cache.Cache
	if cfg.Redis.Enabled {
		fetchCache, err = cache.NewCache(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logg.WithError(err).Fatal("failed to initialize cache")
		}
		defer fetchCache.Close()
	}

	domains := blocklist.NewDomainList(
		cfg.Blocklist.DomainListURLs,
		&http.Client{Timeout: cfg.Blocklist.FetchTimeout()},
		fetchCache,
		cfg.Blocklist.CacheTTL(),
		logg,
	)
	if err := domains.Start(ctx, cfg.Blocklist.RefreshInterval()); err != nil {
		logg.WithError(err).Warn("domain blocklists unavailable, continuing with rule matching only")
	}

	cl := buildClassifier(cfg, logg)

	sc := scorer.New(cl, table, scorer.Config{
		MinClassifierConfidence: cfg.Pipeline.MinClassifierConfidence,
		EducationalReduction:    cfg.Pipeline.EducationalReduction,
		MaxEditDistance:         cfg.Pipeline.MaxEditDistance,
	}, logg)

	router := policy.NewRouter(table)

	// The aggregation engine calls this service with pre-fetched results;
	// no aggregator client is wired here.
	pipe := pipeline.New(store, domains, sc, router, nil, pipeline.Config{
		ResultConcurrency: cfg.Pipeline.ResultConcurrency,
	}, logg)

	srv := server.New(
		cfg,
		logg,
		handlers.NewFilterHandler(logg, pipe),
		handlers.NewReloadHandler(logg, store, cfg.Blocklist.RulesFile),
	)

	go func() {
		if err := srv.Run(); err != nil {
			logg.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down")
	cancel()
	if err := srv.Shutdown(); err != nil {
		logg.WithError(err).Error("shutdown error")
	}
}

func buildClassifier(cfg *config.Config, logg *logrus.Logger) classifier.Classifier {
	switch strings.ToLower(cfg.Classifier.Provider) {
	case "", "none":
		return classifier.Noop{}
	case "openai":
		base := classifier.NewOpenAIClassifier(classifier.OpenAIConfig{
			APIKey:  cfg.Classifier.OpenAIKey,
			Model:   cfg.Classifier.Model,
			Timeout: cfg.Classifier.Timeout(),
		}, &http.Client{})
		return classifier.WithBreaker(base, classifier.BreakerConfig{
			MaxFailures:  cfg.Classifier.Breaker.MaxFailures,
			ResetTimeout: cfg.Classifier.Breaker.ResetTimeout(),
		})
	default:
		logg.Warnf("unknown classifier provider %q, running lexical-only", cfg.Classifier.Provider)
		return classifier.Noop{}
	}
}
