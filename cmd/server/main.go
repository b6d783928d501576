package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wikifeeds-api/internal/api"
	"github.com/wikifeeds-api/internal/config"
	"github.com/wikifeeds-api/internal/database"
	"github.com/wikifeeds-api/internal/denylist"
	"github.com/wikifeeds-api/internal/mostread"
	"github.com/wikifeeds-api/internal/repository"
	"github.com/wikifeeds-api/internal/service"
	"github.com/wikifeeds-api/internal/siteinfo"
	"github.com/wikifeeds-api/internal/upstream"
	"github.com/wikifeeds-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting wikifeeds server...")

	// Built-in denylist, extended by an optional file
	baseList := denylist.Default()
	if cfg.Denylist.File != "" {
		fromFile, err := denylist.LoadFile(cfg.Denylist.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Denylist.File).Msg("Failed to load denylist file")
		}
		baseList = baseList.Merge(fromFile)
	}

	// Optional stored denylist
	var (
		source denylist.Source
		checks []api.HealthChecker
	)
	if cfg.Denylist.DBEnabled {
		store, err := database.OpenDenylistStore(context.Background(), &cfg.Database, cfg.Denylist.MigrationsPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open denylist store")
		}
		defer store.Close()

		repos := repository.New(store)
		source = repos.Denylist
		checks = append(checks, store)
	}

	denylistProvider := denylist.NewProvider(baseList, source, cfg.Denylist.RefreshInterval, log)
	if err := denylistProvider.Refresh(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Initial denylist refresh failed, serving built-in list")
	}
	go denylistProvider.Start(context.Background())
	log.Info().Int("entries", denylistProvider.Current().Len()).Msg("Denylist loaded")

	// Upstream clients
	client := upstream.NewClient(cfg.Upstream, log)
	pageviews := upstream.NewPageviewsClient(client, cfg.Upstream.PageviewsBaseURL)
	summaries := upstream.NewSummaryClient(client, cfg.Upstream.RESTBaseURLTemplate)
	siteInfoCache := siteinfo.NewCache(
		upstream.NewSiteInfoClient(client, cfg.Upstream.MWAPIURLTemplate),
		cfg.SiteInfo.CacheSize,
		cfg.SiteInfo.CacheTTL,
		cfg.Upstream.Timeout,
		log,
	)

	// Initialize services
	services, err := service.NewServices(mostread.Deps{
		Pageviews: pageviews,
		Summaries: summaries,
		SiteInfo:  siteInfoCache,
		Denylist:  denylistProvider,
	}, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log, checks...)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop denylist refresher
	denylistProvider.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
