package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/edgeboard/app/api"
	"github.com/lysyi3m/edgeboard/app/cfg"
	"github.com/lysyi3m/edgeboard/app/content"
	"github.com/lysyi3m/edgeboard/app/database"
	"github.com/lysyi3m/edgeboard/app/probe"
	"github.com/lysyi3m/edgeboard/app/render"
	"github.com/lysyi3m/edgeboard/app/site"
	"github.com/lysyi3m/edgeboard/app/theme"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting edgeboard", "version", appCfg.Version, "site_dir", appCfg.SiteDir, "content_origin", appCfg.ContentOrigin())

	// Database connection
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	prefRepo := database.NewPreferenceRepository(db)
	themes := theme.NewManager(theme.NewPreferenceStore(prefRepo), appCfg.ThemeKey)

	// Rendering pipeline
	httpClient := &http.Client{}
	origin := appCfg.ContentOrigin()

	renderer, err := render.NewRenderer()
	if err != nil {
		slog.Error("Failed to initialize renderer", "error", err)
		os.Exit(1)
	}

	loader := content.NewLoader(httpClient, origin, appCfg.UserAgent, appCfg.FetchTimeout)
	prober := probe.NewProber(
		probe.NewHTTPChecker(httpClient, origin, appCfg.UserAgent, appCfg.FetchTimeout),
		appCfg.ProbeMaxSlots, appCfg.ProbeMinSlots, appCfg.ProbeDeadStreak)

	pages := site.NewPageCache(appCfg.PagesDir)
	pipeline := site.NewPipeline(appCfg.SiteDir, pages, loader, renderer, prober, themes, appCfg.NewDropWindow)
	if appCfg.UnfurlLinks {
		pipeline.EnableUnfurling(content.NewUnfurler(loader, content.NewContentExtractor()))
		slog.Info("Link unfurling enabled")
	}
	if len(appCfg.CardRoutes) > 0 {
		pipeline.UseCardRoutes(appCfg.CardRoutes)
		slog.Info("Card routes overridden", "routes", appCfg.CardRoutes)
	}

	app := site.NewApp(pages, themes, pipeline)
	if err := app.Boot(); err != nil {
		slog.Error("Failed to boot site", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(appCfg.PagesDir); err == nil {
		go func() {
			if err := site.NewWatcher(pages, site.DefaultReloadDelay).Run(ctx); err != nil {
				slog.Warn("Page watcher stopped", "error", err)
			}
		}()
	} else {
		slog.Info("No pages directory, using built-in page definitions", "pages_dir", appCfg.PagesDir)
	}

	// HTTP server
	handler := api.NewHandler(app, prefRepo, appCfg.SiteDir)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "public_url", appCfg.PublicURL())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
