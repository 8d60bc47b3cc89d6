package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"menushock/internal/analysis"
	"menushock/internal/api"
	"menushock/internal/catalog"
	"menushock/internal/config"
	"menushock/internal/database"
	"menushock/internal/history"
	"menushock/internal/logger"
	"menushock/internal/monitoring"
	"menushock/internal/parser"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides server.port)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides server.metrics_port)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	checkOnly   = flag.Bool("check", false, "Validate the reference data and exit")
)

func main() {
	flag.Parse()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort > 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	l := logger.New(cfg.Log, os.Stdout)
	slog.SetDefault(l)
	gin.SetMode(gin.ReleaseMode)

	// Reference data
	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open reference data: %v", err)
	}
	defer closeSource()

	store := catalog.NewStore(src)
	cat, err := store.Reload(ctx)
	if err != nil {
		var invalid *catalog.ValidationError
		if errors.As(err, &invalid) {
			for _, v := range invalid.Violations {
				fmt.Fprintln(os.Stderr, v.String())
			}
		}
		log.Fatalf("Failed to load reference data from %s: %v", src.Describe(), err)
	}
	if *checkOnly {
		stats := cat.Stats()
		fmt.Printf("%s: ok (%d ingredients, %d menu items, %d bill of materials entries, %d substitution rules, fingerprint %s)\n",
			src.Describe(), stats.Ingredients, stats.MenuItems, stats.BOMEntries, stats.Substitutions, cat.Fingerprint())
		return
	}

	// History
	if err := database.InitDB(cfg.History.Dialect, cfg.History.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()
	sessions, err := history.NewStore(database.GetDB())
	if err != nil {
		log.Fatalf("Failed to initialize history: %v", err)
	}

	// Parser
	p, err := parser.New(cfg.Parser)
	if err != nil {
		log.Fatalf("Failed to initialize parser: %v", err)
	}
	if p == nil {
		l.Warn("free-text parsing disabled", "provider", cfg.Parser.Provider)
	}

	// Analysis engine
	opts, err := cfg.AnalysisOptions()
	if err != nil {
		log.Fatalf("Failed to build analysis options: %v", err)
	}
	metricsCollector := monitoring.NewMetricsCollector()
	engine := analysis.NewEngine(store, opts, cfg.Analysis.Cache, metricsCollector, l)

	server := api.New(api.Deps{
		Engine:        engine,
		Reloader:      store,
		History:       sessions,
		Parser:        p,
		Monitor:       monitoring.NewMonitor(),
		Metrics:       metricsCollector,
		Logger:        l,
		JWTSecret:     cfg.Auth.JWTSecret,
		CORSOrigins:   cfg.Server.CORSOrigins,
		ChatPerMinute: cfg.RateLimit.ChatPerMinute,
		ChatBurst:     cfg.RateLimit.Burst,
	})
	server.CatalogLoaded(cat)
	if cfg.Auth.JWTSecret == "" {
		l.Warn("JWT_SECRET not set, webhook and admin routes are open")
	}

	// Start metrics server
	var metricsServer *http.Server
	if cfg.Server.MetricsPort > 0 {
		metricsServer = startMetricsServer(cfg.Server.MetricsPort, metricsCollector, l)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		l.Info("Shutting down servers...")
		server.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			l.Error("API server shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				l.Error("Metrics server shutdown error", "error", err)
			}
		}

		cancel()
	}()

	l.Info("Starting API server",
		"port", cfg.Server.Port,
		"source", src.Describe(),
		"fingerprint", cat.Fingerprint(),
	)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
	<-ctx.Done()
}

// openSource picks the reference data source from config. The returned
// func releases whatever the source holds.
func openSource(ctx context.Context, cfg *config.Config) (catalog.Source, func(), error) {
	noop := func() {}
	switch cfg.Data.Source {
	case config.SourceDB:
		db, err := database.Open(cfg.Data.Database.Dialect, cfg.Data.Database.DSN)
		if err != nil {
			return nil, noop, err
		}
		return catalog.NewDBSource(db), func() { db.Close() }, nil
	case config.SourceS3:
		src, err := catalog.NewS3Source(ctx, cfg.Data.S3)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	}
	return catalog.NewDirSource(cfg.Data.Path), noop, nil
}

func startMetricsServer(port int, mc *monitoring.MetricsCollector, l *slog.Logger) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET("/metrics", gin.WrapH(mc.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	go func() {
		l.Info("Starting metrics server", "port", port)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			l.Error("Metrics server error", "error", err)
		}
	}()
	return metricsServer
}
