// Package api exposes the menu shock analyses over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"menushock/internal/analysis"
	"menushock/internal/catalog"
	"menushock/internal/history"
	"menushock/internal/logger"
	"menushock/internal/monitoring"
	"menushock/internal/parser"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Reloader rebuilds the live catalog
type Reloader interface {
	Reload(ctx context.Context) (*catalog.Catalog, error)
}

// Deps wires the API to the rest of the service. Parser may be nil, which
// disables the chat endpoint.
type Deps struct {
	Engine   *analysis.Engine
	Reloader Reloader
	History  *history.Store
	Parser   parser.Parser
	Monitor  *monitoring.Monitor
	Metrics  *monitoring.MetricsCollector
	Logger   *slog.Logger

	JWTSecret     string
	CORSOrigins   []string
	ChatPerMinute int
	ChatBurst     int
}

// API serves the menu shock endpoints
type API struct {
	Router *gin.Engine

	engine   *analysis.Engine
	reloader Reloader
	history  *history.Store
	parser   parser.Parser
	monitor  *monitoring.Monitor
	metrics  *monitoring.MetricsCollector
	logger   *slog.Logger
	hub      *Hub

	jwtSecret   string
	chatLimits  *clientLimiter
	parserLabel string
}

// New builds the router and registers every route
func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Monitor == nil {
		d.Monitor = monitoring.NewMonitor()
	}

	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(d.Logger))
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(corsConfig(d.CORSOrigins)))
	}

	a := &API{
		Router:      router,
		engine:      d.Engine,
		reloader:    d.Reloader,
		history:     d.History,
		parser:      d.Parser,
		monitor:     d.Monitor,
		metrics:     d.Metrics,
		logger:      d.Logger,
		jwtSecret:   d.JWTSecret,
		chatLimits:  newClientLimiter(perMinute(d.ChatPerMinute), d.ChatBurst),
		parserLabel: parserLabel(d.Parser),
	}
	a.hub = NewHub(d.Logger, a.streamClients)

	a.setupRoutes()
	return a
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// perMinute turns a per-minute budget into a limiter rate; zero means no limit
func perMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}

func parserLabel(p parser.Parser) string {
	if lp, ok := p.(*parser.LLMParser); ok {
		return lp.Provider()
	}
	if p == nil {
		return parser.ProviderNone
	}
	return "custom"
}

func (a *API) setupRoutes() {
	a.Router.GET("/health", a.Health)

	v1 := a.Router.Group("/api/v1")
	{
		v1.POST("/analyze", a.Analyze)
		v1.POST("/chat", a.chatLimits.Middleware(), a.Chat)

		v1.GET("/menu/costs", a.MenuCosts)
		v1.GET("/ingredients", a.ListIngredients)
		v1.GET("/ingredients/:id/substitutions", a.Substitutions)

		v1.GET("/sessions/:id/history", a.GetHistory)
		v1.DELETE("/sessions/:id/history", a.ClearHistory)
		v1.GET("/sessions/:id/history.csv", a.ExportHistory)

		v1.GET("/stats", a.Stats)
		v1.GET("/stream", a.hub.ServeWS)

		guarded := v1.Group("", AuthMiddleware(a.jwtSecret))
		{
			guarded.POST("/webhooks/analyze", a.Webhook)
			guarded.POST("/admin/reload", a.Reload)
		}
	}
}

// Close disconnects stream clients
func (a *API) Close() {
	a.hub.Close()
}

func (a *API) streamClients(delta int) {
	if a.metrics != nil {
		a.metrics.StreamClients(delta)
	}
}

// Health reports whether a catalog is being served
func (a *API) Health(c *gin.Context) {
	cat, err := a.engine.Catalog()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"fingerprint": cat.Fingerprint(),
		"catalog":     cat.Stats(),
		"parser":      a.parserLabel,
	})
}
