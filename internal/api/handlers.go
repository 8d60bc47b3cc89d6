package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"menushock/internal/catalog"
	"menushock/internal/costmodel"
	"menushock/internal/history"
	"menushock/internal/models"
	"menushock/internal/parser"
	"menushock/internal/substitution"

	"github.com/gin-gonic/gin"
)

// AnalyzeRequest carries one structured event
type AnalyzeRequest struct {
	Event    models.EventEnvelope `json:"event"`
	Category string               `json:"category"`
	// SessionID, when set, appends the result to that session's history
	SessionID string `json:"session_id"`
}

// ChatRequest carries a free-text question
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
}

// WebhookRequest is a batch of events from a workflow tool
type WebhookRequest struct {
	Events    []models.EventEnvelope `json:"events" binding:"required,min=1,max=50"`
	Category  string                 `json:"category"`
	SessionID string                 `json:"session_id"`
}

// AnalyzeResponse is an analysis result plus where it was recorded
type AnalyzeResponse struct {
	*models.AnalysisResult
	SessionID string `json:"session_id,omitempty"`
	HistoryID string `json:"history_id,omitempty"`
}

// WebhookItem is the outcome of one event in a batch
type WebhookItem struct {
	Index  int                    `json:"index"`
	Status int                    `json:"status"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  gin.H                  `json:"error,omitempty"`
}

// run analyzes, records and broadcasts one event
func (a *API) run(c *gin.Context, ev models.Event, category, sessionID, query, source string) (*AnalyzeResponse, error) {
	result, err := a.engine.Analyze(c.Request.Context(), ev, category)
	if err != nil {
		return nil, err
	}
	a.monitor.RecordAnalysis(string(ev.Kind()), string(result.Risk.Tier), len(result.AffectedDishes))

	resp := &AnalyzeResponse{AnalysisResult: result, SessionID: sessionID}
	if sessionID != "" && a.history != nil {
		rec, err := a.history.Append(c.Request.Context(), sessionID, query, result)
		if err != nil {
			// the analysis itself succeeded
			a.logger.Warn("failed to record history", "session_id", sessionID, "error", err)
		} else {
			resp.HistoryID = rec.ID
		}
	}

	a.hub.Broadcast(StreamMessage{
		Type:      "analysis",
		Source:    source,
		SessionID: sessionID,
		Query:     query,
		Result:    result,
		Timestamp: time.Now().UTC(),
	})
	return resp, nil
}

// Analyze handles POST /api/v1/analyze
func (a *API) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := req.Event.Event()
	if err != nil {
		a.fail(c, err)
		return
	}
	resp, err := a.run(c, ev, req.Category, strings.TrimSpace(req.SessionID), "", "api")
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Chat handles POST /api/v1/chat: parse free text, then analyze it
func (a *API) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if a.parser == nil {
		a.fail(c, errParserDisabled)
		return
	}

	ev, err := a.parser.Parse(c.Request.Context(), req.Message)
	if err != nil {
		var malformed *models.MalformedEventError
		if errors.As(err, &malformed) {
			a.recordParse("malformed")
			a.fail(c, err)
			return
		}
		a.recordParse("error")
		a.logger.Warn("parser failed", "provider", a.parserLabel, "error", err)
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "parser unavailable", "detail": err.Error()})
		return
	}
	a.recordParse("ok")

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = history.NewSessionID()
	}
	resp, err := a.run(c, ev, req.Category, sessionID, req.Message, "chat")
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) recordParse(status string) {
	a.monitor.Increment("parse_" + status)
	if a.metrics != nil {
		a.metrics.RecordParse(a.parserLabel, status)
	}
}

// Webhook handles POST /api/v1/webhooks/analyze. Each event is answered on
// its own; one bad event does not fail the batch.
func (a *API) Webhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items := make([]WebhookItem, 0, len(req.Events))
	failed := 0
	for i, env := range req.Events {
		item := WebhookItem{Index: i, Status: http.StatusOK}
		ev, err := env.Event()
		if err == nil {
			var resp *AnalyzeResponse
			resp, err = a.run(c, ev, req.Category, strings.TrimSpace(req.SessionID), "", "webhook")
			if err == nil {
				item.Result = resp.AnalysisResult
			}
		}
		if err != nil {
			item.Status, item.Error = errorResponse(err)
			failed++
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "failed": failed})
}

// MenuCosts handles GET /api/v1/menu/costs
func (a *API) MenuCosts(c *gin.Context) {
	cat, err := a.engine.Catalog()
	if err != nil {
		a.fail(c, err)
		return
	}
	category := strings.TrimSpace(c.Query("category"))
	var dishes []costmodel.DishCost
	if category == "" {
		dishes = costmodel.Baseline(cat)
	} else {
		dishes = costmodel.CategoryBreakdown(cat, category)
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "dishes": dishes})
}

// ListIngredients handles GET /api/v1/ingredients
func (a *API) ListIngredients(c *gin.Context) {
	cat, err := a.engine.Catalog()
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": cat.Ingredients()})
}

// Substitutions handles GET /api/v1/ingredients/:id/substitutions, ranked on
// base costs with no event applied
func (a *API) Substitutions(c *gin.Context) {
	cat, err := a.engine.Catalog()
	if err != nil {
		a.fail(c, err)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	ing, found := cat.Ingredient(id)
	if !found {
		a.fail(c, &models.UnknownIngredientError{ID: id})
		return
	}
	category := strings.TrimSpace(c.Query("category"))
	keys := a.engine.Options().Recommender.Ranking().Baseline

	recs := []models.Recommendation{}
	for rec := range substitution.Recommend(costmodel.Base(cat), id, category, keys) {
		recs = append(recs, rec)
	}
	c.JSON(http.StatusOK, gin.H{"ingredient": ing, "category": category, "recommendations": recs})
}

func (a *API) requireHistory(c *gin.Context) bool {
	if a.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return false
	}
	return true
}

// GetHistory handles GET /api/v1/sessions/:id/history
func (a *API) GetHistory(c *gin.Context) {
	if !a.requireHistory(c) {
		return
	}
	sessionID := c.Param("id")
	entries, err := a.history.List(c.Request.Context(), sessionID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "entries": entries})
}

// ClearHistory handles DELETE /api/v1/sessions/:id/history
func (a *API) ClearHistory(c *gin.Context) {
	if !a.requireHistory(c) {
		return
	}
	sessionID := c.Param("id")
	n, err := a.history.Clear(c.Request.Context(), sessionID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "deleted": n})
}

// ExportHistory handles GET /api/v1/sessions/:id/history.csv
func (a *API) ExportHistory(c *gin.Context) {
	if !a.requireHistory(c) {
		return
	}
	sessionID := c.Param("id")
	var buf bytes.Buffer
	if err := a.history.ExportCSV(c.Request.Context(), sessionID, &buf); err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "menushock_history_"+sessionID+".csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Stats handles GET /api/v1/stats
func (a *API) Stats(c *gin.Context) {
	stats := a.monitor.GetMetrics()
	stats["stream_clients"] = a.hub.Clients()
	c.JSON(http.StatusOK, stats)
}

// Reload handles POST /api/v1/admin/reload. A failed reload keeps the
// previous catalog live.
func (a *API) Reload(c *gin.Context) {
	if a.reloader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reload is not configured"})
		return
	}
	cat, err := a.reloader.Reload(c.Request.Context())
	if err != nil {
		a.monitor.Increment("catalog_reload_failures")
		if a.metrics != nil {
			a.metrics.RecordReload(false, nil)
		}
		a.logger.Warn("catalog reload failed", "error", err)
		a.fail(c, err)
		return
	}
	a.CatalogLoaded(cat)
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "fingerprint": cat.Fingerprint(), "catalog": cat.Stats()})
}

// CatalogLoaded publishes a freshly loaded catalog to metrics and the parser
func (a *API) CatalogLoaded(cat *catalog.Catalog) {
	stats := cat.Stats()
	a.monitor.Increment("catalog_reloads")
	a.monitor.RecordMetric("catalog_fingerprint", cat.Fingerprint())
	a.monitor.RecordMetric("catalog_loaded_at", time.Now().UTC().Format(time.RFC3339))
	if a.metrics != nil {
		a.metrics.RecordReload(true, map[string]int{
			catalog.TableIngredients:   stats.Ingredients,
			catalog.TableMenu:          stats.MenuItems,
			catalog.TableBOM:           stats.BOMEntries,
			catalog.TableSubstitutions: stats.Substitutions,
		})
	}
	if lp, ok := a.parser.(*parser.LLMParser); ok {
		ids := make([]string, 0, stats.Ingredients)
		for _, ing := range cat.Ingredients() {
			ids = append(ids, ing.ID)
		}
		lp.SetKnownIngredients(ids)
	}
	a.logger.Info("catalog loaded",
		"fingerprint", cat.Fingerprint(),
		"ingredients", stats.Ingredients,
		"menu_items", stats.MenuItems,
	)
}
