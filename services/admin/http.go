package admin

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/lingxiaoxu/Stanse-sub005/repos/gemini"
	"github.com/lingxiaoxu/Stanse-sub005/services/rankings"
)

// Router is the interface for a router.
type Router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

// Admin is the interface for the operator service.
type Admin interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	ImportQuestions(ctx context.Context, questions []QuestionImport) (int, error)
	ImportTickers(ctx context.Context, tickers []TickerImport) (int, error)
	GrantCredits(ctx context.Context, userID string, amount int64, note string) error
	CacheStats() gemini.CacheStats
	ClearCache(ctx context.Context) error
	CleanupCache(ctx context.Context) (int, error)
	UsageStats(ctx context.Context, userID, period string) (*gemini.UsageStats, error)
	ActiveAlerts(ctx context.Context) ([]gemini.Alert, error)
	ResolveAlert(ctx context.Context, alertID string) error
	StartRankingGeneration(persona string) error
	StartNewsSync()
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Admin

	// The router instance to configure the HTTP routes. It must already
	// carry the authentication middleware; RequireAdmin is added here.
	Router Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.Use(RequireAdmin(opts.Service))
	r.POST("/questions/import", h.importQuestionsHandler)
	r.POST("/tickers/import", h.importTickersHandler)
	r.POST("/credits/grant", h.grantCreditsHandler)
	r.GET("/cache/stats", h.cacheStatsHandler)
	r.POST("/cache/clear", h.clearCacheHandler)
	r.POST("/cache/cleanup", h.cleanupCacheHandler)
	r.GET("/usage/:user_id", h.usageStatsHandler)
	r.GET("/alerts", h.alertsHandler)
	r.POST("/alerts/:alert_id/resolve", h.resolveAlertHandler)
	r.POST("/rankings/generate", h.generateRankingsHandler)
	r.POST("/news/sync", h.newsSyncHandler)
}

// RequireAdmin rejects requests from users missing from the allow-list. It
// expects the authentication middleware to have run first.
func RequireAdmin(service Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.MustGet("token").(*auth.Token)

		ok, err := service.IsAdmin(c, token.UID)
		if err != nil {
			log.Printf("Could not check admin access: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": ErrNotAdmin.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}

type httpHandler struct {
	HTTPOptions
}

type importRequest struct {
	Questions []QuestionImport `json:"questions"`
}

func (h *httpHandler) importQuestionsHandler(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if len(req.Questions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no questions in payload"})
		c.Abort()
		return
	}

	imported, err := h.Service.ImportQuestions(c, req.Questions)
	if errors.Is(err, ErrInvalidQuestion) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if err != nil {
		log.Printf("Could not import questions: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong", "imported": imported})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

type tickerImportRequest struct {
	Tickers []TickerImport `json:"tickers"`
}

func (h *httpHandler) importTickersHandler(c *gin.Context) {
	var req tickerImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if len(req.Tickers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no tickers in payload"})
		c.Abort()
		return
	}

	imported, err := h.Service.ImportTickers(c, req.Tickers)
	if errors.Is(err, ErrInvalidTicker) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if err != nil {
		log.Printf("Could not import tickers: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong", "imported": imported})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

type grantRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (h *httpHandler) grantCreditsHandler(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if req.UserID == "" || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and a positive amount are required"})
		c.Abort()
		return
	}

	if err := h.Service.GrantCredits(c, req.UserID, req.Amount, req.Note); err != nil {
		log.Printf("Could not grant credits: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"granted": req.Amount, "userId": req.UserID})
}

func (h *httpHandler) cacheStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.CacheStats())
}

func (h *httpHandler) clearCacheHandler(c *gin.Context) {
	if err := h.Service.ClearCache(c); err != nil {
		log.Printf("Could not clear cache: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) cleanupCacheHandler(c *gin.Context) {
	removed, err := h.Service.CleanupCache(c)
	if err != nil {
		log.Printf("Could not clean up cache: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *httpHandler) usageStatsHandler(c *gin.Context) {
	period := c.DefaultQuery("period", "today")

	stats, err := h.Service.UsageStats(c, c.Param("user_id"), period)
	if err != nil {
		log.Printf("Could not get usage stats: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *httpHandler) alertsHandler(c *gin.Context) {
	alerts, err := h.Service.ActiveAlerts(c)
	if err != nil {
		log.Printf("Could not list alerts: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (h *httpHandler) resolveAlertHandler(c *gin.Context) {
	if err := h.Service.ResolveAlert(c, c.Param("alert_id")); err != nil {
		log.Printf("Could not resolve alert: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	c.Status(http.StatusNoContent)
}

type generateRequest struct {
	Persona string `json:"persona"`
}

func (h *httpHandler) generateRankingsHandler(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	if err := h.Service.StartRankingGeneration(req.Persona); err != nil {
		if errors.Is(err, rankings.ErrUnknownPersona) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		log.Printf("Could not start ranking generation: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "persona": req.Persona})
}

func (h *httpHandler) newsSyncHandler(c *gin.Context) {
	h.Service.StartNewsSync()
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}
