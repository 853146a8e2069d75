package duel

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingxiaoxu/Stanse-sub005/services/credits"
)

// Router is the interface for a router.
type Router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

// Duels is the interface for the duel service.
type Duels interface {
	CreateMatch(c *gin.Context, req CreateMatchRequest) (*Match, error)
	JoinMatch(c *gin.Context, matchID string) (*Match, error)
	JoinByCode(c *gin.Context, code string) (*Match, error)
	GetMatch(c *gin.Context, matchID string) (*Match, error)
	ListOpenMatches(c *gin.Context) ([]Match, error)
	GetQuestions(c *gin.Context, matchID string) ([]Question, error)
	SubmitAnswer(c *gin.Context, matchID string, event Event) error
	Heartbeat(c *gin.Context, matchID string) error
	SettleMatch(c *gin.Context, matchID string) (*Match, error)
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Duels

	// The router instance to configure the HTTP routes.
	Router Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.POST("/matches", h.createMatchHandler)
	r.GET("/matches", h.openMatchesHandler)
	r.GET("/matches/:match_id", h.matchHandler)
	r.POST("/matches/:match_id/join", h.joinHandler)
	r.POST("/join", h.joinByCodeHandler)
	r.GET("/matches/:match_id/questions", h.questionsHandler)
	r.POST("/matches/:match_id/events", h.eventHandler)
	r.POST("/matches/:match_id/heartbeat", h.heartbeatHandler)
	r.POST("/matches/:match_id/settle", h.settleHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) createMatchHandler(c *gin.Context) {
	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	match, err := h.Service.CreateMatch(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

func (h *httpHandler) openMatchesHandler(c *gin.Context) {
	matches, err := h.Service.ListOpenMatches(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *httpHandler) matchHandler(c *gin.Context) {
	matchID := c.Param("match_id")

	match, err := h.Service.GetMatch(c, matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *httpHandler) joinHandler(c *gin.Context) {
	matchID := c.Param("match_id")

	match, err := h.Service.JoinMatch(c, matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *httpHandler) joinByCodeHandler(c *gin.Context) {
	var req JoinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	match, err := h.Service.JoinByCode(c, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *httpHandler) questionsHandler(c *gin.Context) {
	matchID := c.Param("match_id")

	questions, err := h.Service.GetQuestions(c, matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *httpHandler) eventHandler(c *gin.Context) {
	matchID := c.Param("match_id")

	var event Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	if err := h.Service.SubmitAnswer(c, matchID, event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Event registered",
	})
}

func (h *httpHandler) heartbeatHandler(c *gin.Context) {
	matchID := c.Param("match_id")

	if err := h.Service.Heartbeat(c, matchID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) settleHandler(c *gin.Context) {
	matchID := c.Param("match_id")

	match, err := h.Service.SettleMatch(c, matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// respondError maps service errors onto HTTP statuses. Anything unexpected
// stays a 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "something went wrong"

	switch {
	case errors.Is(err, ErrMatchNotFound):
		statusCode = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, ErrNotParticipant):
		statusCode = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, credits.ErrInsufficientCredits):
		statusCode = http.StatusPaymentRequired
		message = err.Error()
	case errors.Is(err, ErrInvalidEntryFee),
		errors.Is(err, ErrInvalidInviteCode),
		errors.Is(err, ErrNotEnoughQuestions):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ErrMatchNotJoinable),
		errors.Is(err, ErrMatchNotActive),
		errors.Is(err, ErrOwnMatch),
		errors.Is(err, ErrOrderSkip):
		statusCode = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrPresenceDisabled):
		statusCode = http.StatusServiceUnavailable
		message = err.Error()
	default:
		log.Printf("Could not handle duel request: %v\n", err)
	}

	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}
