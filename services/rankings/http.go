package rankings

import (
	"context"
	"errors"
	"log"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/lingxiaoxu/Stanse-sub005/repos/gemini"
)

// Router is the interface for a router.
type Router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

// Rankings is the interface for the company rankings service.
type Rankings interface {
	GetRanking(ctx context.Context, persona string) (*Ranking, error)
	CompanyScore(ctx context.Context, userID, persona, ticker string) (*CompanyEntry, error)
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Rankings

	// The router instance to configure the HTTP routes. Rankings are public
	// reads.
	Router Router

	// The router for the on-demand scoring endpoint, which is metered per
	// user and so requires authentication.
	AuthedRouter Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	h := &httpHandler{opts}
	opts.Router.GET("/:persona", h.getRankingHandler)
	opts.AuthedRouter.POST("/score", h.scoreCompanyHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) getRankingHandler(c *gin.Context) {
	persona := c.Param("persona")

	ranking, err := h.Service.GetRanking(c, persona)
	if errors.Is(err, ErrUnknownPersona) || errors.Is(err, ErrRankingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if err != nil {
		log.Printf("Could not get ranking: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, ranking)
}

type scoreRequest struct {
	Persona string `json:"persona"`
	Ticker  string `json:"ticker"`
}

func (h *httpHandler) scoreCompanyHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if req.Persona == "" || req.Ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "persona and ticker are required"})
		c.Abort()
		return
	}

	entry, err := h.Service.CompanyScore(c, token.UID, req.Persona, req.Ticker)
	if errors.Is(err, ErrUnknownPersona) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if errors.Is(err, gemini.ErrBudgetExceeded) || errors.Is(err, gemini.ErrRequestLimit) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if err != nil {
		log.Printf("Could not score company: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, entry)
}
