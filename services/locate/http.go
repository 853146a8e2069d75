package locate

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

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

// Locator is the interface for the geolocation service.
type Locator interface {
	AnalyzeArticle(ctx context.Context, userID, articleID string) (*GeoResult, error)
	AnalyzeText(ctx context.Context, userID, text string) (*GeoResult, error)
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Locator

	// The router instance to configure the HTTP routes.
	Router Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.POST("/analyze", h.analyzeHandler)
}

type httpHandler struct {
	HTTPOptions
}

type analyzeRequest struct {
	ArticleID string `json:"articleId"`
	Text      string `json:"text"`
}

func (h *httpHandler) analyzeHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	var (
		result *GeoResult
		err    error
	)
	switch {
	case req.ArticleID != "":
		result, err = h.Service.AnalyzeArticle(c, token.UID, req.ArticleID)
	case strings.TrimSpace(req.Text) != "":
		result, err = h.Service.AnalyzeText(c, token.UID, req.Text)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "articleId or text is required"})
		c.Abort()
		return
	}

	if errors.Is(err, ErrNoLocation) {
		c.JSON(http.StatusOK, gin.H{"located": false})
		return
	}
	if errors.Is(err, ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if errors.Is(err, gemini.ErrBudgetExceeded) || errors.Is(err, gemini.ErrRequestLimit) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		c.Abort()
		return
	}
	if err != nil {
		log.Printf("Could not analyze article: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	if result == nil {
		// Below the plot threshold; the article was marked, nothing to show.
		c.JSON(http.StatusOK, gin.H{"located": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"located": true, "location": result})
}
