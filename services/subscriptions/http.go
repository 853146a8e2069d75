package subscriptions

import (
	"context"
	"errors"
	"log"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// Router is the interface for a router.
type Router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

// Subscriptions is the interface for the subscriptions service.
type Subscriptions interface {
	StartTrial(ctx context.Context, userID string) (*Status, error)
	Subscribe(ctx context.Context, userID, plan string) (*Status, error)
	CancelAutoRenew(ctx context.Context, userID string) (*Status, error)
	GetStatus(ctx context.Context, userID string) (*Status, error)
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Subscriptions

	// The router instance to configure the HTTP routes.
	Router Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.GET("/status", h.statusHandler)
	r.POST("/trial", h.trialHandler)
	r.POST("/subscribe", h.subscribeHandler)
	r.POST("/cancel", h.cancelHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) statusHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	state, err := h.Service.GetStatus(c, token.UID)
	if err != nil {
		log.Printf("Could not read subscription status: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *httpHandler) trialHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	state, err := h.Service.StartTrial(c, token.UID)
	if err != nil {
		if errors.Is(err, ErrTrialAlreadyUsed) || errors.Is(err, ErrAlreadySubscribed) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		log.Printf("Could not start trial: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, state)
}

type subscribeRequest struct {
	Plan string `json:"plan"`
}

func (h *httpHandler) subscribeHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	state, err := h.Service.Subscribe(c, token.UID, req.Plan)
	if err != nil {
		if errors.Is(err, ErrUnknownPlan) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		log.Printf("Could not subscribe: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *httpHandler) cancelHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	state, err := h.Service.CancelAutoRenew(c, token.UID)
	if err != nil {
		if errors.Is(err, ErrNotSubscribed) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		log.Printf("Could not cancel auto renew: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, state)
}
