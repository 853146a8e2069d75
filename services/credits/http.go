package credits

import (
	"context"
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

// Ledger is the interface for the credits service.
type Ledger interface {
	GetBalance(ctx context.Context, userID string) (*Account, error)
	GetLedger(ctx context.Context, userID string) ([]Entry, error)
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Ledger

	// The router instance to configure the HTTP routes.
	Router Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.GET("/balance", h.balanceHandler)
	r.GET("/ledger", h.ledgerHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) balanceHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	account, err := h.Service.GetBalance(c, token.UID)
	if err != nil {
		log.Printf("Could not read balance: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":   account.Balance,
		"held":      account.Held,
		"spendable": account.Spendable(),
		"updatedAt": account.UpdatedAt,
	})
}

func (h *httpHandler) ledgerHandler(c *gin.Context) {
	token := c.MustGet("token").(*auth.Token)

	entries, err := h.Service.GetLedger(c, token.UID)
	if err != nil {
		log.Printf("Could not read ledger: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
