package globe

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Router is the interface for a router.
type Router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup
}

// Markers is the interface for the globe service.
type Markers interface {
	GetMarkers(ctx context.Context) ([]Marker, error)
}

// HTTPOptions contains all the options needed for the HTTP handler.
type HTTPOptions struct {

	// The service we provides the HTTP transport for.
	Service Markers

	// The router instance to configure the HTTP routes.
	Router Router
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(opts HTTPOptions) {
	r := opts.Router
	h := &httpHandler{opts}
	r.GET("/markers", h.markersHandler)
}

type httpHandler struct {
	HTTPOptions
}

func (h *httpHandler) markersHandler(c *gin.Context) {
	markers, err := h.Service.GetMarkers(c)
	if err != nil {
		log.Printf("Could not assemble globe markers: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"markers":     markers,
		"count":       len(markers),
		"generatedAt": time.Now().UTC(),
	})
}
