package email

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/server/respond"
)

// Handler exposes email configuration checks.
type Handler struct {
	Dispatcher *Dispatcher
}

// NewHandler constructs a Handler.
func NewHandler(d *Dispatcher) *Handler {
	return &Handler{Dispatcher: d}
}

// RegisterRoutes attaches email routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/email/config", h.config)
	rg.POST("/email/test", h.test)
}

func (h *Handler) config(c *gin.Context) {
	respond.OK(c, h.Dispatcher.Status())
}

func (h *Handler) test(c *gin.Context) {
	if !h.Dispatcher.Configured() {
		respond.Error(c, http.StatusServiceUnavailable, "email_not_configured", ErrNotConfigured.Error(), h.Dispatcher.Status())
		return
	}
	respond.OK(c, h.Dispatcher.Test(c.Request.Context()))
}
