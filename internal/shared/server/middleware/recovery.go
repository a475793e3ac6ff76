package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/server/respond"
	"contract-backend/internal/shared/telemetry"
)

// Recovery answers a panicking handler with a 500 "internal" error. The panic
// value and stack go to the log only.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		fields := map[string]any{
			"request_id": RequestIDFromContext(c),
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"error":      fmt.Sprint(recovered),
			"stack":      string(debug.Stack()),
		}
		if id, ok := c.Get("contractId"); ok {
			fields["contract_id"] = id
		}
		telemetry.Error("panic", fields)
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	})
}
