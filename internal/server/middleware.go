package server

import (
	"errors"
	"net/http"
	"time"

	handler "auction-engine/services/auction/handler"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the upstream gateway after verification. The
// engine trusts them; authentication itself lives outside this service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthRequired rejects requests without a verified identity header
func AuthRequired(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("missing identity"), "unauthenticated")
		c.Abort()
		return
	}

	c.Set(handler.CtxUserID, userID)
	c.Set(handler.CtxUserRole, c.GetHeader(HeaderUserRole))
	c.Next()
}

// AdminRequired rejects callers whose verified role is not admin
func AdminRequired(c *gin.Context) {
	if c.GetString(handler.CtxUserRole) != handler.RoleAdmin {
		utils.JSONError(c, http.StatusForbidden, errors.New("admin role required"), "forbidden")
		c.Abort()
		return
	}
	c.Next()
}
