package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"zlatko/internal/handler"
)

// SetupRouter builds the engine serving the API
func SetupRouter(h *handler.Handlers) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithFormatter(accessLogLine))
	h.SetupRoutes(r)
	return r
}

// accessLogLine renders one request, tagged with the user the identity
// middleware resolved. Public routes log "-".
func accessLogLine(param gin.LogFormatterParams) string {
	user := "-"
	if id, ok := param.Keys[handler.UserIDKey].(string); ok && id != "" {
		user = id
	}

	line := fmt.Sprintf("%s user=%s [%s] %s %s %d %s",
		param.ClientIP,
		user,
		param.TimeStamp.Format(time.RFC3339),
		param.Method,
		param.Path,
		param.StatusCode,
		param.Latency,
	)
	if param.ErrorMessage != "" {
		line += " error=" + param.ErrorMessage
	}
	return line + "\n"
}
