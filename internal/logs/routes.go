package logs

import (
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes exposes the audit log. adminOnly guards the group after
// authentication.
func RegisterRoutes(r *gin.Engine, logService *LogService, adminOnly gin.HandlerFunc) {
	logController := &LogController{LogService: logService}

	logGroup := r.Group("/api/logs")
	logGroup.Use(middlewares.AuthMiddleware(), adminOnly)
	{
		logGroup.GET("", logController.GetLogs)
	}
}
