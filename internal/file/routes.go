package file

import (
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.Engine, fileService *FileService, logger *zap.Logger) {
	fileController := &FileController{FileService: fileService, Logger: logger}

	fileGroup := r.Group("/api/file")
	fileGroup.Use(middlewares.AuthMiddleware())
	{
		fileGroup.GET("/read", fileController.ReadyFiles)
		fileGroup.GET("/recent", fileController.RecentFiles)
		fileGroup.GET("/count", fileController.CountFiles)
		fileGroup.GET("/:id/download", fileController.Download)
	}
}
