package collection

import (
	"hexapink-api/internal/logs"
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.Engine, collectionService *CollectionService, logService *logs.LogService, adminOnly gin.HandlerFunc, logger *zap.Logger) {
	collectionController := &CollectionController{CollectionService: collectionService, LogService: logService, Logger: logger}

	collectionGroup := r.Group("/api/collection")
	collectionGroup.Use(middlewares.AuthMiddleware())
	{
		collectionGroup.POST("/one", collectionController.MatchingCollections)
		collectionGroup.POST("/create", adminOnly, collectionController.CreateCollection)
		collectionGroup.PUT("/update/:id", adminOnly, collectionController.UpdateCollection)
		collectionGroup.PUT("/update-fields/:id", adminOnly, collectionController.UpdateFields)
		collectionGroup.GET("/featured-collections", collectionController.FeaturedCollections)
		collectionGroup.GET("/:id", collectionController.GetCollection)
		collectionGroup.GET("", collectionController.ListCollections)
		collectionGroup.DELETE("/delete/:id", adminOnly, collectionController.DeleteCollection)
	}
}
