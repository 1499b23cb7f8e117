package tag

import (
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, tagService *TagService) {
	tagController := &TagController{TagService: tagService}

	tagGroup := r.Group("/api/tag")
	tagGroup.Use(middlewares.AuthMiddleware())
	{
		tagGroup.GET("", tagController.GetTags)
	}
}
