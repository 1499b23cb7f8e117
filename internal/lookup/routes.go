package lookup

import (
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, lookupService LookupServiceAPI) {
	lookupController := &LookupController{Service: lookupService}

	lookupGroup := r.Group("/api/lookup")
	lookupGroup.Use(middlewares.AuthMiddleware())
	{
		lookupGroup.POST("/create", lookupController.CreateLookup)
		lookupGroup.GET("/by-user", lookupController.LookupsByUser)
		lookupGroup.DELETE("/delete/:id", lookupController.DeleteLookup)
	}
}
