package table

import (
	"hexapink-api/internal/logs"
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.Engine, tableService *TableService, logService *logs.LogService, logger *zap.Logger) {
	tableController := &TableController{TableService: tableService, LogService: logService, Logger: logger}

	tableGroup := r.Group("/api/table")
	tableGroup.Use(middlewares.AuthMiddleware())
	{
		tableGroup.POST("/create", tableController.CreateTable)
		tableGroup.GET("", tableController.ListTables)
		tableGroup.GET("/all", tableController.AllTables)
		tableGroup.POST("/tables", tableController.FetchTableRows)
		tableGroup.POST("/file", tableController.ReadFile)
		tableGroup.PUT("/update/:id", tableController.RenameTable)
		tableGroup.DELETE("/delete/:id", tableController.DeleteTable)
		tableGroup.POST("/addTag/:id", tableController.AddTag)
		tableGroup.PUT("/updateTag/:id", tableController.RenameTag)
		tableGroup.DELETE("/deleteTag/:id", tableController.RemoveTag)
		tableGroup.POST("/total-leads", tableController.SumLeads)
	}
}
