package order

import (
	"hexapink-api/internal/logs"
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.Engine, orderService *OrderService, logService *logs.LogService, adminOnly gin.HandlerFunc, logger *zap.Logger) {
	orderController := &OrderController{OrderService: orderService, LogService: logService, Logger: logger}

	orderGroup := r.Group("/api/order")
	orderGroup.Use(middlewares.AuthMiddleware())
	{
		orderGroup.POST("/create", orderController.CreateOrder)
		orderGroup.POST("/pay", orderController.PayOrder)
		orderGroup.GET("/recent", orderController.RecentOrders)
		orderGroup.GET("/by-user", orderController.OrdersByUser)
		orderGroup.GET("", adminOnly, orderController.ListOrders)
	}
}
