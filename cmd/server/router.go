package main

import (
	"net/http"
	"strings"
	"time"

	"hexapink-api/config"
	"hexapink-api/internal/collection"
	"hexapink-api/internal/file"
	"hexapink-api/internal/logs"
	"hexapink-api/internal/lookup"
	"hexapink-api/internal/metrics"
	"hexapink-api/internal/middlewares"
	"hexapink-api/internal/order"
	"hexapink-api/internal/storage"
	"hexapink-api/internal/table"
	"hexapink-api/internal/tag"
	"hexapink-api/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// models lists every table created at start-up. Users come first so order
// foreign keys resolve.
var models = []interface{}{
	&user.User{},
	&tag.Tag{},
	&table.Table{},
	&collection.Collection{},
	&order.Order{},
	&file.File{},
	&order.Transaction{},
	&lookup.Lookup{},
	&logs.SystemLog{},
}

func corsOrigins(frontURL string) []string {
	var out []string
	for _, o := range strings.Split(frontURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"http://localhost:3000"}
	}
	return out
}

func newRouter(cfg config.Config, db *gorm.DB, store storage.Store, validator lookup.PhoneValidator, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger), metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(cfg.FrontURL),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"x-new-token", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logService := &logs.LogService{DB: db}
	userService := &user.UserService{DB: db}
	adminOnly := user.RequireRole(userService, user.RoleAdmin)

	tagService := &tag.TagService{DB: db}
	tag.RegisterRoutes(r, tagService)

	tableService := &table.TableService{DB: db, Store: store, Tags: tagService, Logger: logger}
	table.RegisterRoutes(r, tableService, logService, logger)

	collectionService := &collection.CollectionService{DB: db, Store: store, Logger: logger}
	collection.RegisterRoutes(r, collectionService, logService, adminOnly, logger)

	fileService := &file.FileService{DB: db, Store: store}
	file.RegisterRoutes(r, fileService, logger)

	orderService := &order.OrderService{DB: db, Store: store, Exporter: file.NewExporter(store), Logger: logger}
	order.RegisterRoutes(r, orderService, logService, adminOnly, logger)

	lookup.RegisterRoutes(r, lookup.NewLookupService(db, validator))

	logs.RegisterRoutes(r, logService, adminOnly)

	return r
}
