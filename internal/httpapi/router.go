// Package httpapi exposes the shopping list and pantry over JSON.
package httpapi

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pantry-planner/internal/app"
	"pantry-planner/internal/logging"
)

// Options configures the router.
type Options struct {
	JWTSecret    []byte
	AllowOrigins []string
	// Webhook, when set, is mounted unauthenticated at POST /webhook.
	Webhook http.Handler
	Logger  *slog.Logger
}

// NewRouter builds the gin engine serving a.
func NewRouter(a *app.App, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(opts.AllowOrigins) == 0 || slices.Contains(opts.AllowOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
	}
	r.Use(cors.New(corsCfg))

	h := &handler{app: a, logger: logging.NewComponentLogger(opts.Logger, "httpapi")}
	r.Use(h.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.Webhook != nil {
		r.POST("/webhook", gin.WrapH(opts.Webhook))
	}

	api := r.Group("/", AuthMiddleware(opts.JWTSecret))
	{
		api.GET("/items", h.listItems)
		api.POST("/items", h.addItem)
		api.POST("/items/recipe", h.addRecipe)
		api.POST("/items/import", h.importRecipe)
		api.PATCH("/items/:id", h.updateItem)
		api.DELETE("/items/:id", h.deleteItem)
		api.DELETE("/items", h.clearItems)

		api.GET("/pantry", h.listPantry)
		api.GET("/pantry/expiring", h.expiringPantry)
		api.POST("/pantry", h.addPantry)
		api.DELETE("/pantry/:id", h.deletePantry)
	}

	return r
}

func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
