package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lysyi3m/edgeboard/app/render"
)

// Multipart bodies above this are buffered to disk by net/http.
const maxPreviewMemory = 32 << 20

const (
	visitorCookie = "edgeboard_visitor"
	visitorKey    = "visitor"
	visitorMaxAge = 365 * 24 * 60 * 60
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = maxPreviewMemory

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.Use(visitorMiddleware())

	// Routes
	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/feed.xml", handler.GetFeed)
	r.GET(render.ScriptPath, handler.GetScript)

	api := r.Group("/api")
	{
		api.GET("/theme", handler.GetTheme)
		api.PUT("/theme", handler.SetTheme)
		api.POST("/theme/toggle", handler.ToggleTheme)
		api.GET("/newdrop", handler.GetNewDrop)
		api.GET("/detected/:convention", handler.GetDetected)
		api.POST("/previews", handler.CreatePreviews)
	}

	// Page administration (conditionally enabled with authentication)
	if apiAccessKey != "" {
		admin := api.Group("/pages")
		admin.Use(authMiddleware(apiAccessKey))
		{
			admin.GET("", handler.APIListPages)
			admin.GET("/:name", handler.APIGetPage)
			admin.POST("/:name/reload", handler.APIReloadPage)
		}
		slog.Info("Page API enabled with authentication")
	} else {
		slog.Info("Page API disabled (API_ACCESS_KEY not set)")
	}

	// Favicon handler (return 204 to avoid 404s when the site has none)
	r.GET("/favicon.ico", func(c *gin.Context) {
		if file, ok := handler.staticFile("/favicon.ico"); ok {
			c.File(file)
			return
		}
		c.Status(204)
	})

	// Pages and static files
	r.NoRoute(handler.GetPage)
}

// visitorMiddleware identifies the browser so each one keeps its own theme.
// A missing or malformed cookie gets a fresh id.
func visitorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, id, visitorMaxAge, "/", "", false, true)
		}

		c.Set(visitorKey, id)
		c.Next()
	}
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get API key from X-API-Key header
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
