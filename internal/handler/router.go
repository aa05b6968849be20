package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"travelchat/internal/config"
	"travelchat/internal/middleware"
)

// BuildInfo is reported by /health and /version.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// DatasetStatus reports whether the dataset has been loaded.
type DatasetStatus interface {
	Loaded() bool
}

// NewRouter registers middleware and routes.
func NewRouter(cfg *config.Config, chat *ChatHandler, dataset DatasetStatus, build BuildInfo) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}
	if methods := splitList(cfg.Server.AllowedMethods); len(methods) > 0 {
		corsConfig.AllowMethods = methods
	}
	if headers := splitList(cfg.Server.AllowedHeaders); len(headers) > 0 {
		corsConfig.AllowHeaders = headers
	}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		loaded := dataset != nil && dataset.Loaded()
		if !loaded {
			status = "starting"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         status,
			"service":        "travel-chat",
			"dataset_loaded": loaded,
			"version":        build.Version,
			"build_time":     build.BuildTime,
			"git_commit":     build.GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    build.Version,
			"build_time": build.BuildTime,
			"git_commit": build.GitCommit,
		})
	})

	limit := middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	router.POST("/chat", limit, chat.Chat)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(limit)
	{
		apiV1.POST("/chat", chat.Chat)
	}

	return router
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
