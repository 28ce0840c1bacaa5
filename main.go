package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/inkfeed/inkfeed/handlers"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/internal/database"
	"github.com/inkfeed/inkfeed/internal/identity"
	"github.com/inkfeed/inkfeed/internal/images"
	"github.com/inkfeed/inkfeed/internal/posts"
	"github.com/inkfeed/inkfeed/internal/profiles"
	"github.com/inkfeed/inkfeed/internal/sessions"
	"github.com/inkfeed/inkfeed/internal/tokens"
	"github.com/inkfeed/inkfeed/pkg/logger"
	"github.com/inkfeed/inkfeed/pkg/metrics"
	"github.com/inkfeed/inkfeed/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v identity=%v uploads=%s",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Identity.APIKey != "", cfg.Uploads.Backend)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis is optional; when present it backs the refresh-session store
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	// MongoDB backs posts, profiles and (absent Redis) sessions
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB.Database)

	postsRepo := posts.NewMongoRepository(db.Collection("posts"))
	postsSvc := posts.NewService(postsRepo)
	profilesSvc := profiles.NewService(profiles.NewMongoRepository(db.Collection("profiles")), postsRepo)

	var sessionsSvc *sessions.Service
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	} else {
		sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
	}

	// image uploads: minio or cloudinary
	var uploader images.Uploader
	switch cfg.Uploads.Backend {
	case "cloudinary":
		uploader = images.NewCloudinaryUploader(cfg.Uploads)
	default:
		up, err := images.NewMinIOUploader(cfg.Uploads)
		if err != nil {
			logger.Fatalf("minio uploader init failed: %v", err)
		}
		uploader = up
	}
	uploads := images.NewClient(uploader)

	provider := identity.NewHTTPProvider(cfg.Identity)

	// access tokens: verify against the identity provider's OIDC issuer when
	// configured, otherwise against our own HS256 tokens
	var verifier middleware.Verifier = tokens.NewVerifier(cfg.JWT.Secret)
	if cfg.Identity.OIDCIssuer != "" && cfg.Identity.OIDCClientID != "" {
		ver, err := identity.NewOIDCVerifier(ctx, cfg.Identity.OIDCIssuer, cfg.Identity.OIDCClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier, falling back to local tokens: %v", err)
		} else {
			verifier = ver
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps["mongo"] = client.Ping(pingCtx, nil) == nil
		if !deps["mongo"] {
			ready = false
		}
		if redisClient != nil {
			deps["redis"] = redisClient.Ping(pingCtx).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}
		deps["identity"] = cfg.Identity.APIKey != ""

		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api/v1")
	handlers.NewAuthHandler(cfg, provider, profilesSvc, sessionsSvc).Register(api)

	authed := api.Group("", middleware.AuthMiddleware(verifier))
	handlers.NewPostsHandler(postsSvc, profilesSvc, cfg.Feed.PageSize).Register(authed)
	handlers.NewProfileHandler(profilesSvc, uploads).Register(authed)
	handlers.NewUploadsHandler(uploads).Register(authed)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting inkfeed on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
