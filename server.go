package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/storefront_sync/channelsync"
	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/middlewares"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// appSyncer is set once dependencies are connected; the readiness gate keeps
// traffic out until then.
var appSyncer *channelsync.Syncer

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil || appSyncer == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	// Platform deliveries authenticate via per-platform credentials, not JWT.
	r.POST("/webhook/:platform/:entity", func(c *gin.Context) {
		channelsync.WebhookHandler(appSyncer)(c)
	})
	// Pub/Sub push endpoint for queued sync runs.
	r.POST("/pubsub/sync-run", func(c *gin.Context) {
		channelsync.PubSubPushHandler(appSyncer)(c)
	})

	api := r.Group("/api", middlewares.RequireAuth())
	api.POST("/sync/:platform", channelsync.TriggerSyncHandler())
	api.GET("/sync/runs", channelsync.SyncHistoryHandler())
	api.GET("/sync/runs/:id", channelsync.SyncRunDetailHandler())
	api.POST("/sync/runs/:id/retry", channelsync.RetrySyncRunHandler())
	api.POST("/sync/terms", func(c *gin.Context) {
		channelsync.SweepHandler(appSyncer)(c)
	})
	api.POST("/import/:platform", func(c *gin.Context) {
		channelsync.ImportHandler(appSyncer)(c)
	})

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.AutoMigrate(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	appSyncer = channelsync.NewSyncer(models.NewRepository(db), channelsync.NewClient())

	// Periodic taxonomy sweep: re-push recently touched terms so missed
	// webhook deliveries converge.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go runTermSweep(sweepCtx, logger)

	// Pull-mode run worker for deployments without a push endpoint.
	if subName := strings.TrimSpace(os.Getenv("SYNC_RUN_SUBSCRIPTION")); subName != "" {
		go func() {
			if err := appSyncer.RunPullWorker(sweepCtx, subName); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithFields(logrus.Fields{"field": "pullWorker"}).Error("pull worker stopped: " + err.Error())
			}
		}()
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelSweep()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// runTermSweep runs the taxonomy sweep on a fixed interval.
// TERM_SWEEP_INTERVAL_HOURS=0 disables it.
func runTermSweep(ctx context.Context, logger *logrus.Logger) {
	intervalHours := 6
	if v := strings.TrimSpace(os.Getenv("TERM_SWEEP_INTERVAL_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			intervalHours = n
		}
	}
	if intervalHours <= 0 {
		logger.WithFields(logrus.Fields{"field": "termSweep"}).Warn("TERM_SWEEP_INTERVAL_HOURS<=0; periodic sweep disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(intervalHours) * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if appSyncer == nil {
				continue
			}
			report, err := appSyncer.SyncAllTerms(ctx, intervalHours+1, nil)
			if err != nil {
				logger.WithFields(logrus.Fields{"field": "termSweep"}).Error("sweep failed: " + err.Error())
				continue
			}
			logger.WithFields(logrus.Fields{
				"field":   "termSweep",
				"scanned": report.Scanned,
				"synced":  report.Synced,
				"errors":  report.Errors,
			}).Info("taxonomy sweep finished")
		}
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
