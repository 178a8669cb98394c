package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/yourusername/fortnite-stats-analyzer/internal/config"
	"github.com/yourusername/fortnite-stats-analyzer/internal/fortnite"
	"github.com/yourusername/fortnite-stats-analyzer/internal/handlers"
	"github.com/yourusername/fortnite-stats-analyzer/internal/metrics"
	"github.com/yourusername/fortnite-stats-analyzer/internal/openai"
	"github.com/yourusername/fortnite-stats-analyzer/internal/repository"
	"github.com/yourusername/fortnite-stats-analyzer/internal/services"
	"github.com/yourusername/fortnite-stats-analyzer/pkg/cache"
)

// ============================================================================
// RATE LIMITER
// ============================================================================
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips map[string]*visitor
	mu  *sync.RWMutex
	r   rate.Limit
	b   int
	now func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*visitor),
		mu:  &sync.RWMutex{},
		r:   r,
		b:   b,
		now: time.Now,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	v, exists := i.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = v
	}
	v.lastSeen = i.now()
	return v.limiter
}

// Len reports how many clients are currently tracked.
func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.ips)
}

// CleanupStale drops clients idle for longer than maxIdle and returns how
// many were removed. A returning client starts with a full bucket.
func (i *IPRateLimiter) CleanupStale(maxIdle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := i.now().Add(-maxIdle)
	removed := 0
	for ip, v := range i.ips {
		if v.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			removed++
		}
	}
	return removed
}

// StartCleanup runs CleanupStale every interval until ctx is done.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := i.CleanupStale(maxIdle); n > 0 {
					logger.Debug("evicted idle rate limiters", "removed", n, "tracked", i.Len())
				}
			}
		}
	}()
}

func rateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := limiter.GetLimiter(c.ClientIP())

		if !l.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": "60s",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ============================================================================
// SECURITY HEADERS
// ============================================================================
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// ============================================================================
// CORS MIDDLEWARE
// ============================================================================
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowedOrigins := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowedOrigins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ============================================================================
// REQUEST ID + ACCESS LOG
// ============================================================================
const requestIDHeader = "X-Request-ID"

func requestIDMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.Info("request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	tuning := cfg.Tuning

	// 2. Cache: Redis when configured, otherwise in-process
	var store cache.Store
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisClient(cfg.RedisURL, logger)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisCache
	} else {
		logger.Info("REDIS_URL not set, using in-memory cache")
		store = cache.NewMemoryStore(logger)
	}
	defer store.Close()

	// 3. Lookup history (optional)
	var pgRepo *repository.PostgresRepo
	if cfg.DatabaseURL != "" {
		pgRepo, err = repository.NewPostgresRepo(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgRepo.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = pgRepo.RunMigrations(migrateCtx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		logger.Info("lookup history enabled")
	}

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 5. Provider clients and services
	fortniteClient := fortnite.NewClient(cfg.FortniteAPIURL, cfg.FortniteAPIKey,
		fortnite.WithHTTPClient(&http.Client{Timeout: tuning.Stats.RequestTimeout}),
		fortnite.WithRateLimitPause(tuning.Stats.RateLimitPause),
		fortnite.WithLogger(logger),
	)
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, tuning.Feedback.Timeout)

	statsService := services.NewStatsService(fortniteClient, store, tuning.Stats.CacheTTL, m, logger)
	if pgRepo != nil {
		statsService.SetRecorder(pgRepo)
	}
	feedbackService := services.NewFeedbackService(openaiClient, store, services.FeedbackConfig{
		CacheTTL:       tuning.Feedback.CacheTTL,
		Temperature:    tuning.Feedback.Temperature,
		MaxTokens:      tuning.Feedback.MaxTokens,
		QuickMaxTokens: tuning.Feedback.QuickMaxTokens,
		Timeout:        tuning.Feedback.Timeout,
	}, m, logger)

	// 6. Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware(logger))
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	router.Use(securityHeadersMiddleware())

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	limiter := NewIPRateLimiter(10, 20)
	limiter.StartCleanup(limiterCtx, time.Minute, 10*time.Minute, logger)
	router.Use(rateLimitMiddleware(limiter))

	// 7. Routes
	handler := handlers.NewHandler(statsService, feedbackService, store, fortniteClient, logger)
	if pgRepo != nil {
		handler.SetHistory(pgRepo)
	}
	handler.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// 8. Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server stopped")
}
