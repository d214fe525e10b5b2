package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"scv_loans/pkg/cache"
	"scv_loans/pkg/circuitbreaker"
	"scv_loans/pkg/config"
	"scv_loans/pkg/logging"
	"scv_loans/pkg/ratelimit"
	"scv_loans/pkg/scv"
)

func main() {
	cfg := config.LoadComposer()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := scv.NewClient(cfg.APIURL,
		scv.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		scv.WithBreaker(circuitbreaker.NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerTimeout)),
		scv.WithLogger(logger),
	)

	limiter := ratelimit.NewStore(cfg.RateRPS, cfg.RateBurst,
		ratelimit.WithIdleTTL(cfg.RateIdleTTL),
		ratelimit.WithCleanupEvery(cfg.RateCleanup),
	)
	limiter.StartJanitor(ctx)

	g := newGateway(api, newCatalog(ctx, cfg, logger), logger)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(g, gin.Default(), limiter),
	}

	go func() {
		logger.Info("composer service starting",
			zap.String("port", cfg.Port), zap.String("api", cfg.APIURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCatalog connects the dropdown cache when REDIS_ADDR is set. Without a
// reachable Redis the composer reads the lists straight from the API.
func newCatalog(ctx context.Context, cfg config.Composer, logger *zap.Logger) *cache.Catalog {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, catalog cache disabled",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		rdb.Close()
		return nil
	}
	return cache.NewCatalog(rdb,
		cache.WithPrefix(cfg.CatalogPrefix),
		cache.WithTTL(cfg.CatalogTTL),
		cache.WithLogger(logger),
	)
}

func setupRouter(g *gateway, r *gin.Engine, limiter *ratelimit.Store) *gin.Engine {
	r.GET("/manage/health", g.healthCheck)

	api := r.Group("/api/v1")
	if limiter != nil {
		api.Use(ratelimit.Middleware(limiter))
	}

	api.POST("/drafts", g.createDraft)
	api.GET("/drafts/:id", g.getDraft)
	api.DELETE("/drafts/:id", g.discardDraft)
	api.PATCH("/drafts/:id", g.updateDraft)
	api.POST("/drafts/:id/reset", g.resetDraft)
	api.POST("/drafts/:id/movie", g.selectMovie)
	api.POST("/drafts/:id/items", g.addItem)
	api.DELETE("/drafts/:id/items/:tapeId", g.removeItem)
	api.POST("/drafts/:id/submit", g.submit)
	api.POST("/drafts/:id/edit/:loanId", g.editLoan)

	api.GET("/customers", g.getCustomers)
	api.GET("/movies", g.getMovies)
	api.GET("/loans", g.getLoans)
	api.DELETE("/loans/:id", g.deleteLoan)

	return r
}
