package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"subburn/internal/httpapi"
	"subburn/internal/pkg/logger"
	"subburn/internal/pkg/shutdown"
	"subburn/internal/storage"
	"subburn/internal/worker/queue"
	"subburn/internal/worker/util"
)

var version = "dev"

func main() {
	log := logger.New(logger.Config{
		Level:       util.Env("LOG_LEVEL", "info"),
		Format:      util.Env("LOG_FORMAT", "json"),
		ServiceName: "subburn-api",
		AddSource:   util.BoolEnv("LOG_SOURCE", false),
	})

	log.Info("starting subburn API", "version", version)

	httpPort := util.Env("HTTP_PORT", "8080")
	dbURL := mustEnv(log, "DATABASE_URL")
	redisAddr := mustEnv(log, "REDIS_ADDR")
	queueName := util.Env("JOB_QUEUE_NAME", queue.DefaultName)
	maxUploadMB := util.IntEnv("MAX_UPLOAD_MB", 512)
	if maxUploadMB <= 0 {
		log.Error("invalid MAX_UPLOAD_MB", "value", os.Getenv("MAX_UPLOAD_MB"))
		os.Exit(1)
	}

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)
	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}

	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	sp, err := storage.NewProvider(ctx, storage.ConfigFromEnv())
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	router := httpapi.NewRouter(httpapi.Deps{
		Pool:           pool,
		RDB:            rdb,
		SP:             sp,
		Log:            log,
		QueueName:      queueName,
		MaxUploadBytes: int64(maxUploadMB) << 20,
		Version:        version,
	})

	// Uploads and video downloads can be large; the write timeout covers
	// streaming a finished render.
	server := &http.Server{
		Addr:              "0.0.0.0:" + httpPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr, "queue", queueName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

func mustEnv(log *logger.Logger, key string) string {
	v := util.Env(key, "")
	if v == "" {
		log.Error("missing required environment variable", "key", key)
		os.Exit(1)
	}
	return v
}
