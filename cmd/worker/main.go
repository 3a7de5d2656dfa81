package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"subburn/internal/pkg/logger"
	"subburn/internal/pkg/shutdown"
	"subburn/internal/storage"
	"subburn/internal/worker"
	"subburn/internal/worker/queue"
	"subburn/internal/worker/renderer"
	"subburn/internal/worker/util"
)

func main() {
	log := logger.New(logger.Config{
		Level:       util.Env("LOG_LEVEL", "info"),
		Format:      util.Env("LOG_FORMAT", "json"),
		ServiceName: "subburn-worker",
	})

	dbURL := util.MustEnv("DATABASE_URL")
	redisAddr := util.MustEnv("REDIS_ADDR")
	workRoot := util.Env("WORK_DIR", "/data/work")

	deps := worker.Deps{
		QueueName:        util.Env("JOB_QUEUE_NAME", queue.DefaultName),
		WorkRoot:         workRoot,
		ScratchDir:       util.Env("SCRATCH_DIR", filepath.Join(workRoot, "scratch")),
		CleanupLocal:     util.BoolEnv("CLEANUP_LOCAL", true),
		FFmpegBin:        util.Env("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:       util.Env("FFPROBE_BIN", "ffprobe"),
		StageTimeout:     util.DurationEnv("STAGE_TIMEOUT", renderer.DefaultStageTimeout),
		FallbackDuration: util.DurationEnv("FALLBACK_DURATION", renderer.DefaultFallbackDuration),
		PopTimeout:       util.DurationEnv("QUEUE_POP_TIMEOUT", 5*time.Second),
		DrainTimeout:     util.DurationEnv("DRAIN_TIMEOUT", 0),
		Log:              log,
	}

	if deps.DrainTimeout <= 0 {
		deps.DrainTimeout = deps.StageTimeout
	}
	// A job in progress gets DrainTimeout to finish; past that it is canceled
	// and left on the processing list for the next start to requeue.
	shutdownMgr := shutdown.NewManager(log, deps.DrainTimeout+30*time.Second)
	boot := context.Background()

	pool, err := pgxpool.New(boot, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)
	deps.Pool = pool

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	shutdownMgr.Register("redis", func(context.Context) error { return rdb.Close() })
	if err := rdb.Ping(boot).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	deps.RDB = rdb

	sp, err := storage.NewProvider(boot, storage.ConfigFromEnv())
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	deps.SP = sp

	if addr := util.Env("METRICS_ADDR", ":9090"); addr != "off" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		shutdownMgr.Register("metrics-server", metricsSrv.Shutdown)
		go func() {
			log.Info("metrics server listening", "addr", addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err.Error())
			}
		}()
	}

	runCtx := shutdownMgr.Context()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := worker.Run(runCtx, deps); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker stopped", "error", err.Error())
		}
	}()
	// Registered last so it runs first: the current job finishes or is
	// handed back before its connections close.
	shutdownMgr.Register("worker", func(ctx context.Context) error {
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	log.Info("subburn worker started", "queue", deps.QueueName, "storage", sp.Provider())
	shutdownMgr.Wait()
}
