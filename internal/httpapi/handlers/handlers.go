package handlers

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"subburn/internal/pkg/logger"
	"subburn/internal/pkg/middleware"
	"subburn/internal/ports"
	"subburn/internal/repositories"
	"subburn/internal/worker/processor"
	"subburn/internal/worker/queue"
)

const defaultMaxUpload = 512 << 20

type Deps struct {
	Pool           *pgxpool.Pool
	RDB            *redis.Client
	SP             ports.StorageProvider
	Log            *logger.Logger
	QueueName      string
	MaxUploadBytes int64
	Version        string
}

type Handler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	sp        ports.StorageProvider
	log       *logger.Logger
	queue     *queue.RedisQueue
	presets   *repositories.PresetRepository
	jobParser *processor.JobParser
	maxUpload int64
	version   string
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	version := d.Version
	if version == "" {
		version = "dev"
	}

	presets := repositories.NewPresetRepository(d.Pool)
	return &Handler{
		pool:      d.Pool,
		rdb:       d.RDB,
		sp:        d.SP,
		log:       log.WithComponent("api"),
		queue:     queue.NewRedisQueue(d.RDB, d.QueueName),
		presets:   presets,
		jobParser: processor.NewJobParser(presets),
		maxUpload: maxUpload,
		version:   version,
	}
}

// fail writes err as a JSON error envelope with the status of its code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	middleware.HandleError(w, r, h.log, err)
}
