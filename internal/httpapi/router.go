package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"subburn/internal/httpapi/handlers"
	"subburn/internal/httpkit"
	"subburn/internal/pkg/logger"
	"subburn/internal/pkg/middleware"
	"subburn/internal/ports"
)

type Deps struct {
	Pool           *pgxpool.Pool
	RDB            *redis.Client
	SP             ports.StorageProvider
	Log            *logger.Logger
	QueueName      string
	MaxUploadBytes int64
	Version        string
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	r.Use(middleware.Metrics)

	// ---- CORS (frontend) ----
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: envCSV("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:8081",
			"http://localhost:5173",
		}),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Content-Disposition"},
		MaxAgeSeconds:  600,
	}))

	h := handlers.New(handlers.Deps{
		Pool:           d.Pool,
		RDB:            d.RDB,
		SP:             d.SP,
		Log:            log,
		QueueName:      d.QueueName,
		MaxUploadBytes: d.MaxUploadBytes,
		Version:        d.Version,
	})

	// ---- HEALTH / METRICS ----
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// ---- ASSETS ----
	r.Post("/assets", h.PostAsset)
	r.Get("/assets/{assetId}", h.GetAsset)
	r.Get("/assets/{assetId}/content", h.StreamAsset)
	r.Delete("/assets/{assetId}", h.DeleteAsset)

	// ---- PRESETS ----
	r.Post("/presets", h.PostPreset)
	r.Get("/presets", h.ListPresets)
	r.Get("/presets/{presetId}", h.GetPreset)
	r.Delete("/presets/{presetId}", h.DeletePreset)

	// ---- JOBS ----
	r.Post("/jobs", h.PostJob)
	r.Post("/jobs/upload", h.PostJobUpload)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{jobId}", h.GetJob)
	r.Get("/jobs/{jobId}/video", h.GetJobVideo)

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
