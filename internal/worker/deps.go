package worker

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"subburn/internal/pkg/logger"
	"subburn/internal/ports"
)

type Deps struct {
	Pool      *pgxpool.Pool
	RDB       *redis.Client
	SP        ports.StorageProvider
	Log       *logger.Logger
	QueueName string

	// WorkRoot guarda los archivos locales de cada job (inputs y outputs);
	// ScratchDir los intermedios de ffmpeg.
	WorkRoot     string
	ScratchDir   string
	CleanupLocal bool

	FFmpegBin        string
	FFprobeBin       string
	StageTimeout     time.Duration
	FallbackDuration time.Duration

	// DrainTimeout es cuánto puede seguir el job en curso después de que
	// empieza el apagado; pasado ese tiempo se cancela y vuelve a la cola.
	DrainTimeout time.Duration

	// PopTimeout limita cada espera en la cola para poder revisar la cancelación.
	PopTimeout time.Duration
}
