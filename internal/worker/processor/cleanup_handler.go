package processor

import (
	"os"
	"path/filepath"

	"subburn/internal/pkg/logger"
)

type Cleanup struct {
	workRoot     string
	cleanupLocal bool
	log          *logger.Logger
}

func NewCleanup(workRoot string, cleanupLocal bool, log *logger.Logger) *Cleanup {
	return &Cleanup{
		workRoot:     workRoot,
		cleanupLocal: cleanupLocal,
		log:          log,
	}
}

// JobDir es el directorio local del job: inputs/ y out/
func (c *Cleanup) JobDir(jobID string) string {
	return filepath.Join(c.workRoot, "jobs", jobID)
}

// CleanupJob borra los archivos locales del job. Se llama tanto en éxito
// como en fallo; los outputs ya fueron subidos al storage.
func (c *Cleanup) CleanupJob(jobID string) {
	if !c.cleanupLocal || jobID == "" {
		return
	}
	if err := os.RemoveAll(c.JobDir(jobID)); err != nil && c.log != nil {
		c.log.Warn("job cleanup failed", "job_id", jobID, "error", err.Error())
	}
}
