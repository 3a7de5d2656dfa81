package processor

import (
	"context"
	"os"
	"path/filepath"

	"subburn/internal/models"
	"subburn/internal/pkg/errors"
	"subburn/internal/subtitle"
	"subburn/internal/worker/renderer"
)

type RendererAdapter struct {
	client renderer.Client
}

func NewRendererAdapter(client renderer.Client) *RendererAdapter {
	return &RendererAdapter{client: client}
}

// Render transcodifica los captions VTT a ASS con el estilo del job y luego
// corre el pipeline de ffmpeg. Ambos resultados quedan en OutputDir.
func (ra *RendererAdapter) Render(ctx context.Context, req RenderRequest) (*RenderOutput, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, errors.DestinationUnwritable(err, "processor.render", req.OutputDir)
	}

	assPath := filepath.Join(req.OutputDir, "captions.ass")
	stats, err := subtitle.TranscodeFile(req.InputPaths[models.InputCaptions], assPath, req.ParsedJob.Style)
	if err != nil {
		return nil, err
	}

	res, err := ra.client.Render(ctx, renderer.Job{
		ID:             req.JobID,
		CaptionsPath:   assPath,
		BackgroundPath: req.InputPaths[models.InputBackground],
		AudioPath:      req.InputPaths[models.InputAudio],
		OutputPath:     filepath.Join(req.OutputDir, req.ParsedJob.OutputName),
		Duration:       req.ParsedJob.Duration,
		CaptionsEnd:    stats.LastEnd,
	})
	if err != nil {
		return nil, err
	}

	return &RenderOutput{
		VideoPath:    res.OutputPath,
		CaptionsPath: assPath,
		Captions:     stats,
		Render:       res,
	}, nil
}
