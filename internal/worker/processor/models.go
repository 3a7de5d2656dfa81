package processor

import (
	"time"

	"subburn/internal/subtitle"
	"subburn/internal/worker/renderer"
)

// ParsedJob es el job ya validado, con el estilo final resuelto.
type ParsedJob struct {
	Name       string
	PresetID   string
	Inputs     map[string]string
	Style      subtitle.StyleConfig
	OutputName string
	Duration   time.Duration
}

type RenderRequest struct {
	JobID      string
	ParsedJob  *ParsedJob
	InputPaths map[string]string
	OutputDir  string
}

type RenderOutput struct {
	VideoPath    string
	CaptionsPath string
	Captions     subtitle.Stats
	Render       renderer.Result
}

type RegisterOutputsRequest struct {
	JobID      string
	OutputKeys *OutputKeys
	Rendered   *RenderOutput
}

type OutputResult struct {
	OutputID        string
	VideoAssetID    string
	CaptionsAssetID string
	DurationMS      int64
}
