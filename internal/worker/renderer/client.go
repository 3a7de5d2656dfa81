package renderer

import (
	"context"
	"time"
)

// Stage names, in execution order.
const (
	StagePreflight      = "preflight"
	StageLoopBackground = "loop_background"
	StageBurnCaptions   = "burn_captions"
	StageMuxAudio       = "mux_audio"
)

// Client renders a narrated, captioned video.
type Client interface {
	Render(ctx context.Context, job Job) (Result, error)
}

// Job names the inputs and the destination of one render.
type Job struct {
	// ID seeds the workspace directory name; it may be empty.
	ID string

	CaptionsPath   string
	BackgroundPath string
	AudioPath      string
	OutputPath     string

	// Duration forces the background loop length. When zero the audio track
	// is probed, then CaptionsEnd is used.
	Duration    time.Duration
	CaptionsEnd time.Duration
}

// StageResult records how long one encoder stage ran.
type StageResult struct {
	Name    string
	Elapsed time.Duration
}

// Result describes a finished render.
type Result struct {
	OutputPath string
	// Duration is the background loop length that was used, and
	// DurationSource says where it came from (job, audio, captions, fallback).
	Duration       time.Duration
	DurationSource string
	Stages         []StageResult
}
