package models

import "time"

const (
	JobQueued  = "QUEUED"
	JobRunning = "RUNNING"
	JobDone    = "DONE"
	JobFailed  = "FAILED"
)

// Input names accepted by a render job, in the order they are reported.
const (
	InputCaptions   = "captions"
	InputBackground = "background"
	InputAudio      = "audio"
)

var InputNames = []string{InputCaptions, InputBackground, InputAudio}

// JobParams is stored as params_json and read back by the worker.
type JobParams struct {
	Name            string            `json:"name,omitempty"`
	PresetID        string            `json:"preset_id,omitempty"`
	Inputs          map[string]string `json:"inputs"`
	Style           map[string]any    `json:"style,omitempty"`
	OutputName      string            `json:"output_name,omitempty"`
	DurationSeconds float64           `json:"duration_seconds,omitempty"`
}

type Job struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Params      JobParams  `json:"params"`
	ErrorCode   string     `json:"error_code,omitempty"`
	FailedStage string     `json:"failed_stage,omitempty"`
	ErrorText   string     `json:"error_text,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Output      *JobOutput `json:"output,omitempty"`
}

type JobOutput struct {
	ID              string `json:"id"`
	VideoAssetID    string `json:"video_asset_id"`
	CaptionsAssetID string `json:"captions_asset_id,omitempty"`
	DurationMS      int64  `json:"duration_ms"`
}

type Asset struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Provider  string    `json:"provider"`
	ObjectKey string    `json:"object_key"`
	Mime      string    `json:"mime"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
