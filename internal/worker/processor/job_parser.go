package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"subburn/internal/models"
	"subburn/internal/pkg/errors"
	"subburn/internal/subtitle"
)

// PresetLookup resuelve los defaults de estilo de un preset.
type PresetLookup interface {
	PresetStyle(ctx context.Context, presetID string) (map[string]any, error)
}

type JobParser struct {
	presets PresetLookup
}

func NewJobParser(presets PresetLookup) *JobParser {
	return &JobParser{presets: presets}
}

// Parse valida params_json y resuelve el estilo final:
// DefaultStyle -> defaults del preset -> style del job.
func (jp *JobParser) Parse(ctx context.Context, paramsJSON string) (*ParsedJob, error) {
	var raw models.JobParams
	if err := json.Unmarshal([]byte(paramsJSON), &raw); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "processor.parse", "invalid params_json")
	}

	j := &ParsedJob{
		Name:       strings.TrimSpace(raw.Name),
		PresetID:   strings.TrimSpace(raw.PresetID),
		Inputs:     make(map[string]string, len(models.InputNames)),
		OutputName: OutputFilename(raw.OutputName),
	}

	// Los tres inputs son obligatorios; se reportan todos los que falten
	var missing []string
	for _, name := range models.InputNames {
		id := strings.TrimSpace(raw.Inputs[name])
		if id == "" {
			missing = append(missing, name)
			continue
		}
		j.Inputs[name] = id
	}
	if len(missing) > 0 {
		return nil, errors.MissingInput(missing...)
	}

	if raw.DurationSeconds < 0 {
		return nil, errors.ValidationField("duration_seconds", "must not be negative")
	}
	j.Duration = time.Duration(raw.DurationSeconds * float64(time.Second))

	var presetStyle map[string]any
	if j.PresetID != "" {
		if jp.presets == nil {
			return nil, errors.Internal("preset lookup not configured")
		}
		s, err := jp.presets.PresetStyle(ctx, j.PresetID)
		if err != nil {
			return nil, err
		}
		presetStyle = s
	}

	style, err := subtitle.MergeStyle(subtitle.DefaultStyle(), presetStyle, raw.Style)
	if err != nil {
		return nil, errors.ValidationField("style", err.Error())
	}
	if err := style.Validate(); err != nil {
		return nil, err
	}
	j.Style = style

	return j, nil
}

// DescribeInputs es útil para logs: "captions=ast_x background=ast_y ..."
func (j *ParsedJob) DescribeInputs() string {
	parts := make([]string, 0, len(models.InputNames))
	for _, name := range models.InputNames {
		parts = append(parts, fmt.Sprintf("%s=%s", name, j.Inputs[name]))
	}
	return strings.Join(parts, " ")
}
