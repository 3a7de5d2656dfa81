package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"

	"subburn/internal/pkg/errors"
	"subburn/internal/pkg/logger"
	"subburn/internal/ports"
	"subburn/internal/worker/renderer"
)

// Pasos del job; se guardan en jobs.failed_stage cuando algo falla fuera
// del pipeline de ffmpeg.
const (
	StepFetch     = "fetch"
	StepParse     = "parse"
	StepStatus    = "status"
	StepInputs    = "inputs"
	StepTranscode = "transcode"
	StepOutputs   = "outputs"
	StepSave      = "save"
)

type Deps struct {
	Pool         *pgxpool.Pool
	Renderer     renderer.Client
	Presets      PresetLookup
	WorkRoot     string
	CleanupLocal bool
	SP           ports.StorageProvider
	Log          *logger.Logger
}

type Processor struct {
	pool *pgxpool.Pool
	log  *logger.Logger

	// Componentes internos
	jobParser       *JobParser
	inputHandler    *InputHandler
	outputHandler   *OutputHandler
	rendererAdapter *RendererAdapter
	cleanup         *Cleanup
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("processor")

	return &Processor{
		pool:            d.Pool,
		log:             log,
		jobParser:       NewJobParser(d.Presets),
		inputHandler:    NewInputHandler(d.Pool, d.SP, d.WorkRoot),
		outputHandler:   NewOutputHandler(d.Pool, d.SP),
		rendererAdapter: NewRendererAdapter(d.Renderer),
		cleanup:         NewCleanup(d.WorkRoot, d.CleanupLocal, log),
	}
}

// ProcessJob orquesta el flujo completo del job
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	// Los archivos locales se borran siempre, salga bien o mal
	defer p.cleanup.CleanupJob(jobID)

	// 1. Obtener y parsear el job
	log.Debug("fetching job params")
	paramsJSON, err := p.fetchJobParams(ctx, jobID)
	if err != nil {
		return p.failJob(ctx, jobID, StepFetch, errors.Wrap(err, "processor.fetch", "failed to fetch job params"))
	}

	parsedJob, err := p.jobParser.Parse(ctx, paramsJSON)
	if err != nil {
		return p.failJob(ctx, jobID, StepParse, errors.Wrap(err, "processor.parse", "failed to parse job params"))
	}
	log.Debug("job parsed", "inputs", parsedJob.DescribeInputs(), "preset_id", parsedJob.PresetID)

	// 2. Marcar como running
	if err := p.markJobRunning(ctx, jobID); err != nil {
		return p.failJob(ctx, jobID, StepStatus, errors.Wrap(err, "processor.status", "failed to mark job as running"))
	}

	// 3. Materializar inputs
	inputPaths, err := p.inputHandler.Materialize(ctx, jobID, parsedJob.Inputs)
	if err != nil {
		return p.failJob(ctx, jobID, StepInputs, errors.Wrap(err, "processor.inputs", "failed to materialize inputs"))
	}
	log.Debug("inputs materialized", "count", len(inputPaths))

	// 4. Transcodificar captions y renderizar
	log.Info("starting render", "output", parsedJob.OutputName)
	rendered, err := p.rendererAdapter.Render(ctx, RenderRequest{
		JobID:      jobID,
		ParsedJob:  parsedJob,
		InputPaths: inputPaths,
		OutputDir:  filepath.Join(p.cleanup.JobDir(jobID), "out"),
	})
	if err != nil {
		return p.failJob(ctx, jobID, StepTranscode, errors.Wrap(err, "processor.render", "render failed"))
	}
	log.Info("render completed",
		"dialogues", rendered.Captions.Dialogues,
		"dropped_cues", rendered.Captions.Dropped,
		"loop_seconds", rendered.Render.Duration.Seconds(),
		"loop_source", rendered.Render.DurationSource,
	)

	// 5. Registrar outputs
	outputResult, err := p.outputHandler.RegisterOutputs(ctx, RegisterOutputsRequest{
		JobID:      jobID,
		OutputKeys: GenerateOutputKeys(jobID, parsedJob.OutputName),
		Rendered:   rendered,
	})
	if err != nil {
		return p.failJob(ctx, jobID, StepOutputs, errors.Wrap(err, "processor.outputs", "failed to register outputs"))
	}
	log.Debug("outputs registered",
		"video_asset", outputResult.VideoAssetID,
		"captions_asset", outputResult.CaptionsAssetID,
	)

	// 6. Guardar resultado en DB y marcar como completado
	if err := p.saveJobOutput(ctx, jobID, outputResult); err != nil {
		return p.failJob(ctx, jobID, StepSave, errors.Wrap(err, "processor.save", "failed to save job output"))
	}
	return p.markJobDone(ctx, jobID)
}

func (p *Processor) fetchJobParams(ctx context.Context, jobID string) (string, error) {
	var paramsJSON string
	err := p.pool.QueryRow(ctx,
		`SELECT params_json FROM jobs WHERE id=$1`,
		jobID,
	).Scan(&paramsJSON)
	if err != nil {
		return "", fmt.Errorf("job not found: %w", err)
	}
	return paramsJSON, nil
}

func (p *Processor) markJobRunning(ctx context.Context, jobID string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE jobs
		 SET status='RUNNING', started_at=NOW(), finished_at=NULL,
		     error_code=NULL, failed_stage=NULL, error_text=NULL
		 WHERE id=$1`,
		jobID,
	)
	return err
}

func (p *Processor) markJobDone(ctx context.Context, jobID string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE jobs SET status='DONE', finished_at=NOW() WHERE id=$1`,
		jobID,
	)
	return err
}

func (p *Processor) saveJobOutput(ctx context.Context, jobID string, result *OutputResult) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO job_outputs (id, job_id, video_asset_id, captions_asset_id, duration_ms)
		 VALUES ($1,$2,$3,$4,$5)`,
		result.OutputID,
		jobID,
		result.VideoAssetID,
		NullIfEmpty(result.CaptionsAssetID),
		result.DurationMS,
	)
	return err
}

func (p *Processor) failJob(ctx context.Context, jobID, step string, cause error) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	code, stage, msg := FailureDetails(step, cause)

	// El worker se está apagando: el job vuelve a QUEUED y la cola lo
	// reentrega al arrancar.
	if ctx.Err() != nil {
		log.Warn("job interrupted, returning to queue", "stage", stage, "error", msg)
		if _, err := p.pool.Exec(context.WithoutCancel(ctx),
			`UPDATE jobs SET status='QUEUED', started_at=NULL WHERE id=$1`,
			jobID,
		); err != nil {
			log.Error("failed to requeue interrupted job", "error", err.Error())
		}
		return cause
	}

	var jobErr *errors.Error
	if errors.As(cause, &jobErr) {
		log.Error("job failed",
			"code", code,
			"stage", stage,
			"op", jobErr.Op,
			"message", jobErr.Message,
		)
	} else {
		log.Error("job failed", "stage", stage, "error", msg)
	}

	if _, err := p.pool.Exec(context.WithoutCancel(ctx),
		`UPDATE jobs
		 SET status='FAILED', finished_at=NOW(), error_code=$2, failed_stage=$3, error_text=$4
		 WHERE id=$1`,
		jobID, code, stage, msg,
	); err != nil {
		log.Error("failed to record job failure", "code", code, "stage", stage, "error", err.Error())
	}

	return cause
}

// FailureDetails resume un error para las columnas error_code, failed_stage
// y error_text. Los errores del pipeline traen su propio stage.
func FailureDetails(step string, cause error) (code, stage, msg string) {
	code = string(errors.GetCode(cause))
	stage = step
	if s, ok := errors.GetFields(cause)["stage"].(string); ok && s != "" {
		stage = s
	}
	if cause != nil {
		msg = errorText(cause.Error())
	}
	return code, stage, msg
}

const maxErrorText = 2000

// errorText deja el mensaje apto para una columna TEXT: UTF-8 válido, sin
// NUL y cortado en un límite de carácter.
func errorText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) <= maxErrorText {
		return s
	}
	cut := maxErrorText
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
