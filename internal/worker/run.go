package worker

import (
	"context"
	"time"

	"subburn/internal/metrics"
	"subburn/internal/pkg/errors"
	"subburn/internal/pkg/logger"
	"subburn/internal/repositories"
	"subburn/internal/worker/processor"
	"subburn/internal/worker/queue"
	"subburn/internal/worker/renderer"
)

// Run consume jobs de la cola hasta que ctx se cancele. La cancelación solo
// corta la espera en la cola: el job en curso tiene DrainTimeout para
// terminar. Si no alcanza, queda sin Ack y Recover lo reencola al arrancar.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	popTimeout := d.PopTimeout
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	drain := d.DrainTimeout
	if drain <= 0 {
		drain = d.StageTimeout
	}
	if drain <= 0 {
		drain = renderer.DefaultStageTimeout
	}

	q := queue.NewRedisQueue(d.RDB, d.QueueName)
	pipeline := renderer.NewPipeline(renderer.Config{
		FFmpegBin:        d.FFmpegBin,
		FFprobeBin:       d.FFprobeBin,
		ScratchDir:       d.ScratchDir,
		StageTimeout:     d.StageTimeout,
		FallbackDuration: d.FallbackDuration,
		Log:              log,
		Observer:         metrics.ObserveStage,
	})

	p := processor.New(processor.Deps{
		Pool:         d.Pool,
		Renderer:     pipeline,
		Presets:      repositories.NewPresetRepository(d.Pool),
		WorkRoot:     d.WorkRoot,
		CleanupLocal: d.CleanupLocal,
		SP:           d.SP,
		Log:          log,
	})

	if n, err := q.Recover(ctx); err != nil {
		log.Warn("queue recover failed", "error", err.Error())
	} else if n > 0 {
		log.Info("requeued unfinished jobs", "count", n)
	}

	log.Info("worker started",
		"queue", q.Name(),
		"work_root", d.WorkRoot,
		"stage_timeout", pipeline.StageTimeout().String(),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		jobID, err := q.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			log.Warn("queue pop error, retrying", "error", err.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if jobID == "" {
			continue
		}

		if !runJob(ctx, drain, p, log, jobID) {
			log.Warn("job interrupted by shutdown, left for recovery", "job_id", jobID)
			return ctx.Err()
		}

		// El job ya quedó DONE o FAILED en la base.
		if err := q.Ack(context.WithoutCancel(ctx), jobID); err != nil {
			log.Warn("queue ack failed", "job_id", jobID, "error", err.Error())
		}
	}
}

// runJob procesa un job y devuelve false si el apagado lo interrumpió antes
// de que su estado final quedara guardado.
func runJob(ctx context.Context, drain time.Duration, p *processor.Processor, log *logger.Logger, jobID string) bool {
	jobCtx, cancel := jobContext(ctx, drain)
	defer cancel()
	jobCtx = logger.ContextWithJobID(jobCtx, jobID)
	jobLog := log.WithJobID(jobID)

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	jobLog.Info("processing job")
	startTime := time.Now()

	err := p.ProcessJob(jobCtx, jobID)
	elapsed := time.Since(startTime)

	if err != nil {
		if jobCtx.Err() != nil {
			return false
		}
		metrics.ObserveJob(elapsed, string(errors.GetCode(err)))
		jobLog.Error("job failed",
			"error", err.Error(),
			"duration_ms", elapsed.Milliseconds(),
		)
		return true
	}

	metrics.ObserveJob(elapsed, "")
	jobLog.Info("job completed", "duration_ms", elapsed.Milliseconds())
	return true
}

// jobContext sobrevive a ctx hasta drain: cancelar ctx no corta el job en
// curso salvo que el apagado dure más que eso.
func jobContext(ctx context.Context, drain time.Duration) (context.Context, context.CancelFunc) {
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, func() {
		t := time.NewTimer(drain)
		defer t.Stop()
		select {
		case <-t.C:
			cancel()
		case <-jobCtx.Done():
		}
	})
	return jobCtx, func() {
		stop()
		cancel()
	}
}
