package renderer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"subburn/internal/pkg/errors"
	"subburn/internal/pkg/logger"
)

const (
	// DefaultFallbackDuration is the loop length used when nothing else is known.
	DefaultFallbackDuration = 194 * time.Second
	DefaultStageTimeout     = 30 * time.Minute

	frameFilter = "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2"

	captionsName   = "captions.ass"
	backgroundName = "background.mp4"
	captionedName  = "captioned.mp4"
	finalName      = "final.mp4"

	stderrTail = 2048
)

// Observer is notified after every stage, successful or not.
type Observer func(stage string, elapsed time.Duration, err error)

type Config struct {
	FFmpegBin        string
	FFprobeBin       string
	ScratchDir       string
	StageTimeout     time.Duration
	FallbackDuration time.Duration
	Log              *logger.Logger
	Observer         Observer
}

// Pipeline runs the three encoder stages: loop the background image into a
// silent video, burn the captions into it, then mux the narration.
type Pipeline struct {
	cfg Config
	log *logger.Logger
}

var _ Client = (*Pipeline)(nil)

func NewPipeline(cfg Config) *Pipeline {
	if cfg.FFmpegBin == "" {
		cfg.FFmpegBin = "ffmpeg"
	}
	if cfg.FFprobeBin == "" {
		cfg.FFprobeBin = "ffprobe"
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
	if cfg.FallbackDuration <= 0 {
		cfg.FallbackDuration = DefaultFallbackDuration
	}
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Pipeline{cfg: cfg, log: log.WithComponent("renderer")}
}

func (p *Pipeline) Render(ctx context.Context, job Job) (Result, error) {
	log := p.log.FromContext(ctx)

	job, err := p.preflight(job)
	if err != nil {
		p.observe(StagePreflight, 0, err)
		return Result{}, err
	}

	ws, err := newWorkspace(p.cfg.ScratchDir, job.ID)
	if err != nil {
		return Result{}, errors.DestinationUnwritable(err, "render.workspace", p.cfg.ScratchDir)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			log.Warn("workspace cleanup failed", "dir", ws.dir, "error", err.Error())
		}
	}()

	// The subtitles filter takes a path argument with its own escaping rules;
	// a fixed name inside the working directory sidesteps them.
	if err := copyFile(job.CaptionsPath, ws.path(captionsName)); err != nil {
		return Result{}, errors.SourceUnreadable(err, "render.captions", job.CaptionsPath)
	}

	loop, source := p.loopDuration(ctx, job)
	log.Info("render started",
		"workspace", ws.dir,
		"loop_seconds", loop.Seconds(),
		"loop_source", source,
	)

	res := Result{OutputPath: job.OutputPath, Duration: loop, DurationSource: source}
	stages := []struct {
		name string
		args []string
	}{
		{StageLoopBackground, loopArgs(job.BackgroundPath, ws.path(backgroundName), loop)},
		{StageBurnCaptions, burnArgs(ws.path(backgroundName), ws.path(captionedName))},
		{StageMuxAudio, muxArgs(ws.path(captionedName), job.AudioPath, ws.path(finalName))},
	}
	for _, st := range stages {
		stageCtx := logger.ContextWithStage(ctx, st.name)
		elapsed, err := p.runStage(stageCtx, ws.dir, st.name, st.args)
		p.observe(st.name, elapsed, err)
		if err != nil {
			p.log.FromContext(stageCtx).Error("render stage failed", "error", err.Error())
			return Result{}, err
		}
		p.log.FromContext(stageCtx).Info("render stage done", "duration_ms", elapsed.Milliseconds())
		res.Stages = append(res.Stages, StageResult{Name: st.name, Elapsed: elapsed})
	}

	if err := moveFile(ws.path(finalName), job.OutputPath); err != nil {
		return Result{}, errors.DestinationUnwritable(err, "render.publish", job.OutputPath)
	}
	return res, nil
}

func (p *Pipeline) preflight(job Job) (Job, error) {
	inputs := []struct {
		name string
		path *string
	}{
		{"captions", &job.CaptionsPath},
		{"background", &job.BackgroundPath},
		{"audio", &job.AudioPath},
	}

	var missing []string
	for _, in := range inputs {
		if strings.TrimSpace(*in.path) == "" {
			missing = append(missing, in.name)
			continue
		}
		fi, err := os.Stat(*in.path)
		if err != nil || fi.IsDir() {
			missing = append(missing, in.name)
			continue
		}
		abs, err := filepath.Abs(*in.path)
		if err == nil {
			*in.path = abs
		}
	}
	if len(missing) > 0 {
		return job, errors.MissingInput(missing...)
	}

	if strings.TrimSpace(job.OutputPath) == "" {
		return job, errors.ValidationField("output", "output path is required")
	}
	if abs, err := filepath.Abs(job.OutputPath); err == nil {
		job.OutputPath = abs
	}
	if fi, err := os.Stat(filepath.Dir(job.OutputPath)); err != nil || !fi.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", filepath.Dir(job.OutputPath))
		}
		return job, errors.DestinationUnwritable(err, "render.preflight", job.OutputPath)
	}

	if _, err := exec.LookPath(p.cfg.FFmpegBin); err != nil {
		return job, errors.ExternalTool(err, StagePreflight, "ffmpeg not found")
	}
	return job, nil
}

func (p *Pipeline) loopDuration(ctx context.Context, job Job) (time.Duration, string) {
	if job.Duration > 0 {
		return job.Duration, "job"
	}

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	d, err := ProbeDuration(probeCtx, p.cfg.FFprobeBin, job.AudioPath)
	if err == nil {
		return d, "audio"
	}
	p.log.FromContext(ctx).Warn("audio probe failed", "error", err.Error())

	if job.CaptionsEnd > 0 {
		return job.CaptionsEnd, "captions"
	}
	return p.cfg.FallbackDuration, "fallback"
}

func (p *Pipeline) runStage(ctx context.Context, dir, stage string, args []string) (time.Duration, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	defer cancel()

	cmd := exec.CommandContext(stageCtx, p.cfg.FFmpegBin, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err == nil {
		return elapsed, nil
	}

	msg := "ffmpeg exited with error"
	switch {
	case stageCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		msg = fmt.Sprintf("ffmpeg timed out after %s", p.cfg.StageTimeout)
	case ctx.Err() != nil:
		msg = "ffmpeg canceled"
	}
	return elapsed, errors.ExternalTool(err, stage, msg).WithField("stderr", tail(stderr.String(), stderrTail))
}

func (p *Pipeline) observe(stage string, elapsed time.Duration, err error) {
	if p.cfg.Observer != nil {
		p.cfg.Observer(stage, elapsed, err)
	}
}

func loopArgs(image, out string, d time.Duration) []string {
	return ffmpeg.Input(image, ffmpeg.KwArgs{"loop": "1"}).
		Output(out, ffmpeg.KwArgs{
			"c:v":     "libx264",
			"t":       fmt.Sprintf("%.3f", d.Seconds()),
			"vf":      frameFilter,
			"pix_fmt": "yuv420p",
		}).
		OverWriteOutput().
		GetArgs()
}

func burnArgs(in, out string) []string {
	return ffmpeg.Input(in).
		Output(out, ffmpeg.KwArgs{
			"vf":     "ass=" + captionsName,
			"c:v":    "libx264",
			"preset": "slow",
			"crf":    "18",
		}).
		OverWriteOutput().
		GetArgs()
}

func muxArgs(video, audio, out string) []string {
	v := ffmpeg.Input(video)
	a := ffmpeg.Input(audio)
	return ffmpeg.Output([]*ffmpeg.Stream{v.Video(), a.Audio()}, out, ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      "aac",
		"b:a":      "192k",
		"shortest": "",
	}).
		OverWriteOutput().
		GetArgs()
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// StageTimeout is the effective per-stage limit.
func (p *Pipeline) StageTimeout() time.Duration {
	return p.cfg.StageTimeout
}
