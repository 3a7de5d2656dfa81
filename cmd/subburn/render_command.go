package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/subtitle"
	"subburn/internal/worker/renderer"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		style      styleFlags
		captions   string
		background string
		audio      string
		output     string
		ffmpegBin  string
		ffprobeBin string
		scratchDir string
		timeout    time.Duration
		duration   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a captioned video from WebVTT captions, a background image and audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := style.resolve(cmd)
			if err != nil {
				return err
			}
			log := ctx.logger(cmd)

			tmpDir, err := os.MkdirTemp(scratchDir, "subburn-cli-")
			if err != nil {
				return fmt.Errorf("create temp directory: %w", err)
			}
			defer os.RemoveAll(tmpDir)

			// A missing captions file is left for the pipeline preflight,
			// which reports every missing input at once.
			ass := ""
			var stats subtitle.Stats
			if fi, err := os.Stat(strings.TrimSpace(captions)); err == nil && !fi.IsDir() {
				ass = filepath.Join(tmpDir, "captions.ass")
				stats, err = subtitle.TranscodeFile(captions, ass, st)
				if err != nil {
					return err
				}
			}

			pipeline := renderer.NewPipeline(renderer.Config{
				FFmpegBin:    ffmpegBin,
				FFprobeBin:   ffprobeBin,
				ScratchDir:   scratchDir,
				StageTimeout: timeout,
				Log:          log,
			})

			start := time.Now()
			res, err := pipeline.Render(cmd.Context(), renderer.Job{
				CaptionsPath:   ass,
				BackgroundPath: background,
				AudioPath:      audio,
				OutputPath:     output,
				Duration:       duration,
				CaptionsEnd:    stats.LastEnd,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderStageTable(res, time.Since(start)))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s loop from %s)\n", res.OutputPath, formatSeconds(res.Duration), res.DurationSource)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&captions, "captions", "", "WebVTT captions file")
	flags.StringVar(&background, "background", "", "Background image (jpeg, png, webp)")
	flags.StringVar(&audio, "audio", "", "Narration audio file")
	flags.StringVarP(&output, "output", "o", "", "Destination video file")
	flags.StringVar(&ffmpegBin, "ffmpeg", envOr("FFMPEG_BIN", "ffmpeg"), "ffmpeg binary")
	flags.StringVar(&ffprobeBin, "ffprobe", envOr("FFPROBE_BIN", "ffprobe"), "ffprobe binary")
	flags.StringVar(&scratchDir, "scratch-dir", "", "Directory for intermediate files (default: system temp)")
	flags.DurationVar(&timeout, "timeout", renderer.DefaultStageTimeout, "Limit for each encoder stage")
	flags.DurationVar(&duration, "duration", 0, "Background loop length (default: audio length)")
	style.register(cmd)

	return cmd
}

func renderStageTable(res renderer.Result, total time.Duration) string {
	rows := make([][]string, 0, len(res.Stages)+1)
	for i, s := range res.Stages {
		rows = append(rows, []string{fmt.Sprint(i + 1), s.Name, formatSeconds(s.Elapsed)})
	}
	rows = append(rows, []string{"", "total", formatSeconds(total)})
	return renderTable([]string{"#", "Stage", "Elapsed"}, rows, []columnAlignment{alignRight, alignLeft, alignRight})
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
