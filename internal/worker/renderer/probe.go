package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration asks ffprobe for the container duration of path.
func ProbeDuration(ctx context.Context, binary, path string) (time.Duration, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}

	// ffmpeg.ProbeWithTimeout always runs "ffprobe" from PATH on a
	// background context; FFPROBE_BIN and job cancellation need our own exec.
	args := ffmpeg.ConvertKwargsToCmdLineArgs(ffmpeg.KwArgs{
		"v":           "error",
		"hide_banner": "",
		"show_format": "",
		"of":          "json",
	})
	cmd := exec.CommandContext(ctx, binary, append(args, "--", path)...)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		if ee, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(ee.Stderr))
		}
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, detail)
	}

	var res probeResult
	if err := json.Unmarshal(output, &res); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(res.Format.Duration), 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("ffprobe %s: no duration reported", path)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
