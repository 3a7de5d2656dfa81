package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subburn/internal/pkg/errors"
	"subburn/internal/subtitle"
)

const sampleVTT = `WEBVTT

00:00:01.000 --> 00:00:03.500
Hello there

00:00:04.000 --> 00:00:06.250
General Kenobi
`

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-format", "json"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "talk.vtt"), sampleVTT)
	out := filepath.Join(dir, "talk.ass")

	stdout, _, err := runCLI(t, "convert", in, out, "--font-size", "48", "--primary-color", "#FF0000", "--alignment", "top-center")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 dialogue lines")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, "Style: Default,Nunito,48,&H000000FF,")
	assert.Contains(t, doc, "Dialogue: 0,00:00:01.00,00:00:03.50,Default,,0,0,0,,{\\fad(500,500)}Hello there")
	assert.Contains(t, doc, "Dialogue: 0,00:00:04.00,00:00:06.25,Default,,0,0,0,,{\\fad(500,500)}General Kenobi")
}

func TestConvertCommandStyleFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "talk.vtt"), sampleVTT)
	preset := writeFile(t, filepath.Join(dir, "style.toml"), "font_name = \"Roboto\"\nfont_size = 30\n")
	out := filepath.Join(dir, "talk.ass")

	// Flags win over the preset file.
	_, _, err := runCLI(t, "convert", in, out, "--style", preset, "--font-size", "36")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Style: Default,Roboto,36,")
}

func TestConvertCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "talk.vtt"), sampleVTT)
	out := filepath.Join(dir, "talk.ass")

	_, _, err := runCLI(t, "convert", in)
	require.Error(t, err)

	_, _, err = runCLI(t, "convert", in, out, "--back-color", "#12345")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidColorFormat, errors.GetCode(err))
	assert.NoFileExists(t, out)

	bad := writeFile(t, filepath.Join(dir, "bad.vtt"), "WEBVTT\n\n00:01.000 --> 00:xx.000\nhi\n")
	_, _, err = runCLI(t, "convert", bad, out)
	require.Error(t, err)
	assert.Equal(t, errors.CodeMalformedTimestamp, errors.GetCode(err))
	assert.NoFileExists(t, out)
}

func TestStyleCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "style", "--italic", "--margin-v", "120")
	require.NoError(t, err)

	path := writeFile(t, filepath.Join(t.TempDir(), "out.toml"), stdout)
	style, err := subtitle.LoadStyleFile(path)
	require.NoError(t, err)

	want := subtitle.DefaultStyle()
	want.Italic = true
	want.MarginV = 120
	assert.Equal(t, want, style)
}

const fakeFFmpeg = `#!/bin/sh
out=""
for a in "$@"; do
  case "$a" in
    -y) ;;
    *) out="$a" ;;
  esac
done
echo rendered > "$out"
`

func TestRenderCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake encoder is a shell script")
	}
	dir := t.TempDir()
	ffmpeg := writeFile(t, filepath.Join(dir, "ffmpeg"), fakeFFmpeg)
	require.NoError(t, os.Chmod(ffmpeg, 0o755))

	captions := writeFile(t, filepath.Join(dir, "talk.vtt"), sampleVTT)
	bg := writeFile(t, filepath.Join(dir, "bg.png"), "png")
	audio := writeFile(t, filepath.Join(dir, "voice.mp3"), "mp3")
	out := filepath.Join(dir, "video.mp4")

	stdout, _, err := runCLI(t, "render",
		"--captions", captions,
		"--background", bg,
		"--audio", audio,
		"--output", out,
		"--ffmpeg", ffmpeg,
		"--ffprobe", filepath.Join(dir, "no-ffprobe"),
		"--scratch-dir", dir,
	)
	require.NoError(t, err)

	for _, want := range []string{"loop_background", "burn_captions", "mux_audio", "total"} {
		assert.Contains(t, stdout, want)
	}
	// ffprobe is unavailable, so the loop follows the last caption.
	assert.Contains(t, stdout, "6.25s loop from captions")
	assert.FileExists(t, out)
}

func TestRenderCommandMissingInputs(t *testing.T) {
	dir := t.TempDir()
	bg := writeFile(t, filepath.Join(dir, "bg.png"), "png")

	_, _, err := runCLI(t, "render",
		"--captions", filepath.Join(dir, "absent.vtt"),
		"--background", bg,
		"--output", filepath.Join(dir, "video.mp4"),
	)
	require.Error(t, err)
	assert.True(t, errors.IsMissingInput(err))
	assert.Equal(t, "captions,audio", errors.GetFields(err)["input"])
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"#", "Stage"}, [][]string{{"1", "mux_audio"}, {"2"}}, []columnAlignment{alignRight})
	assert.Contains(t, out, "mux_audio")
	assert.NotContains(t, out, "<nil>")
	assert.Equal(t, 6, strings.Count(out, "\n")+1)
}
