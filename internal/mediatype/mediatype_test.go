package mediatype

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subburn/internal/pkg/errors"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		kind string
		head []byte
		mime string
		ext  string
	}{
		{"vtt header", KindCaptions, []byte("WEBVTT\n\n00:00.000"), "text/vtt", ".vtt"},
		{"vtt with bom", KindCaptions, []byte("\xEF\xBB\xBFWEBVTT\n"), "text/vtt", ".vtt"},
		{"bare cues", KindCaptions, []byte("0:00:00.000 --> 0:00:01.000\nhi\n"), "text/vtt", ".vtt"},
		{"id3 mp3", KindAudio, []byte("ID3\x04\x00rest"), "audio/mpeg", ".mp3"},
		{"mpeg frame", KindAudio, []byte{0xFF, 0xFB, 0x90, 0x00}, "audio/mpeg", ".mp3"},
		{"adts", KindAudio, []byte{0xFF, 0xF1, 0x50, 0x80}, "audio/aac", ".aac"},
		{"wav", KindAudio, []byte("RIFF\x24\x00\x00\x00WAVEfmt "), "audio/wav", ".wav"},
		{"ogg", KindAudio, []byte("OggS\x00\x02"), "audio/ogg", ".ogg"},
		{"flac", KindAudio, []byte("fLaC\x00\x00"), "audio/flac", ".flac"},
		{"m4a", KindAudio, []byte("\x00\x00\x00\x20ftypM4A "), "audio/mp4", ".m4a"},
		{"png", KindBackground, pngBytes(t, 4, 3), "image/png", ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Detect(tt.kind, tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, info.Kind)
			assert.Equal(t, tt.mime, info.Mime)
			assert.Equal(t, tt.ext, info.Ext)
		})
	}
}

func TestDetectImageDimensions(t *testing.T) {
	info, err := Detect(KindBackground, pngBytes(t, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 30, info.Height)
}

func TestDetectRejects(t *testing.T) {
	tests := []struct {
		name string
		kind string
		head []byte
	}{
		{"empty", KindAudio, nil},
		{"srt as captions", KindCaptions, []byte("1\n00:00:01,000 -> 00:00:02,000\nhi\n")},
		{"text as background", KindBackground, []byte("WEBVTT\n")},
		{"png as audio", KindAudio, []byte("\x89PNG\r\n\x1a\n")},
		{"unknown kind", "video", []byte("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Detect(tt.kind, tt.head)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestCheckReplaysHead(t *testing.T) {
	body := "WEBVTT\n\n" + strings.Repeat("0:00:00.000 --> 0:00:01.000\nline\n\n", 5000)

	info, r, err := Check(KindCaptions, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "text/vtt", info.Mime)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

// jpegWithMetadata inserts APP1 segments between SOI and the frame header,
// the way phone cameras store EXIF thumbnails and XMP.
func jpegWithMetadata(t *testing.T, w, h, segments, segSize int) []byte {
	t.Helper()
	var enc bytes.Buffer
	require.NoError(t, jpeg.Encode(&enc, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	raw := enc.Bytes()
	require.Equal(t, []byte{0xFF, 0xD8}, raw[:2])

	var out bytes.Buffer
	out.Write(raw[:2])
	for i := 0; i < segments; i++ {
		n := segSize + 2
		out.Write([]byte{0xFF, 0xE1, byte(n >> 8), byte(n)})
		out.Write(bytes.Repeat([]byte{'x'}, segSize))
	}
	out.Write(raw[2:])
	return out.Bytes()
}

func TestCheckJPEGWithLargeMetadata(t *testing.T) {
	data := jpegWithMetadata(t, 640, 480, 2, 60000)
	require.Greater(t, len(data), HeadSize)

	info, r, err := Check(KindBackground, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", info.Mime)
	assert.Equal(t, ".jpg", info.Ext)
	assert.Equal(t, 640, info.Width)
	assert.Equal(t, 480, info.Height)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCheckImageRejects(t *testing.T) {
	_, _, err := Check(KindBackground, bytes.NewReader(nil))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, _, err = Check(KindBackground, strings.NewReader("WEBVTT\n"))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind("captions"))
	assert.True(t, ValidKind("background"))
	assert.True(t, ValidKind("audio"))
	assert.False(t, ValidKind("render_output"))
}
