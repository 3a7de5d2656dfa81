// Package mediatype checks uploaded files against the asset kind they claim
// to be, from their leading bytes.
package mediatype

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	// Background decoders
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"subburn/internal/pkg/errors"
)

const (
	KindCaptions   = "captions"
	KindBackground = "background"
	KindAudio      = "audio"
)

// HeadSize is how much of a file Check buffers before deciding.
const HeadSize = 64 << 10

// MaxImageHeader bounds how far Check lets the image decoder read to find
// the dimensions. JPEG metadata segments come before the frame header and
// can be far larger than HeadSize.
const MaxImageHeader = 16 << 20

// Info describes a file that passed Check.
type Info struct {
	Kind   string
	Mime   string
	Ext    string
	Width  int
	Height int
}

// ValidKind reports whether kind is an uploadable asset kind.
func ValidKind(kind string) bool {
	switch kind {
	case KindCaptions, KindBackground, KindAudio:
		return true
	}
	return false
}

// Check reads the head of r and validates it as kind. The returned reader
// replays the consumed bytes followed by the rest of r.
func Check(kind string, r io.Reader) (Info, io.Reader, error) {
	if kind == KindBackground {
		return checkImage(r)
	}

	head := make([]byte, HeadSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Info{}, nil, errors.Wrap(err, "mediatype.read", "failed to read upload")
	}
	head = head[:n]

	info, err := Detect(kind, head)
	if err != nil {
		return Info{}, nil, err
	}
	return info, io.MultiReader(bytes.NewReader(head), r), nil
}

// Detect validates head, the leading bytes of a file, as kind.
func Detect(kind string, head []byte) (Info, error) {
	if len(head) == 0 {
		return Info{}, invalid(kind, "file is empty")
	}

	switch kind {
	case KindCaptions:
		return detectCaptions(head)
	case KindBackground:
		return detectImage(head)
	case KindAudio:
		return detectAudio(head)
	default:
		return Info{}, errors.ValidationField("kind", fmt.Sprintf("unknown asset kind %q", kind))
	}
}

func detectCaptions(head []byte) (Info, error) {
	text, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), head)
	if err != nil {
		return Info{}, invalid(KindCaptions, "captions are not valid text")
	}
	s := strings.TrimLeft(string(text), " \t\r\n")
	if !strings.HasPrefix(s, "WEBVTT") && !strings.Contains(s, " --> ") {
		return Info{}, invalid(KindCaptions, "captions must be WebVTT")
	}
	return Info{Kind: KindCaptions, Mime: "text/vtt", Ext: ".vtt"}, nil
}

// checkImage lets the decoder consume as much as its header needs and
// records every byte it read so the upload can be replayed in full.
func checkImage(r io.Reader) (Info, io.Reader, error) {
	src := &readErrRecorder{r: io.LimitReader(r, MaxImageHeader)}
	var seen bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(src, &seen))
	switch {
	case src.err != nil:
		return Info{}, nil, errors.Wrap(src.err, "mediatype.read", "failed to read upload")
	case seen.Len() == 0:
		return Info{}, nil, invalid(KindBackground, "file is empty")
	case err != nil:
		return Info{}, nil, invalid(KindBackground, "background must be a JPEG, PNG or WebP image")
	}

	info, err := imageInfo(cfg, format)
	if err != nil {
		return Info{}, nil, err
	}
	return info, io.MultiReader(&seen, r), nil
}

type readErrRecorder struct {
	r   io.Reader
	err error
}

func (rr *readErrRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF {
		rr.err = err
	}
	return n, err
}

func detectImage(head []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return Info{}, invalid(KindBackground, "background must be a JPEG, PNG or WebP image")
	}
	return imageInfo(cfg, format)
}

func imageInfo(cfg image.Config, format string) (Info, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, invalid(KindBackground, "background has no pixels")
	}

	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	return Info{
		Kind:   KindBackground,
		Mime:   "image/" + format,
		Ext:    ext,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func detectAudio(head []byte) (Info, error) {
	audio := func(mime, ext string) (Info, error) {
		return Info{Kind: KindAudio, Mime: mime, Ext: ext}, nil
	}

	switch {
	case bytes.HasPrefix(head, []byte("ID3")):
		return audio("audio/mpeg", ".mp3")
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return audio("audio/wav", ".wav")
	case bytes.HasPrefix(head, []byte("OggS")):
		return audio("audio/ogg", ".ogg")
	case bytes.HasPrefix(head, []byte("fLaC")):
		return audio("audio/flac", ".flac")
	case len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")):
		return audio("audio/mp4", ".m4a")
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xF6 == 0xF0:
		// ADTS AAC
		return audio("audio/aac", ".aac")
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		// MPEG audio frame without an ID3 tag
		return audio("audio/mpeg", ".mp3")
	}
	return Info{}, invalid(KindAudio, "audio must be MP3, WAV, OGG, FLAC, AAC or M4A")
}

func invalid(kind, msg string) *errors.Error {
	return errors.ValidationField("file", msg).WithField("kind", kind)
}
