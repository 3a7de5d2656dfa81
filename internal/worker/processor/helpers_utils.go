package processor

import (
	"fmt"
	"path"
	"strings"
)

const defaultOutputName = "video.mp4"

// OutputKeys contiene las claves de objeto para los outputs
type OutputKeys struct {
	Video    string
	Captions string
}

// GenerateOutputKeys crea las claves de objeto para los outputs del job
func GenerateOutputKeys(jobID, outputName string) *OutputKeys {
	return &OutputKeys{
		Video:    fmt.Sprintf("renders/%s/%s", jobID, OutputFilename(outputName)),
		Captions: fmt.Sprintf("renders/%s/captions.ass", jobID),
	}
}

// OutputFilename normaliza el nombre del video final; siempre termina en .mp4
func OutputFilename(name string) string {
	name = SanitizeFilename(path.Base(strings.TrimSpace(name)))
	if name == "input" || name == "." || name == "_" {
		return defaultOutputName
	}
	if !strings.EqualFold(path.Ext(name), ".mp4") {
		name = strings.TrimSuffix(name, path.Ext(name)) + ".mp4"
	}
	return name
}

// NullIfEmpty retorna nil si el string está vacío, útil para campos nullable en DB
func NullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// SanitizeFilename limpia un nombre de archivo de caracteres peligrosos
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "..", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "input"
	}
	return s
}

// ExtFromMime retorna la extensión de archivo apropiada para un MIME type
func ExtFromMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/x-m4a", "audio/aac":
		return ".m4a"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "video/mp4":
		return ".mp4"
	case "text/vtt":
		return ".vtt"
	case "text/x-ssa", "text/x-ass":
		return ".ass"
	default:
		return ""
	}
}
