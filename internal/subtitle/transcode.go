package subtitle

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"subburn/internal/pkg/errors"
)

// CueSeparator marks a WebVTT timing line.
const CueSeparator = " --> "

// Cue is one timed caption entry.
type Cue struct {
	Start Timestamp
	End   Timestamp
	Text  string
}

// Stats summarizes a transcode run.
type Stats struct {
	// Cues counts every timing line seen.
	Cues int
	// Dialogues counts emitted dialogue lines.
	Dialogues int
	// Dropped counts cues skipped for having no text.
	Dropped int
	// LastEnd is the latest end time among emitted cues.
	LastEnd time.Duration
}

// ParseCues reads WebVTT text and returns the cues with text, in file order.
// The line after each timing line is the cue text; cues whose text is blank
// are dropped.
func ParseCues(r io.Reader) ([]Cue, Stats, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		cues  []Cue
		stats Stats
	)
	for i, line := range lines {
		if !strings.Contains(line, CueSeparator) {
			continue
		}
		stats.Cues++

		start, end, err := splitTiming(line)
		if err != nil {
			return nil, Stats{}, errors.Wrap(err, "subtitle.parse", "invalid cue timing").WithField("line", i+1)
		}

		text := ""
		if i+1 < len(lines) {
			text = strings.TrimSpace(lines[i+1])
		}
		if text == "" {
			stats.Dropped++
			continue
		}

		cues = append(cues, Cue{Start: start, End: end, Text: text})
		stats.Dialogues++
		if d := end.Duration(); d > stats.LastEnd {
			stats.LastEnd = d
		}
	}
	return cues, stats, nil
}

func splitTiming(line string) (Timestamp, Timestamp, error) {
	rawStart, rest, _ := strings.Cut(strings.TrimSpace(line), CueSeparator)
	start, err := ParseTimestamp(strings.TrimSpace(rawStart))
	if err != nil {
		return Timestamp{}, Timestamp{}, err
	}

	// Cue settings such as "align:start" may follow the end time.
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Timestamp{}, Timestamp{}, errors.MalformedTimestamp(rest)
	}
	end, err := ParseTimestamp(fields[0])
	if err != nil {
		return Timestamp{}, Timestamp{}, err
	}
	return start, end, nil
}

func readLines(r io.Reader) ([]string, error) {
	// Honors UTF-8 and UTF-16 byte order marks, defaulting to UTF-8.
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	sc := bufio.NewScanner(transform.NewReader(r, dec))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Transcode converts WebVTT from r into a styled ASS document on w. Nothing
// is written when the style or any cue timing is invalid.
func Transcode(r io.Reader, w io.Writer, style StyleConfig) (Stats, error) {
	if err := style.Validate(); err != nil {
		return Stats{}, err
	}
	cues, stats, err := ParseCues(r)
	if err != nil {
		return Stats{}, err
	}
	if err := WriteDocument(w, style, cues); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// TranscodeFile converts the WebVTT file at src into an ASS document at dst.
// dst is replaced atomically, so a failed run leaves existing content alone.
func TranscodeFile(src, dst string, style StyleConfig) (Stats, error) {
	in, err := os.Open(src)
	if err != nil {
		return Stats{}, errors.SourceUnreadable(err, "subtitle.read", src)
	}
	defer in.Close()

	if err := style.Validate(); err != nil {
		return Stats{}, err
	}
	cues, stats, err := ParseCues(in)
	if err != nil {
		if errors.GetCode(err) == errors.CodeInternal {
			return Stats{}, errors.SourceUnreadable(err, "subtitle.read", src)
		}
		return Stats{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return Stats{}, errors.DestinationUnwritable(err, "subtitle.write", dst)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := WriteDocument(tmp, style, cues); err != nil {
		tmp.Close()
		return Stats{}, errors.DestinationUnwritable(err, "subtitle.write", dst)
	}
	// CreateTemp files are 0600; keep the mode of the file being replaced.
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(dst); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return Stats{}, errors.DestinationUnwritable(err, "subtitle.write", dst)
	}
	if err := tmp.Close(); err != nil {
		return Stats{}, errors.DestinationUnwritable(err, "subtitle.write", dst)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return Stats{}, errors.DestinationUnwritable(err, "subtitle.write", dst)
	}
	committed = true
	return stats, nil
}
