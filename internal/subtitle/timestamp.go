package subtitle

import (
	"strconv"
	"strings"
	"time"

	"subburn/internal/pkg/errors"
)

// Timestamp is a WebVTT cue time split into its textual parts. The parts are
// kept verbatim so reformatting never changes hours, minutes or seconds.
type Timestamp struct {
	Hours    string
	Minutes  string
	Seconds  string
	Fraction string
}

// ParseTimestamp parses H:MM:SS.mmm. Hours may have any number of digits.
func ParseTimestamp(s string) (Timestamp, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Timestamp{}, errors.MalformedTimestamp(s)
	}
	secFrac := strings.Split(parts[2], ".")
	if len(secFrac) != 2 {
		return Timestamp{}, errors.MalformedTimestamp(s)
	}

	ts := Timestamp{
		Hours:    parts[0],
		Minutes:  parts[1],
		Seconds:  secFrac[0],
		Fraction: secFrac[1],
	}
	if !digits(ts.Hours, 1, -1) || !digits(ts.Minutes, 2, 2) || !digits(ts.Seconds, 2, 2) || !digits(ts.Fraction, 3, 3) {
		return Timestamp{}, errors.MalformedTimestamp(s)
	}
	return ts, nil
}

// ASS formats the timestamp as H:MM:SS.cc, truncating the fraction to
// centiseconds.
func (t Timestamp) ASS() string {
	return t.Hours + ":" + t.Minutes + ":" + t.Seconds + "." + t.Fraction[:2]
}

// Duration returns the offset from the start of the media.
func (t Timestamp) Duration() time.Duration {
	h, _ := strconv.Atoi(t.Hours)
	m, _ := strconv.Atoi(t.Minutes)
	s, _ := strconv.Atoi(t.Seconds)
	ms, _ := strconv.Atoi(t.Fraction)
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// ReformatTimestamp converts H:MM:SS.mmm into H:MM:SS.cc.
func ReformatTimestamp(s string) (string, error) {
	ts, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return ts.ASS(), nil
}

// digits reports whether s is all ASCII digits with length in [min, max].
// A negative max means unbounded.
func digits(s string, min, max int) bool {
	if len(s) < min || (max >= 0 && len(s) > max) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
