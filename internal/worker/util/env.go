package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Env returns the trimmed value of k, or def when it is unset or blank.
func Env(k, def string) string {
	if v, ok := lookup(k); ok {
		return v
	}
	return def
}

// MustEnv is for settings a process cannot start without.
func MustEnv(k string) string {
	v, ok := lookup(k)
	if !ok {
		panic("missing env: " + k)
	}
	return v
}

func BoolEnv(k string, def bool) bool {
	return parsed(k, def, strconv.ParseBool)
}

func IntEnv(k string, def int) int {
	return parsed(k, def, strconv.Atoi)
}

// DurationEnv accepts Go durations ("90s", "30m") or a bare number of
// seconds. Non-positive values fall back to def.
func DurationEnv(k string, def time.Duration) time.Duration {
	d := parsed(k, def, func(v string) (time.Duration, error) {
		if d, err := time.ParseDuration(v); err == nil {
			return d, nil
		}
		secs, err := strconv.ParseFloat(v, 64)
		return time.Duration(secs * float64(time.Second)), err
	})
	if d <= 0 {
		return def
	}
	return d
}

func lookup(k string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	return v, v != ""
}

// parsed returns def for unset and for unparsable values alike.
func parsed[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := lookup(k)
	if !ok {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}
