package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns prefix_<32 hex chars>, e.g. job_3f0c...; ids sort randomly.
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
