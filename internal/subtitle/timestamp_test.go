package subtitle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subburn/internal/pkg/errors"
)

func TestReformatTimestamp(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"0:01:02.456", "0:01:02.45"},
		{"0:00:02.500", "0:00:02.50"},
		{"00:00:00.000", "00:00:00.00"},
		{"12:34:56.999", "12:34:56.99"},
		{"123:00:00.019", "123:00:00.01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ReformatTimestamp(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestReformatTimestampMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"01:02.456",
		"0:01:02",
		"0:01:02,456",
		"0:01:02.45",
		"0:01:02.4567",
		"0:1:02.456",
		"0:01:02.4a6",
		"a:01:02.456",
		"0:01:02:03.456",
		"0:01:02.456.7",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ReformatTimestamp(in)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeMalformedTimestamp))
		})
	}
}

func TestTimestampDuration(t *testing.T) {
	ts, err := ParseTimestamp("1:02:03.456")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second+456*time.Millisecond, ts.Duration())
}
