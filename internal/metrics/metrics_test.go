package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Observer) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestObserveStage(t *testing.T) {
	failures := RenderStageFailures.WithLabelValues("mux_audio")
	before := counterValue(t, failures)
	ObserveStage("mux_audio", time.Second, errors.New("boom"))
	assert.Equal(t, before+1, counterValue(t, failures))

	loop := RenderStageDuration.WithLabelValues("loop_background")
	n := histogramCount(t, loop)
	ObserveStage("loop_background", 2*time.Second, nil)
	assert.Equal(t, n+1, histogramCount(t, loop))
}

func TestObserveJob(t *testing.T) {
	done := JobsProcessedTotal.WithLabelValues(OutcomeDone, "")
	failed := JobsProcessedTotal.WithLabelValues(OutcomeFailed, "EXTERNAL_TOOL_FAILURE")
	d0, f0 := counterValue(t, done), counterValue(t, failed)

	ObserveJob(time.Minute, "")
	ObserveJob(time.Second, "EXTERNAL_TOOL_FAILURE")

	assert.Equal(t, d0+1, counterValue(t, done))
	assert.Equal(t, f0+1, counterValue(t, failed))
}
