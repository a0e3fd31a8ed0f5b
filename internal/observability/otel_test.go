package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "triage", "test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMetrics_RecordOnGlobalMeter(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordLLMCall(context.Background(), "propose", nil)
		m.RecordLLMCall(context.Background(), "finalize", errors.New("timeout"))
		m.RecordDetection(context.Background(), 15*time.Millisecond, 3)
	})
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLLMCall(context.Background(), "propose", nil)
		m.RecordDetection(context.Background(), time.Second, 0)
	})
}

func TestEndSpan_RecordsError(t *testing.T) {
	_, span := StartSpan(context.Background(), "test")
	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })
}
