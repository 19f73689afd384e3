package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/synth"
)

func TestEngineLifecycleGauge(t *testing.T) {
	m := New()

	m.EngineLoaded(2 * time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engineLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engineLoads))

	m.EngineReleased()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.engineLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engineReleases))

	m.EngineLoadFailed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engineFailures))
}

func TestObserveSynthesis(t *testing.T) {
	m := New()

	m.ObserveSynthesis(synth.KindBatch, 3, time.Second, nil)
	m.ObserveSynthesis(synth.KindSingle, 1, time.Second, fmt.Errorf("%w: oom", engine.ErrSynthesis))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("batch", ResultOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.artifacts.WithLabelValues("batch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("single", ResultSynthesis)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.artifacts.WithLabelValues("single")))
}

func TestResult(t *testing.T) {
	cases := map[string]error{
		ResultOK:               nil,
		ResultEmptyText:        synth.ErrEmptyText,
		ResultInvalidReference: fmt.Errorf("%w: empty", synth.ErrInvalidReference),
		ResultConstruction:     fmt.Errorf("%w: no weights", engine.ErrConstruction),
		ResultSynthesis:        fmt.Errorf("%w: %w", engine.ErrSynthesis, &engine.ItemError{Index: 2, Err: errors.New("x")}),
		ResultError:            errors.New("disk full"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Result(err), "error %v", err)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.EngineLoaded(time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "voiceclone_engine_loaded 1")
	assert.Contains(t, string(body), "voiceclone_engine_loads_total 1")
}
