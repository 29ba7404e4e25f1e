package fallback

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/riskwise/internal/metrics"
)

func loggedContext(buf *bytes.Buffer) context.Context {
	logger := zerolog.New(buf)
	return logger.WithContext(context.Background())
}

func TestAttempt_Success(t *testing.T) {
	var buf bytes.Buffer
	v := Attempt(loggedContext(&buf), KindGateway, "test.success", func(context.Context) (int, error) {
		return 7, nil
	})

	assert.True(t, v.OK)
	assert.Equal(t, 7, v.Val)
	assert.NoError(t, v.Err)
	assert.Empty(t, buf.String())
}

func TestAttempt_Error(t *testing.T) {
	var buf bytes.Buffer
	before := testutil.ToFloat64(metrics.Fallbacks.WithLabelValues(string(KindGateway)))
	boom := errors.New("boom")

	v := Attempt(loggedContext(&buf), KindGateway, "test.error", func(context.Context) (string, error) {
		return "ignored", boom
	})

	assert.False(t, v.OK)
	assert.ErrorIs(t, v.Err, boom)
	assert.Equal(t, "default", v.Or("default"))
	assert.Contains(t, buf.String(), `"kind":"gateway"`)
	assert.Contains(t, buf.String(), `"site":"test.error"`)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Fallbacks.WithLabelValues(string(KindGateway))))
}

func TestAttempt_RecoversPanic(t *testing.T) {
	var buf bytes.Buffer

	var v Value[[]int]
	require.NotPanics(t, func() {
		v = Attempt(loggedContext(&buf), KindModelUnavailable, "test.panic", func(context.Context) ([]int, error) {
			var idx []int
			return []int{idx[3]}, nil
		})
	})

	assert.False(t, v.OK)
	var pe *PanicError
	assert.ErrorAs(t, v.Err, &pe)
	assert.Contains(t, buf.String(), "model_unavailable")
}

func TestAttempt_NoContextLogger(t *testing.T) {
	v := Attempt(context.Background(), KindExtraction, "test.nologger", func(context.Context) (int, error) {
		return 0, errors.New("nothing usable")
	})
	assert.False(t, v.OK)
	assert.Equal(t, 3, v.Or(3))
}

func TestNote(t *testing.T) {
	var buf bytes.Buffer
	Note(loggedContext(&buf), KindSchemaDrift, "test.note", errors.New("missing features: job"))
	assert.Contains(t, buf.String(), "schema_drift")
	assert.Contains(t, buf.String(), "missing features: job")
}
