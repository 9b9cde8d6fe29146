package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveMessage("snapshot")
	r.ObserveMessage("delta")
	r.ObserveMessage("delta")
	r.ObserveEvent("market_buy")
	r.ObserveRecord(true, 0)
	r.ObserveRecord(false, 3)
	r.ObserveSkip(4, errors.New("bad line"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Messages.WithLabelValues("delta")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Events.WithLabelValues("market_buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Records.WithLabelValues("surfaced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Records.WithLabelValues("gated")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.DroppedEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Malformed))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestRecorderWithoutRegistry(t *testing.T) {
	r := New(nil)
	r.ObserveEvent("buy_limit_added")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Events.WithLabelValues("buy_limit_added")))
}
