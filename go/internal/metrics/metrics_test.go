package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/icebreaker/go/internal/draw"
	"github.com/mcdev12/icebreaker/go/internal/events"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

var (
	_ draw.MetricsCollector    = (*Collector)(nil)
	_ records.MetricsCollector = (*Collector)(nil)
	_ events.MetricsCollector  = (*Collector)(nil)
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.RecordDraw("iceBreaking", true)
	c.RecordDraw("iceBreaking", true)
	c.RecordDraw("deepConnection", false)
	c.RecordReset(draw.ResetReasonCountdown)
	c.RecordRejected("not_allowed")
	c.RecordStaleCompletion("selection")
	c.RecordStoreCall(records.BackendMemory, "append", false, 10*time.Millisecond)
	c.RecordEventPublished("DrawStarted", true, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.DrawsTotal.WithLabelValues("iceBreaking", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DrawsTotal.WithLabelValues("deepConnection", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ResetsTotal.WithLabelValues("countdown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RejectedTotal.WithLabelValues("not_allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StaleTotal.WithLabelValues("selection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreCallsTotal.WithLabelValues("memory", "append", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EventsTotal.WithLabelValues("DrawStarted", "success")))
}

func TestRegisterGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	pending := 3.0
	c.RegisterGauge("pending_callbacks", "Callback registrations waiting for a response", func() float64 { return pending })

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "icebreaker_pending_callbacks" {
			found = true
			assert.Equal(t, 3.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}
