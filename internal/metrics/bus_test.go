// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestBusCounters(t *testing.T) {
	tests := []struct {
		name    string
		inc     func()
		counter prometheus.Counter
	}{
		{"emitted", func() { IncEmitted("orders.placed") }, EventsEmittedTotal.WithLabelValues("orders.placed")},
		{"published", func() { IncPublished("orders.placed") }, EventsPublishedTotal.WithLabelValues("orders.placed")},
		{"handler error", func() { IncHandlerError(PhaseDeferred) }, HandlerErrorsTotal.WithLabelValues(PhaseDeferred)},
		{"skipped", func() { IncPublishSkipped("status") }, PublishSkippedTotal.WithLabelValues("status")},
		{"empty label", func() { IncEmitted("") }, EventsEmittedTotal.WithLabelValues("unknown")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := getCounterValue(t, tt.counter)
			tt.inc()
			assert.Equal(t, before+1, getCounterValue(t, tt.counter))
		})
	}
}

func TestObservePublish(t *testing.T) {
	metric := &dto.Metric{}
	require.NoError(t, PublishDuration.Write(metric))
	before := metric.GetHistogram().GetSampleCount()

	ObservePublish(0.01)

	require.NoError(t, PublishDuration.Write(metric))
	assert.Equal(t, before+1, metric.GetHistogram().GetSampleCount())
}
