package draw

// MetricsCollector receives draw session outcomes.
type MetricsCollector interface {
	RecordDraw(tier string, firstDraw bool)
	RecordReset(reason string)
	RecordRejected(reason string)
	RecordStaleCompletion(kind string)
}

type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordDraw(tier string, firstDraw bool) {}
func (NoOpMetricsCollector) RecordReset(reason string)              {}
func (NoOpMetricsCollector) RecordRejected(reason string)           {}
func (NoOpMetricsCollector) RecordStaleCompletion(kind string)      {}
