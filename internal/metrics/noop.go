package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncCalculation(operation, status string) {}

func (n *NoopRecorder) ObserveCalculationDuration(duration time.Duration) {}

func (n *NoopRecorder) IncHistoryAppended() {}

func (n *NoopRecorder) IncHistoryDeleted() {}

func (n *NoopRecorder) IncSignUp(status string) {}

func (n *NoopRecorder) IncSignIn(method, status string) {}

func (n *NoopRecorder) IncRateLimited(scope string) {}
