// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by counters.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Calculator metrics
	IncCalculation(operation, status string)
	ObserveCalculationDuration(duration time.Duration)

	// History metrics
	IncHistoryAppended()
	IncHistoryDeleted()

	// Identity metrics
	IncSignUp(status string)
	IncSignIn(method, status string) // method: "password" or "google"

	IncRateLimited(scope string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
