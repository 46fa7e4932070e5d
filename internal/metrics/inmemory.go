package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Calculations               map[string]uint64 // keyed by "operation/status"
	CalculationDurationCount   uint64
	CalculationDurationTotalNs int64
	HistoryAppended            uint64
	HistoryDeleted             uint64
	SignUps                    map[string]uint64
	SignIns                    map[string]uint64 // keyed by "method/status"
	RateLimited                map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	calculationDurationCount   uint64
	calculationDurationTotalNs int64
	historyAppended            uint64
	historyDeleted             uint64

	mu           sync.Mutex
	calculations map[string]uint64
	signUps      map[string]uint64
	signIns      map[string]uint64
	rateLimited  map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		calculations: make(map[string]uint64),
		signUps:      make(map[string]uint64),
		signIns:      make(map[string]uint64),
		rateLimited:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Calculations:               copyCounts(m.calculations),
		CalculationDurationCount:   atomic.LoadUint64(&m.calculationDurationCount),
		CalculationDurationTotalNs: atomic.LoadInt64(&m.calculationDurationTotalNs),
		HistoryAppended:            atomic.LoadUint64(&m.historyAppended),
		HistoryDeleted:             atomic.LoadUint64(&m.historyDeleted),
		SignUps:                    copyCounts(m.signUps),
		SignIns:                    copyCounts(m.signIns),
		RateLimited:                copyCounts(m.rateLimited),
	}
}

// IncCalculation counts a compute call by operation and outcome.
func (m *InMemoryRecorder) IncCalculation(operation, status string) {
	m.inc(m.calculations, operation+"/"+status)
}

// ObserveCalculationDuration records compute duration.
func (m *InMemoryRecorder) ObserveCalculationDuration(duration time.Duration) {
	atomic.AddUint64(&m.calculationDurationCount, 1)
	atomic.AddInt64(&m.calculationDurationTotalNs, duration.Nanoseconds())
}

// IncHistoryAppended increments the appended records counter.
func (m *InMemoryRecorder) IncHistoryAppended() {
	atomic.AddUint64(&m.historyAppended, 1)
}

// IncHistoryDeleted increments the deleted records counter.
func (m *InMemoryRecorder) IncHistoryDeleted() {
	atomic.AddUint64(&m.historyDeleted, 1)
}

// IncSignUp counts sign-up attempts by outcome.
func (m *InMemoryRecorder) IncSignUp(status string) {
	m.inc(m.signUps, status)
}

// IncSignIn counts sign-in attempts by method and outcome.
func (m *InMemoryRecorder) IncSignIn(method, status string) {
	m.inc(m.signIns, method+"/"+status)
}

// IncRateLimited counts throttled requests per limiter scope.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	m.inc(m.rateLimited, scope)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
