package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	evaluationCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		evaluationCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEvaluation counts breach evaluations by dimension and mode
// (stored/live).
func (m *Metrics) RecordEvaluation(dimension, mode string) {
	if m == nil {
		return
	}
	key := dimension + "|" + mode
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluationCount[key]++
}

// EvaluationCount returns the counter for a dimension/mode pair.
func (m *Metrics) EvaluationCount(dimension, mode string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluationCount[dimension+"|"+mode]
}
