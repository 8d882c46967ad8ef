package metrics

import "time"

// Attempt outcomes reported by the balance mutation engine.
const (
	OutcomeSuccess          = "success"
	OutcomeValidationFailed = "validation_failed"
	OutcomeConflict         = "conflict"
	OutcomeFatal            = "fatal"
	OutcomeCanceled         = "canceled"
)

// Collector records balance mutation metrics. Implementations must be safe
// for concurrent use and must never influence control flow.
type Collector interface {
	// RecordAttempt counts one single-attempt engine run by outcome.
	RecordAttempt(outcome string)
	// RecordRetry counts a conflict that was converted into another attempt.
	RecordRetry()
	// RecordConflictExhausted counts logical updates that gave up on conflicts.
	RecordConflictExhausted()
	// RecordUpdate observes the end-to-end latency of a logical update.
	RecordUpdate(outcome string, duration time.Duration)
}

// NoOpCollector is the default collector when metrics are not needed.
type NoOpCollector struct{}

// RecordAttempt does nothing.
func (NoOpCollector) RecordAttempt(string) {}

// RecordRetry does nothing.
func (NoOpCollector) RecordRetry() {}

// RecordConflictExhausted does nothing.
func (NoOpCollector) RecordConflictExhausted() {}

// RecordUpdate does nothing.
func (NoOpCollector) RecordUpdate(string, time.Duration) {}
