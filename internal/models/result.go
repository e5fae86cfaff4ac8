package models

import "time"

// SkipReason explains why a log group was kept.
type SkipReason string

// Skip reasons, in the order the evaluator checks them.
const (
	SkipRetention       SkipReason = "retention"
	SkipRecentlyCreated SkipReason = "recently created"
	SkipExcludePattern  SkipReason = "exclude pattern match"
	SkipRecentActivity  SkipReason = "recent activity"
	SkipHasSubscription SkipReason = "has subscriptions"
)

// SkipReasons lists every reason in evaluation order.
var SkipReasons = []SkipReason{
	SkipRetention,
	SkipRecentlyCreated,
	SkipExcludePattern,
	SkipRecentActivity,
	SkipHasSubscription,
}

// Decision is the outcome of evaluating one log group.
type Decision struct {
	Delete bool
	Reason SkipReason // empty when Delete is true
}

// DeleteDecision is returned when no rule protects the group.
func DeleteDecision() Decision {
	return Decision{Delete: true}
}

// SkipDecision keeps the group for the given reason.
func SkipDecision(reason SkipReason) Decision {
	return Decision{Reason: reason}
}

// DeletedGroup records a group the run deleted, or attempted to delete.
type DeletedGroup struct {
	Name         string
	StoredBytes  int64
	CreationTime time.Time
}

// SkippedGroup records a group the run kept and why.
type SkippedGroup struct {
	Name   string
	Reason SkipReason
}

// RunResult accumulates the outcome of a run in scan order.
type RunResult struct {
	Deleted []DeletedGroup
	Skipped []SkippedGroup
	DryRun  bool
}

// Merge appends other's entries after r's.
func (r *RunResult) Merge(other RunResult) {
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// DeletedNames returns the names of deleted groups in order.
func (r RunResult) DeletedNames() []string {
	names := make([]string, 0, len(r.Deleted))
	for _, d := range r.Deleted {
		names = append(names, d.Name)
	}
	return names
}

// ReclaimedBytes sums the stored bytes of deleted groups.
func (r RunResult) ReclaimedBytes() int64 {
	var total int64
	for _, d := range r.Deleted {
		total += d.StoredBytes
	}
	return total
}

// SkipCounts counts skipped groups per reason.
func (r RunResult) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}
