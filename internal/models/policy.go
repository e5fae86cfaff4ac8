package models

import (
	"errors"
	"regexp"
	"time"
)

// ErrNoInclusionPrefixes is returned when a policy has nothing to scan.
var ErrNoInclusionPrefixes = errors.New("at least one inclusion prefix is required")

// Policy is the retention rule set applied to every log group in one run.
// It is built once from the trigger payload and never mutated afterwards.
type Policy struct {
	// InclusionPrefixes are scanned one after another. An empty string matches every group.
	InclusionPrefixes []string

	// ExclusionPatterns protect any group whose name they match (unanchored).
	ExclusionPatterns []*regexp.Regexp

	// MinAge skips groups created more recently than this. nil disables the rule.
	MinAge *time.Duration

	// LastActivity skips groups written to more recently than this. nil disables the rule
	// and the stream lookup behind it.
	LastActivity *time.Duration

	ExcludeRetention  bool
	ExcludeSubscribed bool
}

// Validate checks the invariants the scan relies on.
func (p Policy) Validate() error {
	if len(p.InclusionPrefixes) == 0 {
		return ErrNoInclusionPrefixes
	}
	return nil
}

// MatchesExclusion returns the first exclusion pattern matching name, or nil.
func (p Policy) MatchesExclusion(name string) *regexp.Regexp {
	for _, pattern := range p.ExclusionPatterns {
		if pattern.MatchString(name) {
			return pattern
		}
	}
	return nil
}

// LogFields flattens the policy into loggable fields.
func (p Policy) LogFields() map[string]any {
	patterns := make([]string, 0, len(p.ExclusionPatterns))
	for _, pattern := range p.ExclusionPatterns {
		patterns = append(patterns, pattern.String())
	}

	fields := map[string]any{
		"inclusionPrefixes": p.InclusionPrefixes,
		"exclusionPatterns": patterns,
		"excludeRetention":  p.ExcludeRetention,
		"excludeSubscribed": p.ExcludeSubscribed,
	}
	if p.MinAge != nil {
		fields["minAgeHours"] = p.MinAge.Hours()
	}
	if p.LastActivity != nil {
		fields["lastActivityHours"] = p.LastActivity.Hours()
	}
	return fields
}
