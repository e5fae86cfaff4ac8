package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/younsl/logreaper/internal/models"
)

// ActivityLookup answers the two questions that need a remote call.
type ActivityLookup interface {
	LatestActivity(ctx context.Context, name string) (time.Time, error)
	SubscriptionFilterCount(ctx context.Context, name string) (int, error)
}

// Evaluator decides whether a log group should be deleted under a policy.
type Evaluator struct {
	lookup ActivityLookup
	now    func() time.Time
}

// NewEvaluator creates an Evaluator backed by lookup.
func NewEvaluator(lookup ActivityLookup) *Evaluator {
	return &Evaluator{
		lookup: lookup,
		now:    time.Now,
	}
}

// Evaluate runs the policy rules against group in a fixed order and stops at
// the first rule that protects it. Rules that need no remote call come first.
// A failed remote lookup aborts the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, p models.Policy, group models.LogGroup) (models.Decision, error) {
	now := e.now()

	if p.ExcludeRetention && group.HasRetention() {
		return models.SkipDecision(models.SkipRetention), nil
	}
	if p.MinAge != nil && now.Sub(group.CreationTime) < *p.MinAge {
		return models.SkipDecision(models.SkipRecentlyCreated), nil
	}
	if p.MatchesExclusion(group.Name) != nil {
		return models.SkipDecision(models.SkipExcludePattern), nil
	}

	if p.LastActivity != nil {
		lastActivity, err := e.lookup.LatestActivity(ctx, group.Name)
		if err != nil {
			return models.Decision{}, fmt.Errorf("checking activity of %s: %w", group.Name, err)
		}
		if now.Sub(lastActivity) < *p.LastActivity {
			return models.SkipDecision(models.SkipRecentActivity), nil
		}
	}

	if p.ExcludeSubscribed {
		count, err := e.lookup.SubscriptionFilterCount(ctx, group.Name)
		if err != nil {
			return models.Decision{}, fmt.Errorf("checking subscriptions of %s: %w", group.Name, err)
		}
		if count > 0 {
			return models.SkipDecision(models.SkipHasSubscription), nil
		}
	}

	return models.DeleteDecision(), nil
}
