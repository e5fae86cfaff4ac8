package reaper

import (
	"context"
	"fmt"

	"github.com/younsl/logreaper/internal/logger"
	"github.com/younsl/logreaper/internal/models"
	"github.com/younsl/logreaper/pkg/policy"
)

// LogGroupService is the CloudWatch Logs surface a scan needs.
// DeleteLogGroup is best-effort and reports nothing back.
type LogGroupService interface {
	policy.ActivityLookup
	ListLogGroups(ctx context.Context, prefix, pageToken string) (models.LogGroupPage, error)
	DeleteLogGroup(ctx context.Context, name string)
}

// Decider evaluates one log group against a policy.
type Decider interface {
	Evaluate(ctx context.Context, p models.Policy, group models.LogGroup) (models.Decision, error)
}

// Scanner walks every log group under a prefix and deletes the ones the policy allows.
// Groups are handled one at a time, in the order the service returns them.
type Scanner struct {
	service LogGroupService
	decider Decider
	pacer   Pacer
	dryRun  bool
	log     *logger.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPacer sets the pacer used between evaluations.
func WithPacer(p Pacer) Option {
	return func(s *Scanner) { s.pacer = p }
}

// WithDecider replaces the policy evaluator.
func WithDecider(d Decider) Option {
	return func(s *Scanner) { s.decider = d }
}

// WithDryRun reports deletions without performing them.
func WithDryRun(dryRun bool) Option {
	return func(s *Scanner) { s.dryRun = dryRun }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// NewScanner creates a Scanner. Without options it evaluates with policy.Evaluator
// backed by service and does not pace.
func NewScanner(service LogGroupService, opts ...Option) *Scanner {
	s := &Scanner{
		service: service,
		pacer:   NewRatePacer(0),
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.decider == nil {
		s.decider = policy.NewEvaluator(service)
	}
	return s
}

// DryRun reports whether deletions are suppressed.
func (s *Scanner) DryRun() bool {
	return s.dryRun
}

// ScanPrefix pages through the log groups under prefix, evaluating each one.
// On error the groups handled so far are returned with it.
func (s *Scanner) ScanPrefix(ctx context.Context, p models.Policy, prefix string) (models.RunResult, error) {
	result := models.RunResult{DryRun: s.dryRun}
	log := s.log.With("prefix", prefix)

	pageToken := ""
	for pageCount := 1; ; pageCount++ {
		page, err := s.service.ListLogGroups(ctx, prefix, pageToken)
		if err != nil {
			return result, fmt.Errorf("error fetching log groups page %d: %w", pageCount, err)
		}
		log.Debug("fetched log groups page", "page", pageCount, "groups", len(page.Groups))

		for _, group := range page.Groups {
			if err := s.pacer.Wait(ctx); err != nil {
				return result, fmt.Errorf("waiting to evaluate %s: %w", group.Name, err)
			}

			decision, err := s.decider.Evaluate(ctx, p, group)
			if err != nil {
				return result, err
			}

			if !decision.Delete {
				log.Debug("skipping log group", "logGroup", group.Name, "reason", decision.Reason)
				result.Skipped = append(result.Skipped, models.SkippedGroup{
					Name:   group.Name,
					Reason: decision.Reason,
				})
				continue
			}

			if !s.dryRun {
				s.service.DeleteLogGroup(ctx, group.Name)
			}
			result.Deleted = append(result.Deleted, models.DeletedGroup{
				Name:         group.Name,
				StoredBytes:  group.StoredBytes,
				CreationTime: group.CreationTime,
			})
		}

		if page.NextToken == "" {
			return result, nil
		}
		pageToken = page.NextToken
	}
}
