package reaper

import (
	"context"
	"fmt"

	"github.com/younsl/logreaper/internal/logger"
	"github.com/younsl/logreaper/internal/models"
)

// Runner runs a scan for every inclusion prefix of a policy, one prefix at a time.
type Runner struct {
	scanner *Scanner
	log     *logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(scanner *Scanner, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		scanner: scanner,
		log:     log,
	}
}

// Run scans each prefix in order and stops at the first fatal error.
// The returned result always holds everything processed before the error.
func (r *Runner) Run(ctx context.Context, p models.Policy) (models.RunResult, error) {
	result := models.RunResult{DryRun: r.scanner.DryRun()}
	if err := p.Validate(); err != nil {
		return result, err
	}

	r.log.Info("processing log groups based on rule set", "policy", p.LogFields(), "dryRun", result.DryRun)

	var runErr error
	for _, prefix := range p.InclusionPrefixes {
		partial, err := r.scanner.ScanPrefix(ctx, p, prefix)
		result.Merge(partial)
		if err != nil {
			runErr = fmt.Errorf("error scanning prefix %q: %w", prefix, err)
			break
		}
	}

	if runErr != nil {
		r.log.Error("run failed", "error", runErr)
	}
	r.log.Info("deleted log groups", "count", len(result.Deleted), "logGroups", result.DeletedNames())
	r.log.Info("skipped log groups", "count", len(result.Skipped), "logGroups", result.Skipped)

	return result, runErr
}
