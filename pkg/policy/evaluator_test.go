package policy

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/logreaper/internal/models"
)

type fakeLookup struct {
	activity      time.Time
	activityErr   error
	activityCalls int
	filters       int
	filtersErr    error
	filterCalls   int
}

func (f *fakeLookup) LatestActivity(_ context.Context, _ string) (time.Time, error) {
	f.activityCalls++
	return f.activity, f.activityErr
}

func (f *fakeLookup) SubscriptionFilterCount(_ context.Context, _ string) (int, error) {
	f.filterCalls++
	return f.filters, f.filtersErr
}

var testNow = time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)

func newTestEvaluator(lookup *fakeLookup) *Evaluator {
	e := NewEvaluator(lookup)
	e.now = func() time.Time { return testNow }
	return e
}

func hours(h float64) *time.Duration {
	d := time.Duration(h * float64(time.Hour))
	return &d
}

func days(n int32) *int32 {
	return &n
}

// strictPolicy turns every rule on.
func strictPolicy() models.Policy {
	return models.Policy{
		InclusionPrefixes: []string{"/"},
		ExclusionPatterns: []*regexp.Regexp{regexp.MustCompile("^Test"), regexp.MustCompile("^Name")},
		MinAge:            hours(2),
		LastActivity:      hours(1),
		ExcludeRetention:  true,
		ExcludeSubscribed: true,
	}
}

func TestEvaluateRuleOrder(t *testing.T) {
	protected := models.LogGroup{
		Name:            "Name",
		CreationTime:    testNow,
		RetentionInDays: days(1),
	}

	tests := []struct {
		name        string
		policy      func(p *models.Policy)
		want        models.Decision
		activity    int
		filterCalls int
	}{
		{
			name:   "retention first",
			policy: func(p *models.Policy) {},
			want:   models.SkipDecision(models.SkipRetention),
		},
		{
			name:   "recently created",
			policy: func(p *models.Policy) { p.ExcludeRetention = false },
			want:   models.SkipDecision(models.SkipRecentlyCreated),
		},
		{
			name: "exclusion pattern",
			policy: func(p *models.Policy) {
				p.ExcludeRetention = false
				p.MinAge = nil
			},
			want: models.SkipDecision(models.SkipExcludePattern),
		},
		{
			name: "recent activity",
			policy: func(p *models.Policy) {
				p.ExcludeRetention = false
				p.MinAge = nil
				p.ExclusionPatterns = nil
			},
			want:     models.SkipDecision(models.SkipRecentActivity),
			activity: 1,
		},
		{
			name: "subscriptions",
			policy: func(p *models.Policy) {
				p.ExcludeRetention = false
				p.MinAge = nil
				p.ExclusionPatterns = nil
				p.LastActivity = nil
			},
			want:        models.SkipDecision(models.SkipHasSubscription),
			filterCalls: 1,
		},
		{
			name: "nothing protects the group",
			policy: func(p *models.Policy) {
				p.ExcludeRetention = false
				p.MinAge = nil
				p.ExclusionPatterns = nil
				p.LastActivity = nil
				p.ExcludeSubscribed = false
			},
			want: models.DeleteDecision(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{activity: testNow, filters: 1}
			p := strictPolicy()
			tt.policy(&p)

			got, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, protected)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.activity, lookup.activityCalls, "activity lookups")
			assert.Equal(t, tt.filterCalls, lookup.filterCalls, "subscription lookups")
		})
	}
}

func TestEvaluateDeletesWhenAllRulesPass(t *testing.T) {
	lookup := &fakeLookup{activity: testNow.Add(-2 * time.Hour)}
	group := models.LogGroup{Name: "A name", CreationTime: testNow.Add(-3 * time.Hour)}

	got, err := newTestEvaluator(lookup).Evaluate(context.Background(), strictPolicy(), group)
	require.NoError(t, err)
	assert.True(t, got.Delete)
	assert.Empty(t, got.Reason)
	assert.Equal(t, 1, lookup.activityCalls)
	assert.Equal(t, 1, lookup.filterCalls)
}

func TestEvaluateRetentionMakesNoRemoteCalls(t *testing.T) {
	lookup := &fakeLookup{}
	p := models.Policy{InclusionPrefixes: []string{"/"}, ExcludeRetention: true, LastActivity: hours(1), ExcludeSubscribed: true}
	group := models.LogGroup{Name: "/aws/lambda/kept", CreationTime: testNow.Add(-1000 * time.Hour), RetentionInDays: days(30)}

	got, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, group)
	require.NoError(t, err)
	assert.Equal(t, models.SkipDecision(models.SkipRetention), got)
	assert.Zero(t, lookup.activityCalls)
	assert.Zero(t, lookup.filterCalls)
}

func TestEvaluateRetentionIgnoredWhenFlagOff(t *testing.T) {
	p := models.Policy{InclusionPrefixes: []string{"/"}}
	group := models.LogGroup{Name: "/app", CreationTime: testNow.Add(-time.Hour), RetentionInDays: days(30)}

	got, err := newTestEvaluator(&fakeLookup{}).Evaluate(context.Background(), p, group)
	require.NoError(t, err)
	assert.True(t, got.Delete)
}

func TestEvaluateMinAge(t *testing.T) {
	p := models.Policy{InclusionPrefixes: []string{"/"}, MinAge: hours(48)}

	tests := []struct {
		name string
		age  time.Duration
		want models.Decision
	}{
		{name: "older than threshold", age: 72 * time.Hour, want: models.DeleteDecision()},
		{name: "younger than threshold", age: 10 * time.Hour, want: models.SkipDecision(models.SkipRecentlyCreated)},
		{name: "exactly at threshold", age: 48 * time.Hour, want: models.DeleteDecision()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := models.LogGroup{Name: "/app/" + tt.name, CreationTime: testNow.Add(-tt.age)}
			got, err := newTestEvaluator(&fakeLookup{}).Evaluate(context.Background(), p, group)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateNoMinAgeAlwaysPassesAgeRule(t *testing.T) {
	p := models.Policy{InclusionPrefixes: []string{"/"}}
	group := models.LogGroup{Name: "/app/new", CreationTime: testNow}

	got, err := newTestEvaluator(&fakeLookup{}).Evaluate(context.Background(), p, group)
	require.NoError(t, err)
	assert.True(t, got.Delete)
}

func TestEvaluateExclusionPatterns(t *testing.T) {
	p := models.Policy{
		InclusionPrefixes: []string{"/"},
		ExclusionPatterns: []*regexp.Regexp{regexp.MustCompile("prod"), regexp.MustCompile(`^/aws/rds/`)},
	}

	tests := []struct {
		name string
		want bool
	}{
		{"/aws/lambda/orders-prod-handler", true},
		{"/aws/rds/instance/db-1/error", true},
		{"/aws/lambda/orders-staging", false},
		{"/custom/aws/rds/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestEvaluator(&fakeLookup{}).Evaluate(context.Background(), p, models.LogGroup{Name: tt.name})
			require.NoError(t, err)
			if tt.want {
				assert.Equal(t, models.SkipDecision(models.SkipExcludePattern), got)
			} else {
				assert.NotEqual(t, models.SkipExcludePattern, got.Reason)
			}
		})
	}
}

func TestEvaluateActivity(t *testing.T) {
	p := models.Policy{InclusionPrefixes: []string{"/"}, LastActivity: hours(1)}
	group := models.LogGroup{Name: "/app"}

	t.Run("recent activity skips", func(t *testing.T) {
		lookup := &fakeLookup{activity: testNow.Add(-30 * time.Minute)}
		got, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, group)
		require.NoError(t, err)
		assert.Equal(t, models.SkipDecision(models.SkipRecentActivity), got)
	})

	t.Run("old activity proceeds to next rule", func(t *testing.T) {
		lookup := &fakeLookup{activity: testNow.Add(-2 * time.Hour)}
		p := p
		p.ExcludeSubscribed = true
		got, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, group)
		require.NoError(t, err)
		assert.True(t, got.Delete)
		assert.Equal(t, 1, lookup.filterCalls)
	})

	t.Run("no streams is inactive", func(t *testing.T) {
		lookup := &fakeLookup{activity: time.Time{}}
		got, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, group)
		require.NoError(t, err)
		assert.True(t, got.Delete)
	})
}

func TestEvaluateNoActivityThresholdSkipsLookup(t *testing.T) {
	lookup := &fakeLookup{activity: testNow}
	p := models.Policy{InclusionPrefixes: []string{"/"}}

	got, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, models.LogGroup{Name: "/app"})
	require.NoError(t, err)
	assert.True(t, got.Delete)
	assert.Zero(t, lookup.activityCalls)
	assert.Zero(t, lookup.filterCalls)
}

func TestEvaluateLookupErrors(t *testing.T) {
	boom := errors.New("throttled")

	t.Run("activity", func(t *testing.T) {
		lookup := &fakeLookup{activityErr: boom}
		p := models.Policy{InclusionPrefixes: []string{"/"}, LastActivity: hours(1), ExcludeSubscribed: true}
		_, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, models.LogGroup{Name: "/app"})
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, lookup.filterCalls)
	})

	t.Run("subscriptions", func(t *testing.T) {
		lookup := &fakeLookup{filtersErr: boom}
		p := models.Policy{InclusionPrefixes: []string{"/"}, ExcludeSubscribed: true}
		_, err := newTestEvaluator(lookup).Evaluate(context.Background(), p, models.LogGroup{Name: "/app"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestEvaluateIsIdempotent(t *testing.T) {
	lookup := &fakeLookup{activity: testNow.Add(-2 * time.Hour)}
	e := newTestEvaluator(lookup)
	group := models.LogGroup{Name: "/app", CreationTime: testNow.Add(-100 * time.Hour)}

	first, err := e.Evaluate(context.Background(), strictPolicy(), group)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), strictPolicy(), group)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
