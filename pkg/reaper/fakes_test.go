package reaper

import (
	"context"
	"time"

	"github.com/younsl/logreaper/internal/models"
)

type listCall struct {
	prefix string
	token  string
}

type listResponse struct {
	page models.LogGroupPage
	err  error
}

// fakeService replays scripted pages per prefix and records every call.
type fakeService struct {
	pages         map[string][]listResponse
	listCalls     []listCall
	deleted       []string
	activity      time.Time
	activityCalls int
	filterCount   int
	filterCalls   int
}

func (f *fakeService) ListLogGroups(_ context.Context, prefix, pageToken string) (models.LogGroupPage, error) {
	f.listCalls = append(f.listCalls, listCall{prefix: prefix, token: pageToken})
	responses := f.pages[prefix]
	if len(responses) == 0 {
		return models.LogGroupPage{}, nil
	}
	next := responses[0]
	f.pages[prefix] = responses[1:]
	return next.page, next.err
}

func (f *fakeService) DeleteLogGroup(_ context.Context, name string) {
	f.deleted = append(f.deleted, name)
}

func (f *fakeService) LatestActivity(_ context.Context, _ string) (time.Time, error) {
	f.activityCalls++
	return f.activity, nil
}

func (f *fakeService) SubscriptionFilterCount(_ context.Context, _ string) (int, error) {
	f.filterCalls++
	return f.filterCount, nil
}

// fakeDecider returns a fixed decision per group name; unknown names are deleted.
type fakeDecider struct {
	decisions map[string]models.Decision
	errs      map[string]error
	evaluated []string
}

func (f *fakeDecider) Evaluate(_ context.Context, _ models.Policy, group models.LogGroup) (models.Decision, error) {
	f.evaluated = append(f.evaluated, group.Name)
	if err := f.errs[group.Name]; err != nil {
		return models.Decision{}, err
	}
	if d, ok := f.decisions[group.Name]; ok {
		return d, nil
	}
	return models.DeleteDecision(), nil
}

type countingPacer struct {
	waits int
	err   error
}

func (p *countingPacer) Wait(_ context.Context) error {
	p.waits++
	return p.err
}

func groups(names ...string) []models.LogGroup {
	out := make([]models.LogGroup, 0, len(names))
	for _, name := range names {
		out = append(out, models.LogGroup{Name: name, StoredBytes: 1024})
	}
	return out
}

func onePage(names ...string) []listResponse {
	return []listResponse{{page: models.LogGroupPage{Groups: groups(names...)}}}
}
