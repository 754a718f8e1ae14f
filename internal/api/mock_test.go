package api

import (
	"context"

	"ratematch/internal/facts"
	"ratematch/internal/service"
)

// mockRateService implements service.RateServiceInterface for testing.
type mockRateService struct {
	currentBaseFunc    func() string
	setBaseFunc        func(base string) (string, error)
	ratesFunc          func(class string) (*service.RatesResult, error)
	matchFunc          func(value, class string) (*service.MatchResult, error)
	requestRefreshFunc func(ctx context.Context) (string, string, error)
	getRefreshJobFunc  func(ctx context.Context, jobID string) (*service.RefreshJobResult, error)
	getFactFunc        func(factID string) (*facts.Fact, error)
	cancelFactFunc     func(factID string) error
	followFactFunc     func(ctx context.Context, factID string, fn func(string)) (*facts.Fact, error)
}

func (m *mockRateService) CurrentBase() string { return m.currentBaseFunc() }

func (m *mockRateService) SetBase(base string) (string, error) { return m.setBaseFunc(base) }

func (m *mockRateService) Rates(class string) (*service.RatesResult, error) {
	return m.ratesFunc(class)
}

func (m *mockRateService) Match(value, class string) (*service.MatchResult, error) {
	return m.matchFunc(value, class)
}

func (m *mockRateService) RequestRefresh(ctx context.Context) (string, string, error) {
	return m.requestRefreshFunc(ctx)
}

func (m *mockRateService) GetRefreshJob(ctx context.Context, jobID string) (*service.RefreshJobResult, error) {
	return m.getRefreshJobFunc(ctx, jobID)
}

func (m *mockRateService) ProcessRefresh(_ context.Context, _ string) error {
	return nil // Not used in handler tests
}

func (m *mockRateService) GetFact(factID string) (*facts.Fact, error) {
	return m.getFactFunc(factID)
}

func (m *mockRateService) CancelFact(factID string) error { return m.cancelFactFunc(factID) }

func (m *mockRateService) FollowFact(ctx context.Context, factID string, fn func(string)) (*facts.Fact, error) {
	return m.followFactFunc(ctx, factID, fn)
}
