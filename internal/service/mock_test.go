package service

import (
	"context"

	"ratematch/internal/facts"
	"ratematch/internal/rates"
	"ratematch/internal/repository"
)

type mockRefreshJobRepo struct {
	createFunc      func(ctx context.Context, id, source string) (string, repository.Status, error)
	markRunningFunc func(ctx context.Context, id string) error
	markSuccessFunc func(ctx context.Context, id, providerBase string, symbols int) error
	markFailedFunc  func(ctx context.Context, id, errorMsg string) error
	getByIDFunc     func(ctx context.Context, id string) (*repository.RefreshJob, error)
}

func (m *mockRefreshJobRepo) Create(ctx context.Context, id, source string) (string, repository.Status, error) {
	return m.createFunc(ctx, id, source)
}

func (m *mockRefreshJobRepo) MarkRunning(ctx context.Context, id string) error {
	return m.markRunningFunc(ctx, id)
}

func (m *mockRefreshJobRepo) MarkSuccess(ctx context.Context, id, providerBase string, symbols int) error {
	return m.markSuccessFunc(ctx, id, providerBase, symbols)
}

func (m *mockRefreshJobRepo) MarkFailed(ctx context.Context, id, errorMsg string) error {
	if m.markFailedFunc == nil {
		return nil
	}
	return m.markFailedFunc(ctx, id, errorMsg)
}

func (m *mockRefreshJobRepo) GetByID(ctx context.Context, id string) (*repository.RefreshJob, error) {
	return m.getByIDFunc(ctx, id)
}

type mockSource struct {
	fetchFunc func(ctx context.Context) (*rates.Snapshot, error)
}

func (m *mockSource) Fetch(ctx context.Context) (*rates.Snapshot, error) {
	return m.fetchFunc(ctx)
}

type mockEnqueuer struct {
	enqueueFunc func(ctx context.Context, payload RefreshRatesPayload) error
}

func (m *mockEnqueuer) EnqueueRefreshTask(ctx context.Context, payload RefreshRatesPayload) error {
	return m.enqueueFunc(ctx, payload)
}

type mockFacts struct {
	startFunc  func(symbol string, class rates.Class) (string, error)
	getFunc    func(id string) (facts.Fact, error)
	cancelFunc func(id string) error
	followFunc func(ctx context.Context, id string, fn func(string)) (facts.Fact, error)
}

func (m *mockFacts) Start(symbol string, class rates.Class) (string, error) {
	if m.startFunc == nil {
		return "", facts.ErrFactsDisabled
	}
	return m.startFunc(symbol, class)
}

func (m *mockFacts) Get(id string) (facts.Fact, error) { return m.getFunc(id) }

func (m *mockFacts) Cancel(id string) error { return m.cancelFunc(id) }

func (m *mockFacts) Follow(ctx context.Context, id string, fn func(string)) (facts.Fact, error) {
	return m.followFunc(ctx, id, fn)
}
