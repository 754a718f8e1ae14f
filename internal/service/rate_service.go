// Package service implements the application logic on top of the rate table:
// base switching, nearest-rate matching, background refreshes and fact tasks.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ratematch/internal/facts"
	"ratematch/internal/metrics"
	"ratematch/internal/provider"
	"ratematch/internal/rates"
	"ratematch/internal/repository"
)

// RateServiceInterface defines the operations available to the HTTP layer and the worker.
type RateServiceInterface interface {
	CurrentBase() string
	SetBase(base string) (string, error)
	Rates(class string) (*RatesResult, error)
	Match(value, class string) (*MatchResult, error)
	RequestRefresh(ctx context.Context) (jobID, status string, err error)
	GetRefreshJob(ctx context.Context, jobID string) (*RefreshJobResult, error)
	ProcessRefresh(ctx context.Context, jobID string) error
	GetFact(factID string) (*facts.Fact, error)
	CancelFact(factID string) error
	FollowFact(ctx context.Context, factID string, fn func(fragment string)) (*facts.Fact, error)
}

// TaskEnqueuer schedules background refresh tasks.
type TaskEnqueuer interface {
	EnqueueRefreshTask(ctx context.Context, payload RefreshRatesPayload) error
}

// FactManager runs fact tasks. *facts.Manager implements it, including as a nil pointer.
type FactManager interface {
	Start(symbol string, class rates.Class) (string, error)
	Get(id string) (facts.Fact, error)
	Cancel(id string) error
	Follow(ctx context.Context, id string, fn func(fragment string)) (facts.Fact, error)
}

// TaskTypeRefreshRates is the Asynq task type for rate refresh jobs.
const TaskTypeRefreshRates = "rates:refresh"

// RefreshRatesPayload is the payload of a refresh task. An empty JobID marks a
// scheduled run that creates its own job record.
type RefreshRatesPayload struct {
	JobID string `json:"job_id,omitempty"`
}

// RateService wires the rate table to its source, the job store and the fact manager.
type RateService struct {
	table      *rates.Table
	source     provider.SnapshotSource
	sourceName string
	repo       repository.RefreshJobRepository
	enqueuer   TaskEnqueuer
	facts      FactManager
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
}

// Deps groups the collaborators of a RateService.
type Deps struct {
	Table      *rates.Table
	Source     provider.SnapshotSource
	SourceName string
	Repo       repository.RefreshJobRepository
	Enqueuer   TaskEnqueuer
	Facts      FactManager
	Metrics    *metrics.Metrics
}

// NewRateService creates a new RateService. A nil Facts disables fun facts.
func NewRateService(deps Deps, logger *zap.SugaredLogger) *RateService {
	if deps.Facts == nil {
		deps.Facts = (*facts.Manager)(nil)
	}
	return &RateService{
		table:      deps.Table,
		source:     deps.Source,
		sourceName: deps.SourceName,
		repo:       deps.Repo,
		enqueuer:   deps.Enqueuer,
		facts:      deps.Facts,
		metrics:    deps.Metrics,
		log:        logger,
	}
}

// CurrentBase returns the base the table is expressed in.
func (s *RateService) CurrentBase() string {
	return s.table.Base()
}

// SetBase switches the table to a new base and returns the normalized code.
func (s *RateService) SetBase(base string) (string, error) {
	prev := s.table.Base()
	if err := s.table.SetBase(base); err != nil {
		s.log.Warnw("Base change rejected", "requested", base, "current", prev, "error", err)
		return "", err
	}
	current := s.table.Base()
	s.metrics.RecordBaseChange()
	s.log.Infow("Base changed", "from", prev, "to", current)
	return current, nil
}

// Rates returns the recalculated table. An empty class returns both classes.
func (s *RateService) Rates(class string) (*RatesResult, error) {
	view := s.table.View()
	res := &RatesResult{Base: view.Base}
	if class == "" {
		res.Fiat, res.Alt = view.Fiat, view.Alt
		return res, nil
	}

	cls, err := rates.ParseClass(class)
	if err != nil {
		return nil, err
	}
	if cls == rates.ClassFiat {
		res.Fiat = view.Fiat
	} else {
		res.Alt = view.Alt
	}
	return res, nil
}

// Match finds the symbol whose rate is nearest to value and starts a fact task
// for it. A fact that cannot be started does not fail the match.
func (s *RateService) Match(value, class string) (*MatchResult, error) {
	cls, err := rates.ParseClass(class)
	if err != nil {
		return nil, err
	}

	m, err := s.table.NearestString(value, cls)
	s.metrics.RecordMatch(string(cls), err)
	if err != nil {
		return nil, err
	}

	res := &MatchResult{
		Symbol: m.Symbol,
		Rate:   m.Rate,
		Base:   m.Base,
		Class:  m.Class,
	}

	factID, err := s.facts.Start(m.Symbol, m.Class)
	switch {
	case err == nil:
		res.FactID = factID
	case errors.Is(err, facts.ErrFactsDisabled):
	default:
		s.log.Warnw("Failed to start fact", "symbol", m.Symbol, "error", err)
	}

	s.log.Infow("Matched rate", "value", value, "class", cls, "symbol", m.Symbol, "rate", m.Rate, "base", m.Base)
	return res, nil
}

// RequestRefresh creates a refresh job and enqueues it. While a refresh is
// already pending or running its ID and current status are returned instead.
func (s *RateService) RequestRefresh(ctx context.Context) (jobID, status string, err error) {
	uid := uuid.New().String()
	id, stored, err := s.repo.Create(ctx, uid, s.sourceName)
	if err != nil {
		s.log.Errorw("Create refresh job DB error", "error", err)
		return "", "", ErrInternal
	}

	if id != uid {
		return id, string(stored), nil
	}

	if err := s.enqueuer.EnqueueRefreshTask(ctx, RefreshRatesPayload{JobID: id}); err != nil {
		s.log.Errorw("Failed to enqueue refresh task", "job_id", id, "error", err)
		s.markFailed(ctx, id, "enqueue error")
		return "", "", ErrInternalQueue
	}

	s.log.Infow("Enqueued refresh task", "job_id", id)
	return id, string(repository.StatusPending), nil
}

// GetRefreshJob returns the state of a refresh job.
func (s *RateService) GetRefreshJob(ctx context.Context, jobID string) (*RefreshJobResult, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, ErrInvalidJobID
	}
	j, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		s.log.Errorw("DB error fetching refresh job", "job_id", jobID, "error", err)
		return nil, ErrInternal
	}
	if j == nil {
		return nil, ErrNotFound
	}
	return refreshJobResultFromRepo(j), nil
}

// ProcessRefresh fetches a fresh snapshot and loads it into the table (called
// by the background worker). The table keeps its previous state on any error.
func (s *RateService) ProcessRefresh(ctx context.Context, jobID string) error {
	if jobID == "" {
		uid := uuid.New().String()
		id, _, err := s.repo.Create(ctx, uid, s.sourceName)
		if err != nil {
			return fmt.Errorf("create scheduled refresh job: %w", err)
		}
		if id != uid {
			s.log.Infow("Refresh already in flight, skipping scheduled run", "job_id", id)
			return nil
		}
		jobID = id
	}

	if err := s.repo.MarkRunning(ctx, jobID); err != nil {
		if errors.Is(err, repository.ErrJobNotRunnable) {
			s.log.Infow("Refresh job already handled", "job_id", jobID)
			return nil
		}
		s.log.Errorw("Failed to mark refresh job as RUNNING", "job_id", jobID, "error", err)
		return err
	}
	s.log.Infow("Processing refresh", "job_id", jobID, "source", s.sourceName)

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		s.metrics.RecordFetch(0, err)
		s.completeFailure(ctx, jobID, err)
		return err
	}
	s.metrics.RecordFetch(snap.Len(), nil)

	if err := s.table.Load(snap); err != nil {
		s.completeFailure(ctx, jobID, err)
		return err
	}

	if err := s.repo.MarkSuccess(ctx, jobID, snap.Base(), snap.Len()); err != nil {
		s.log.Errorw("DB update error on success", "job_id", jobID, "error", err)
		return err
	}

	s.log.Infow("Refresh success", "job_id", jobID, "provider_base", snap.Base(), "symbols", snap.Len(), "base", s.table.Base())
	return nil
}

// GetFact returns the current state of a fact task.
func (s *RateService) GetFact(factID string) (*facts.Fact, error) {
	f, err := s.facts.Get(factID)
	if err != nil {
		return nil, translateFactErr(factID, err)
	}
	return &f, nil
}

// CancelFact stops a running fact task.
func (s *RateService) CancelFact(factID string) error {
	if err := s.facts.Cancel(factID); err != nil {
		return translateFactErr(factID, err)
	}
	s.log.Infow("Fact cancelled", "fact_id", factID)
	return nil
}

// FollowFact streams a fact's text to fn until the task finishes.
func (s *RateService) FollowFact(ctx context.Context, factID string, fn func(fragment string)) (*facts.Fact, error) {
	f, err := s.facts.Follow(ctx, factID, fn)
	if err != nil {
		return nil, translateFactErr(factID, err)
	}
	return &f, nil
}

func translateFactErr(factID string, err error) error {
	if errors.Is(err, facts.ErrFactNotFound) {
		return fmt.Errorf("%w: fact %s", ErrNotFound, factID)
	}
	return err
}

func (s *RateService) markFailed(ctx context.Context, jobID, reason string) {
	if err := s.repo.MarkFailed(ctx, jobID, reason); err != nil {
		s.log.Warnw("Failed to mark refresh job as FAILED", "job_id", jobID, "error", err)
	}
}

func (s *RateService) completeFailure(ctx context.Context, jobID string, cause error) {
	s.log.Errorw("Refresh failed", "job_id", jobID, "error", cause)
	s.markFailed(ctx, jobID, cause.Error())
}

var _ RateServiceInterface = (*RateService)(nil)
