package service

import (
	"time"

	"ratematch/internal/rates"
	"ratematch/internal/repository"
)

// RatesResult is the recalculated table for one base. Only the requested
// classes are populated.
type RatesResult struct {
	Base string
	Fiat []rates.SymbolRate
	Alt  []rates.SymbolRate
}

// MatchResult is the outcome of a nearest-rate query. FactID is empty when no
// fact task could be started.
type MatchResult struct {
	Symbol string
	Rate   float64
	Base   string
	Class  rates.Class
	FactID string
}

// RefreshJobResult represents a refresh job returned by the service layer.
// Fields are populated according to the job's status:
//   - SUCCESS: ProviderBase, Symbols and UpdatedAt are set.
//   - FAILED:  ErrorMsg and UpdatedAt are set.
//   - PENDING/RUNNING: only the identifying fields are set.
type RefreshJobResult struct {
	ID           string
	Source       string
	Status       string
	ProviderBase *string
	Symbols      *int
	ErrorMsg     *string
	RequestedAt  string
	UpdatedAt    *string
}

func refreshJobResultFromRepo(j *repository.RefreshJob) *RefreshJobResult {
	r := &RefreshJobResult{
		ID:          j.ID,
		Source:      j.Source,
		Status:      string(j.Status),
		RequestedAt: j.RequestedAt.UTC().Format(time.RFC3339),
	}

	switch j.Status {
	case repository.StatusSuccess:
		r.ProviderBase = j.ProviderBase
		r.Symbols = j.Symbols
	case repository.StatusFailed:
		r.ErrorMsg = j.ErrorMsg
	}
	if j.Status == repository.StatusSuccess || j.Status == repository.StatusFailed {
		if j.UpdatedAt != nil {
			ts := j.UpdatedAt.UTC().Format(time.RFC3339)
			r.UpdatedAt = &ts
		}
	}

	return r
}
