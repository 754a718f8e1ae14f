package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ratematch/internal/rates"
	"ratematch/internal/service"
)

// BaseRequest is the request body for changing the base currency
type BaseRequest struct {
	Base string `json:"base" example:"eur"`
}

// BaseResponse holds the current base currency
type BaseResponse struct {
	Base string `json:"base" example:"EUR"`
}

// RatesResponse is the recalculated rate table. Only requested classes are present.
type RatesResponse struct {
	Base string             `json:"base" example:"USD"`
	Fiat []rates.SymbolRate `json:"fiat,omitempty"`
	Alt  []rates.SymbolRate `json:"alt,omitempty"`
}

// MatchResponse is the nearest-rate match for a value
type MatchResponse struct {
	Symbol string  `json:"symbol" example:"PLN"`
	Rate   float64 `json:"rate" example:"3.9871"`
	Base   string  `json:"base" example:"USD"`
	Class  string  `json:"class" example:"fiat"`
	FactID string  `json:"fact_id,omitempty" example:"6f1c7a4e-2b8d-4d7e-9a51-0c3e2f1b7d90"`
}

// RefreshResponse is returned when a refresh is accepted
type RefreshResponse struct {
	JobID  string `json:"job_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Status string `json:"status" example:"PENDING"`
}

// RefreshJobResponse is the state of a refresh job
type RefreshJobResponse struct {
	JobID        string  `json:"job_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Source       string  `json:"source" example:"currencyfreaks"`
	Status       string  `json:"status" example:"SUCCESS"`
	ProviderBase *string `json:"provider_base,omitempty" example:"USD"`
	Symbols      *int    `json:"symbols,omitempty" example:"171"`
	RequestedAt  string  `json:"requested_at" example:"2025-12-01T10:15:29Z"`
	UpdatedAt    *string `json:"updated_at,omitempty" example:"2025-12-01T10:15:30Z"`
	Error        *string `json:"error,omitempty" example:"rate source returned status 503"`
}

// HandleGetBase godoc
// @Summary Get current base currency
// @Tags rates
// @Produce json
// @Success 200 {object} BaseResponse
// @Router /base [get]
func HandleGetBase(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, BaseResponse{Base: svc.CurrentBase()})
	}
}

// HandleSetBase godoc
// @Summary Change base currency
// @Description Re-expresses every rate against the new base. The code is case-insensitive and must be present in the loaded snapshot with a positive rate.
// @Tags rates
// @Accept json
// @Produce json
// @Param request body BaseRequest true "New base currency"
// @Success 200 {object} BaseResponse "Base changed"
// @Failure 400 {object} ErrorResponse "Unknown symbol or invalid body"
// @Router /base [put]
func HandleSetBase(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		base, err := svc.SetBase(strings.TrimSpace(req.Base))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, BaseResponse{Base: base})
	}
}

// HandleGetRates godoc
// @Summary Get recalculated rates
// @Description Returns rates relative to the current base in provider order. Without class both fiat and alt symbols are returned.
// @Tags rates
// @Produce json
// @Param class query string false "Symbol class" Enums(fiat, real, currency, alt, crypto)
// @Success 200 {object} RatesResponse
// @Failure 400 {object} ErrorResponse "Unknown class"
// @Router /rates [get]
func HandleGetRates(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Rates(r.URL.Query().Get("class"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RatesResponse{Base: res.Base, Fiat: res.Fiat, Alt: res.Alt})
	}
}

// HandleMatch godoc
// @Summary Find the symbol whose rate is nearest to a value
// @Description Accepts decimal point or comma and ignores whitespace ("1,76", " 1. 76"). Starts a fact task for the matched symbol and returns its id.
// @Tags rates
// @Produce json
// @Param value query string true "Numeric value" example(1,76)
// @Param class query string false "Symbol class, fiat by default" Enums(fiat, real, currency, alt, crypto)
// @Success 200 {object} MatchResponse
// @Failure 400 {object} ErrorResponse "Invalid value or class"
// @Failure 503 {object} ErrorResponse "No rates for the class"
// @Router /match [get]
func HandleMatch(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if !q.Has("value") {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "value query param is required"})
			return
		}
		m, err := svc.Match(q.Get("value"), q.Get("class"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MatchResponse{
			Symbol: m.Symbol,
			Rate:   m.Rate,
			Base:   m.Base,
			Class:  string(m.Class),
			FactID: m.FactID,
		})
	}
}

// HandleRequestRefresh godoc
// @Summary Request a rate refresh
// @Description Enqueues a background download of the newest snapshot. While a refresh is pending or running its job id and current status are returned.
// @Tags refresh
// @Produce json
// @Success 202 {object} RefreshResponse "Refresh accepted"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /rates/refresh [post]
func HandleRequestRefresh(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, status, err := svc.RequestRefresh(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, RefreshResponse{JobID: jobID, Status: status})
	}
}

// HandleGetRefreshJob godoc
// @Summary Get refresh job status
// @Tags refresh
// @Produce json
// @Param job_id path string true "Job ID (UUID)" format(uuid)
// @Success 200 {object} RefreshJobResponse
// @Failure 400 {object} ErrorResponse "Invalid job_id format"
// @Failure 404 {object} ErrorResponse "Unknown job_id"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /rates/refresh/{job_id} [get]
func HandleGetRefreshJob(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "job_id")
		job, err := svc.GetRefreshJob(r.Context(), jobID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RefreshJobResponse{
			JobID:        job.ID,
			Source:       job.Source,
			Status:       job.Status,
			ProviderBase: job.ProviderBase,
			Symbols:      job.Symbols,
			RequestedAt:  job.RequestedAt,
			UpdatedAt:    job.UpdatedAt,
			Error:        job.ErrorMsg,
		})
	}
}
