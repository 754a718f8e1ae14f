package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ratematch/internal/facts"
	"ratematch/internal/service"
)

const headerFactStatus = "X-Fact-Status"

// FactResponse is the current state of a fact task
type FactResponse struct {
	FactID    string `json:"fact_id" example:"6f1c7a4e-2b8d-4d7e-9a51-0c3e2f1b7d90"`
	Symbol    string `json:"symbol" example:"PLN"`
	Class     string `json:"class" example:"fiat"`
	Status    string `json:"status" example:"RUNNING"`
	Text      string `json:"text" example:"The zloty was reintroduced in 1924"`
	Cached    bool   `json:"cached" example:"false"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updated_at" example:"2025-12-01T10:15:30Z"`
}

func factResponse(f *facts.Fact) FactResponse {
	return FactResponse{
		FactID:    f.ID,
		Symbol:    f.Symbol,
		Class:     string(f.Class),
		Status:    string(f.Status),
		Text:      f.Text,
		Cached:    f.Cached,
		Error:     f.Error,
		UpdatedAt: f.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// HandleGetFact godoc
// @Summary Get fact task state
// @Description Returns the text generated so far and the task status.
// @Tags facts
// @Produce json
// @Param fact_id path string true "Fact ID"
// @Success 200 {object} FactResponse
// @Failure 404 {object} ErrorResponse "Unknown fact_id"
// @Failure 503 {object} ErrorResponse "Facts disabled"
// @Router /facts/{fact_id} [get]
func HandleGetFact(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.GetFact(chi.URLParam(r, "fact_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, factResponse(f))
	}
}

// HandleStreamFact godoc
// @Summary Stream fact text
// @Description Streams the fact as plain text chunks while it is generated. The final task status is sent in the X-Fact-Status trailer.
// @Tags facts
// @Produce plain
// @Param fact_id path string true "Fact ID"
// @Success 200 {string} string "Fact text"
// @Failure 404 {object} ErrorResponse "Unknown fact_id"
// @Failure 503 {object} ErrorResponse "Facts disabled"
// @Router /facts/{fact_id}/stream [get]
func HandleStreamFact(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		factID := chi.URLParam(r, "fact_id")
		if _, err := svc.GetFact(factID); err != nil {
			writeError(w, err)
			return
		}

		rc := http.NewResponseController(w)
		// Generation outlives the server's write timeout.
		_ = rc.SetWriteDeadline(time.Time{})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Trailer", headerFactStatus)
		w.WriteHeader(http.StatusOK)

		f, err := svc.FollowFact(r.Context(), factID, func(fragment string) {
			_, _ = w.Write([]byte(fragment))
			_ = rc.Flush()
		})
		if err != nil {
			// Client went away or the task was pruned mid-stream; headers are already sent.
			return
		}
		w.Header().Set(headerFactStatus, string(f.Status))
	}
}

// HandleCancelFact godoc
// @Summary Cancel a fact task
// @Tags facts
// @Param fact_id path string true "Fact ID"
// @Success 204 "Cancelled"
// @Failure 404 {object} ErrorResponse "Unknown fact_id"
// @Failure 503 {object} ErrorResponse "Facts disabled"
// @Router /facts/{fact_id} [delete]
func HandleCancelFact(svc service.RateServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CancelFact(chi.URLParam(r, "fact_id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
