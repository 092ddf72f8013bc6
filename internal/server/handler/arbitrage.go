package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/pipeline"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// SnapshotService is the part of the orchestrator the API reads from.
type SnapshotService interface {
	Snapshot(filter domain.SnapshotFilter) domain.SnapshotView
	TryRefresh(ctx context.Context) (domain.Snapshot, error)
	Status() pipeline.Status
	Markets(venue domain.Venue) ([]domain.Market, error)
}

// ArbHandler serves the arbitrage endpoints.
type ArbHandler struct {
	svc    SnapshotService
	logger *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(svc SnapshotService, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{svc: svc, logger: handlerLogger(logger, "arbitrage")}
}

// arbResponse flattens a SnapshotView. Opportunities is never null.
type arbResponse struct {
	State         domain.SnapshotState          `json:"state"`
	SnapshotID    string                        `json:"snapshot_id,omitempty"`
	LastUpdated   *time.Time                    `json:"last_updated,omitempty"`
	LastError     string                        `json:"last_error,omitempty"`
	Opportunities []domain.ArbitrageOpportunity `json:"opportunities"`
	Summary       domain.Summary                `json:"summary"`
	MarketCounts  map[domain.Venue]int          `json:"market_counts,omitempty"`
	MatchedPairs  int                           `json:"matched_pairs"`
}

func newArbResponse(view domain.SnapshotView) arbResponse {
	resp := arbResponse{
		State:         view.State,
		LastError:     view.LastError,
		Opportunities: []domain.ArbitrageOpportunity{},
		Summary:       domain.Summarize(nil),
	}
	if s := view.Snapshot; s != nil {
		t := s.LastUpdated
		resp.SnapshotID = s.ID
		resp.LastUpdated = &t
		resp.Summary = s.Summary
		resp.MarketCounts = s.MarketCounts
		resp.MatchedPairs = s.MatchedPairs
		if s.Opportunities != nil {
			resp.Opportunities = s.Opportunities
		}
	}
	return resp
}

// List returns the current snapshot, filtered. It never triggers a fetch.
// GET /api/arbitrage?min_difference=&expiring_within_hours=&search=&league=&profitable_only=
func (h *ArbHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newArbResponse(h.svc.Snapshot(f)))
}

// Top returns the most profitable opportunities.
// GET /api/arbitrage/top?limit=10
func (h *ArbHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultTopLimit, maxTopLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Limit = limit
	writeJSON(w, http.StatusOK, newArbResponse(h.svc.Snapshot(f)))
}

// Refresh runs a refresh cycle now. A refresh already underway yields 409; a
// venue that could not be fetched yields 502 and the old snapshot stays.
// POST /api/arbitrage/refresh
func (h *ArbHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.TryRefresh(r.Context())
	var refreshErr *domain.RefreshError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "ok",
			"snapshot_id":  snap.ID,
			"last_updated": snap.LastUpdated,
			"summary":      snap.Summary,
		})
	case errors.Is(err, domain.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, "a refresh is already in progress")
	case errors.As(err, &refreshErr):
		venues := refreshErr.Venues()
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":         refreshErr.Error(),
			"failed_venues": venues,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "refresh cancelled")
	default:
		h.logger.ErrorContext(r.Context(), "refresh failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "refresh failed")
	}
}
