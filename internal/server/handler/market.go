package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
	"github.com/alanyoungcy/crossarb/internal/platform/kalshi"
)

const (
	defaultMarketLimit = 100
	maxMarketLimit     = 1000
)

// SeriesLister lists venue B series.
type SeriesLister interface {
	ListSeries(ctx context.Context, category string) ([]kalshi.KalshiSeries, error)
}

// MarketHandler serves the catalog endpoints.
type MarketHandler struct {
	svc    SnapshotService
	series SeriesLister
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler. series may be nil, in which case
// the series endpoint answers 501.
func NewMarketHandler(svc SnapshotService, series SeriesLister, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{svc: svc, series: series, logger: handlerLogger(logger, "markets")}
}

type marketsResponse struct {
	Venue   domain.Venue    `json:"venue"`
	Total   int             `json:"total"`
	Markets []domain.Market `json:"markets"`
}

// List returns the venue's catalog from the last successful refresh.
// GET /api/markets/{venue}?search=&limit=
func (h *MarketHandler) List(w http.ResponseWriter, r *http.Request) {
	venue := domain.Venue(strings.ToLower(r.PathValue("venue")))
	limit, err := intParam(r, "limit", defaultMarketLimit, maxMarketLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	markets, err := h.svc.Markets(venue)
	switch {
	case errors.Is(err, domain.ErrUnknownVenue):
		writeError(w, http.StatusNotFound, "unknown venue")
		return
	case errors.Is(err, domain.ErrNoData):
		writeError(w, http.StatusServiceUnavailable, "no catalog fetched yet")
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "list markets failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	out := make([]domain.Market, 0, min(len(markets), limit))
	total := 0
	for _, m := range markets {
		if search != "" &&
			!strings.Contains(strings.ToLower(m.RawTitle), search) &&
			!strings.Contains(m.NormalizedName, search) {
			continue
		}
		total++
		if len(out) < limit {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, marketsResponse{Venue: venue, Total: total, Markets: out})
}

// Series lists venue B series, optionally by category.
// GET /api/kalshi/series?category=
func (h *MarketHandler) Series(w http.ResponseWriter, r *http.Request) {
	if h.series == nil {
		writeError(w, http.StatusNotImplemented, "series listing not configured")
		return
	}
	series, err := h.series.ListSeries(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		h.logger.WarnContext(r.Context(), "list series failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "failed to list series")
		return
	}
	if series == nil {
		series = []kalshi.KalshiSeries{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": series, "total": len(series)})
}
