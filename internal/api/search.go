package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/nfsee/internal/model"
	"github.com/erazemk/nfsee/internal/repo"
)

// SearchHandler serves cross-container search, once or as a live stream.
type SearchHandler struct {
	Repo repo.Repository
	Log  *slog.Logger
}

// searchResultResponse is a search result with its indicator evaluated at
// response time.
type searchResultResponse struct {
	model.ItemSearchResult
	Indicator model.Indicator `json:"indicator"`
}

func newSearchResponse(results []model.ItemSearchResult, now time.Time) []searchResultResponse {
	resp := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, searchResultResponse{ItemSearchResult: res, Indicator: res.Indicator(now)})
	}
	return resp
}

// parseQuery reads q and status from the query string. An empty status
// means no status filter.
func parseQuery(r *http.Request) (model.SearchQuery, error) {
	q := model.SearchQuery{Text: r.URL.Query().Get("q")}
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := model.ParseStatus(s)
		if err != nil {
			return q, err
		}
		q.Status = status
	}
	return q, nil
}

// Search handles GET /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	feed, err := h.Repo.SearchItems(r.Context(), q)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to search items")
		return
	}
	results, err := snapshot(feed)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to search items")
		return
	}
	jsonResponse(w, http.StatusOK, newSearchResponse(results, h.Repo.Now()))
}

// Stream handles GET /api/search/stream. Every snapshot of the live search
// is sent as a server-sent "snapshot" event until the client goes away. A
// failing re-query ends the stream with an "error" event.
func (h *SearchHandler) Stream(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	feed, err := h.Repo.SearchItems(r.Context(), q)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to search items")
		return
	}
	defer feed.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for results := range feed.C {
		if err := writeEvent(w, "snapshot", newSearchResponse(results, h.Repo.Now())); err != nil {
			h.Log.Debug("search stream write failed", "error", err)
			return
		}
		flusher.Flush()
	}

	if err := feed.Err(); err != nil {
		writeEvent(w, "error", map[string]string{"error": "search failed"})
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("writing %s event: %w", event, err)
	}
	return nil
}
