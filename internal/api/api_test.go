package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/nfsee/internal/db"
	"github.com/erazemk/nfsee/internal/metrics"
	"github.com/erazemk/nfsee/internal/model"
	"github.com/erazemk/nfsee/internal/repo"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type testItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Status      model.Status    `json:"status"`
	ContainerID int64           `json:"container_id"`
	MarkedOutAt *time.Time      `json:"marked_out_at"`
	Container   string          `json:"container_name"`
	Location    string          `json:"container_location"`
	Indicator   model.Indicator `json:"indicator"`
}

func setupTestServer(t *testing.T) (*httptest.Server, *repo.SQLite) {
	t.Helper()
	reg := prometheus.NewRegistry()
	r := repo.New(db.NewTestDB(t),
		repo.WithClock(func() time.Time { return testNow }),
		repo.WithMetrics(metrics.New(reg)),
	)
	seeded, err := r.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(NewRouter(r, log, reg))
	t.Cleanup(server.Close)
	return server, r
}

func doRequest(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestContainersEndpoints(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/containers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]model.Container](t, resp)
	require.Len(t, list, 3)
	assert.Equal(t, "Closet Shelf", list[0].Name)

	// Empty name gets the placeholder.
	resp = doRequest(t, http.MethodPost, server.URL+"/api/containers", map[string]string{"location_label": "Attic"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Container](t, resp)
	assert.Equal(t, model.DefaultContainerName, created.Name)
	assert.Equal(t, "Attic", created.LocationLabel)

	url := server.URL + "/api/containers/" + itoa(created.ID)
	resp = doRequest(t, http.MethodPut, url, map[string]string{"name": "Attic Box", "location_label": "Attic"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Attic Box", decode[model.Container](t, resp).Name)

	resp = doRequest(t, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, server.URL+"/api/containers/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteContainerCascades(t *testing.T) {
	server, _ := setupTestServer(t)

	// Garage is the first seeded container.
	resp := doRequest(t, http.MethodDelete, server.URL+"/api/containers/1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, server.URL+"/api/search", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode[[]testItem](t, resp)
	assert.Len(t, results, 5)
	for _, r := range results {
		assert.NotEqual(t, int64(1), r.ContainerID)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/api/items/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContainerItems(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/containers/2/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]testItem](t, resp)

	// The REMOVED charger is hidden.
	require.Len(t, items, 2)
	assert.Equal(t, "Measuring tape", items[0].Name)
	assert.Equal(t, "Screwdriver set", items[1].Name)
	assert.Equal(t, model.IndicatorGreen, items[0].Indicator)

	resp = doRequest(t, http.MethodGet, server.URL+"/api/containers/99/items", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemsEndpoints(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/items", map[string]any{"container_id": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[testItem](t, resp)
	assert.Equal(t, model.DefaultItemName, created.Name)
	assert.Equal(t, model.StatusIn, created.Status)
	assert.Equal(t, model.IndicatorGreen, created.Indicator)

	url := server.URL + "/api/items/" + itoa(created.ID)
	resp = doRequest(t, http.MethodPut, url, map[string]any{
		"name": "Scarf", "category": "Clothing", "status": "OUT", "container_id": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[testItem](t, resp)
	assert.Equal(t, "Scarf", updated.Name)
	assert.Equal(t, model.StatusOut, updated.Status)
	require.NotNil(t, updated.MarkedOutAt)
	assert.True(t, updated.MarkedOutAt.Equal(testNow))
	assert.Equal(t, model.IndicatorYellow, updated.Indicator)

	resp = doRequest(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Clothing", decode[testItem](t, resp).Category)

	resp = doRequest(t, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemValidation(t *testing.T) {
	server, _ := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing container", http.MethodPost, "/api/items", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"unknown status", http.MethodPost, "/api/items", map[string]any{"container_id": 1, "status": "LOST"}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/items", "{", http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/items", map[string]any{"container_id": 1, "colour": "red"}, http.StatusBadRequest},
		{"absent container", http.MethodPost, "/api/items", map[string]any{"container_id": 99}, http.StatusUnprocessableEntity},
		{"update without status", http.MethodPut, "/api/items/1", map[string]any{"name": "x", "container_id": 1}, http.StatusBadRequest},
		{"move to absent container", http.MethodPut, "/api/items/1", map[string]any{"name": "x", "status": "IN", "container_id": 99}, http.StatusUnprocessableEntity},
		{"update absent item", http.MethodPut, "/api/items/99", map[string]any{"name": "x", "status": "IN", "container_id": 1}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, tt.method, server.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[map[string]string](t, resp)["error"])
		})
	}
}

func TestToggleEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Power drill starts IN.
	resp := doRequest(t, http.MethodPost, server.URL+"/api/items/1/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	item := decode[testItem](t, resp)
	assert.Equal(t, model.StatusOut, item.Status)
	assert.Equal(t, model.IndicatorYellow, item.Indicator)

	resp = doRequest(t, http.MethodPost, server.URL+"/api/items/1/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	item = decode[testItem](t, resp)
	assert.Equal(t, model.StatusIn, item.Status)
	assert.Nil(t, item.MarkedOutAt)
	assert.Equal(t, model.IndicatorGreen, item.Indicator)

	// Old phone charger is REMOVED.
	resp = doRequest(t, http.MethodPost, server.URL+"/api/items/6/toggle", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, server.URL+"/api/items/99/toggle", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Extension cord", "Holiday lights", "Measuring tape", "Paint brushes", "Photo albums", "Power drill", "Screwdriver set", "Winter gloves"}},
		{"q=cord", []string{"Extension cord"}},
		{"q=TOOLS", []string{"Extension cord", "Measuring tape", "Power drill", "Screwdriver set"}},
		{"q=kitchen", []string{"Measuring tape", "Screwdriver set"}},
		{"status=out", []string{"Extension cord", "Holiday lights"}},
		{"q=tools&status=IN", []string{"Measuring tape", "Power drill", "Screwdriver set"}},
		{"q=charger", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, server.URL+"/api/search?"+tt.query, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			results := decode[[]testItem](t, resp)
			names := make([]string, 0, len(results))
			for _, r := range results {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSearchIndicatorsAndProjection(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/search?status=OUT", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode[[]testItem](t, resp)
	require.Len(t, results, 2)

	assert.Equal(t, "Extension cord", results[0].Name)
	assert.Equal(t, model.IndicatorYellow, results[0].Indicator)
	assert.Equal(t, "Garage – Blue Bin #1", results[0].Container)
	assert.Equal(t, "Garage", results[0].Location)

	assert.Equal(t, "Holiday lights", results[1].Name)
	assert.Equal(t, model.IndicatorRed, results[1].Indicator)
	assert.Equal(t, "Closet Shelf", results[1].Container)
}

func TestSearchRejectsUnknownStatus(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/search?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type sseEvent struct {
	name string
	data string
}

// readEvents parses server-sent events from body until it ends.
func readEvents(body io.Reader) <-chan sseEvent {
	events := make(chan sseEvent)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(body)
		var ev sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			case line == "" && ev.name != "":
				events <- ev
				ev = sseEvent{}
			}
		}
	}()
	return events
}

func nextEvent(t *testing.T, events <-chan sseEvent) []testItem {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream ended")
		require.Equal(t, "snapshot", ev.name)
		var results []testItem
		require.NoError(t, json.Unmarshal([]byte(ev.data), &results))
		return results
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func TestSearchStream(t *testing.T) {
	server, _ := setupTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/search/stream?q=drill", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(resp.Body)
	first := nextEvent(t, events)
	require.Len(t, first, 1)
	assert.Equal(t, model.StatusIn, first[0].Status)

	toggle := doRequest(t, http.MethodPost, server.URL+"/api/items/1/toggle", nil)
	require.Equal(t, http.StatusOK, toggle.StatusCode)

	for {
		results := nextEvent(t, events)
		require.Len(t, results, 1)
		if results[0].Status == model.StatusOut {
			assert.Equal(t, model.IndicatorYellow, results[0].Indicator)
			break
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/items/1/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, server.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `nfsee_mutations_total{entity="item",op="toggle"} 1`)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
