package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
	"github.com/roivaz/azdo-pr-dashboard/internal/db"
	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools/types"
	"github.com/roivaz/azdo-pr-dashboard/internal/poller"
)

type fakeSnapshots struct {
	snap       poller.Snapshot
	ok         bool
	lastErr    error
	refreshErr error
	refreshed  int
	updates    chan poller.Snapshot

	panicOnLatest bool
}

func (f *fakeSnapshots) Latest() (poller.Snapshot, bool) {
	if f.panicOnLatest {
		panic("snapshot store corrupted")
	}
	return f.snap, f.ok
}
func (f *fakeSnapshots) LastError() error                { return f.lastErr }

func (f *fakeSnapshots) Refresh(context.Context) (poller.Snapshot, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return poller.Snapshot{}, f.refreshErr
	}
	return f.snap, nil
}

func (f *fakeSnapshots) Subscribe() (<-chan poller.Snapshot, func()) {
	return f.updates, func() {}
}

type fakeHistory struct {
	entries []types.HistoryEntry
	err     error
	limit   int
}

func (f *fakeHistory) PullRequestHistory(_ context.Context, _ int, limit int) ([]types.HistoryEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

func snapshotFixture() poller.Snapshot {
	return poller.Snapshot{
		ID:      uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		TakenAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		PullRequests: []enrichment.PullRequest{
			{
				PullRequest: azdo.PullRequest{
					PullRequestID: 11,
					Title:         "beta",
					CreationDate:  "2024-05-02T00:00:00Z",
					Repository:    azdo.RepositoryRef{Name: "api"},
					Description:   "line one\nline two",
				},
				Build: enrichment.BuildPassing,
			},
			{
				PullRequest: azdo.PullRequest{
					PullRequestID: 10,
					Title:         "alpha",
					CreationDate:  "2024-05-01T00:00:00Z",
					Repository:    azdo.RepositoryRef{Name: "web"},
					IsDraft:       true,
				},
				Build: enrichment.BuildFailing,
			},
		},
	}
}

func newTestHandler(snaps *fakeSnapshots, history tools.HistoryService, opts ...Option) http.Handler {
	opts = append(opts, WithGatherer(prometheus.NewRegistry()))
	return NewHandler(snaps, history, logging.New(logr.Discard()), opts...).Routes()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listResponse {
	t.Helper()
	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func listIDs(resp listResponse) []int {
	out := make([]int, 0, len(resp.PullRequests))
	for _, pr := range resp.PullRequests {
		out = append(out, pr.PullRequestID)
	}
	return out
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{lastErr: errors.New("401")}, &fakeHistory{})

	w := do(t, h, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "starting", resp.Status)
	assert.Equal(t, "401", resp.LastError)
	assert.Nil(t, resp.LastRefresh)
}

func TestListWhenRefreshHasNeverSucceeded(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{lastErr: errors.New("list active pull requests: 401")}, &fakeHistory{})

	w := do(t, h, http.MethodGet, "/api/pullrequests")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"pullRequests": [],
		"failures": [],
		"lastError": "list active pull requests: 401"
	}`, w.Body.String())
}

func TestGetWhenRefreshHasNeverSucceeded(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{}, &fakeHistory{})
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/pullrequests/11").Code)
}

func TestList(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{snap: snapshotFixture(), ok: true}, &fakeHistory{})

	tests := []struct {
		name   string
		target string
		want   []int
	}{
		{name: "default order", target: "/api/pullrequests", want: []int{11, 10}},
		{name: "sort by title asc", target: "/api/pullrequests?sort=title&order=asc", want: []int{10, 11}},
		{name: "sort defaults to desc", target: "/api/pullrequests?sort=id", want: []int{11, 10}},
		{name: "repository filter", target: "/api/pullrequests?repository=WEB", want: []int{10}},
		{name: "drafts hidden", target: "/api/pullrequests?drafts=false", want: []int{11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decodeList(t, w)
			assert.Equal(t, tt.want, listIDs(resp))
			assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", resp.SnapshotID)
			assert.NotNil(t, resp.Failures)
		})
	}
}

func TestListRejectsBadQuery(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{snap: snapshotFixture(), ok: true}, &fakeHistory{})

	for _, target := range []string{
		"/api/pullrequests?sort=colour",
		"/api/pullrequests?sort=id&order=sideways",
		"/api/pullrequests?drafts=maybe",
	} {
		w := do(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestGet(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{snap: snapshotFixture(), ok: true}, &fakeHistory{})

	w := do(t, h, http.MethodGet, "/api/pullrequests/11")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(11), body["pullRequestId"])
	assert.Contains(t, body["descriptionHtml"], "<br")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/pullrequests/99").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/pullrequests/abc").Code)
}

func TestHistory(t *testing.T) {
	history := &fakeHistory{entries: []types.HistoryEntry{{SnapshotID: "a", Build: "passing"}}}
	h := newTestHandler(&fakeSnapshots{}, history)

	w := do(t, h, http.MethodGet, "/api/pullrequests/11/history?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, history.limit)
	var entries []types.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Equal(t, "a", entries[0].SnapshotID)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/pullrequests/11/history?limit=x").Code)
}

func TestHistoryDefaultLimit(t *testing.T) {
	history := &fakeHistory{}
	h := newTestHandler(&fakeSnapshots{}, history)

	w := do(t, h, http.MethodGet, "/api/pullrequests/11/history")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, db.DefaultHistoryLimit, history.limit)
}

func TestHistoryDisabled(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{}, tools.NewDBHistoryService(nil))
	w := do(t, h, http.MethodGet, "/api/pullrequests/11/history")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHistoryBackendFailure(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{}, &fakeHistory{err: errors.New("db down")})
	w := do(t, h, http.MethodGet, "/api/pullrequests/11/history")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRefresh(t *testing.T) {
	snaps := &fakeSnapshots{snap: snapshotFixture(), ok: true}
	h := newTestHandler(snaps, &fakeHistory{})

	w := do(t, h, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, snaps.refreshed)
	assert.Len(t, decodeList(t, w).PullRequests, 2)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/refresh").Code)
}

func TestRefreshFailure(t *testing.T) {
	h := newTestHandler(&fakeSnapshots{refreshErr: errors.New("list pull requests: 503")}, &fakeHistory{})
	w := do(t, h, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "503")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	poller.NewMetrics(reg)
	h := NewHandler(&fakeSnapshots{}, &fakeHistory{}, logging.New(logr.Discard()), WithGatherer(reg)).Routes()

	w := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prdashboard_refresh_duration_seconds")
}

func TestMCPMount(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := newTestHandler(&fakeSnapshots{}, &fakeHistory{}, WithMCP("/mcp/jsonrpc", mcpHandler))

	assert.Equal(t, http.StatusTeapot, do(t, h, http.MethodPost, "/mcp/jsonrpc").Code)
}

func TestPanicRecoveredWithRequestID(t *testing.T) {
	var logged []string
	log := funcr.New(func(prefix, args string) {
		logged = append(logged, args)
	}, funcr.Options{})
	snaps := &fakeSnapshots{panicOnLatest: true}
	h := NewHandler(snaps, &fakeHistory{}, logging.New(log), WithGatherer(prometheus.NewRegistry())).Routes()

	w := do(t, h, http.MethodGet, "/api/pullrequests")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], `"msg"="panic recovered"`)
	assert.Contains(t, logged[0], `"request_id"=`)
	assert.NotContains(t, logged[0], `"request_id"=""`)
}

func TestEventsStreamSnapshots(t *testing.T) {
	updates := make(chan poller.Snapshot, 1)
	updates <- snapshotFixture()
	h := newTestHandler(&fakeSnapshots{updates: updates}, &fakeHistory{})

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimRight(line, "\n"))
	}
	assert.Equal(t, "id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8", lines[0])
	assert.Equal(t, "event: snapshot", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "data: "))

	var payload listResponse
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &payload))
	assert.Len(t, payload.PullRequests, 2)

	close(updates)
}
