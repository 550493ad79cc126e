package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/service"
	"github.com/MrSnakeDoc/bookmarkd/internal/store"
	"github.com/MrSnakeDoc/bookmarkd/internal/store/memory"
)

const testKey = "s3cret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type listData struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	Total     int               `json:"total"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
}

func newTestServer(t *testing.T, mutate ...func(*deps.Deps)) *testServer {
	t.Helper()
	st := memory.New()
	log := logger.NewNop()
	now := time.UnixMilli(1_700_000_000_000)

	d := deps.Deps{
		Logger:    log,
		Bookmarks: service.NewBookmarkService(st, log, service.Options{SerializeWrites: true}),
		Store:     st,
		APIKey:    testKey,
		StartTime: now,
		Version:   "test",
		BuildDate: "2025-01-01",
		TimeNow:   func() time.Time { return now },
	}
	for _, m := range mutate {
		m(&d)
	}
	return &testServer{t: t, handler: NewRouter(d), store: st}
}

func (s *testServer) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set(mw.APIKeyHeader, testKey)
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] == "" {
			r.Header.Del(headers[i])
			continue
		}
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestBookmarkLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/bookmarks", `{"userId":"u1","url":"https://a.com","title":"A"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID        string `json:"id"`
		CreatedAt int64  `json:"createdAt"`
	}
	env := decode(t, w, &created)
	require.True(t, env.Success)
	require.NotEmpty(t, created.ID)
	require.NotZero(t, created.CreatedAt)

	w = s.do(http.MethodGet, "/api/bookmarks?userId=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list listData
	decode(t, w, &list)
	require.Equal(t, 1, list.Total)
	require.Equal(t, []string{domain.DefaultTag}, list.Bookmarks[0].Tags)
	require.Equal(t, "https://www.google.com/s2/favicons?domain=a.com", list.Bookmarks[0].Favicon)

	w = s.do(http.MethodPut, "/api/bookmarks/"+created.ID, `{"userId":"u1","tags":["news"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated domain.Bookmark
	decode(t, w, &updated)
	assert.Equal(t, []string{"news"}, updated.Tags)
	assert.Equal(t, "A", updated.Title)
	assert.GreaterOrEqual(t, updated.UpdatedAt, updated.CreatedAt)

	w = s.do(http.MethodDelete, "/api/bookmarks/"+created.ID+"?userId=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/bookmarks?userId=u1", "")
	decode(t, w, &list)
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Bookmarks)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	id := func() string {
		w := s.do(http.MethodPost, "/api/bookmarks", `{"userId":"u1","url":"https://a.com","title":"A"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		var c struct {
			ID string `json:"id"`
		}
		decode(t, w, &c)
		return c.ID
	}()

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		headers []string
		status  int
		message string
	}{
		{
			name: "list without user", method: http.MethodGet, target: "/api/bookmarks",
			status: http.StatusBadRequest, message: domain.MsgMissingUserID,
		},
		{
			name: "create missing title", method: http.MethodPost, target: "/api/bookmarks",
			body:   `{"userId":"u1","url":"https://a.com"}`,
			status: http.StatusBadRequest, message: domain.MsgMissingRequired,
		},
		{
			name: "create title too long", method: http.MethodPost, target: "/api/bookmarks",
			body:   `{"userId":"u1","url":"https://a.com","title":"` + strings.Repeat("x", 201) + `"}`,
			status: http.StatusBadRequest, message: domain.MsgTitleTooLong,
		},
		{
			name: "malformed json", method: http.MethodPost, target: "/api/bookmarks",
			body:   `{"userId":`,
			status: http.StatusBadRequest, message: "Invalid JSON body",
		},
		{
			name: "update unknown id", method: http.MethodPut, target: "/api/bookmarks/nope",
			body:   `{"userId":"u1","title":"B"}`,
			status: http.StatusNotFound, message: "Bookmark not found",
		},
		{
			name: "delete unknown id", method: http.MethodDelete, target: "/api/bookmarks/nope?userId=u1",
			status: http.StatusNotFound, message: "Bookmark not found",
		},
		{
			name: "delete without user", method: http.MethodDelete, target: "/api/bookmarks/" + id,
			status: http.StatusBadRequest, message: domain.MsgMissingUserID,
		},
		{
			name: "search without user", method: http.MethodGet, target: "/api/search?q=a",
			status: http.StatusBadRequest, message: domain.MsgMissingUserID,
		},
		{
			name: "missing api key", method: http.MethodGet, target: "/api/bookmarks?userId=u1",
			headers: []string{mw.APIKeyHeader, ""},
			status:  http.StatusUnauthorized, message: "Unauthorized: Invalid or missing API Key",
		},
		{
			name: "wrong api key", method: http.MethodGet, target: "/api/bookmarks?userId=u1",
			headers: []string{mw.APIKeyHeader, "nope"},
			status:  http.StatusUnauthorized, message: "Unauthorized: Invalid or missing API Key",
		},
		{
			name: "unknown endpoint", method: http.MethodGet, target: "/api/unknown",
			status: http.StatusNotFound, message: "Endpoint not found",
		},
		{
			name: "method mismatch", method: http.MethodPatch, target: "/api/bookmarks",
			status: http.StatusNotFound, message: "Endpoint not found",
		},
		{
			name: "unknown endpoint needs a key too", method: http.MethodGet, target: "/nothing",
			headers: []string{mw.APIKeyHeader, ""},
			status:  http.StatusUnauthorized, message: "Unauthorized: Invalid or missing API Key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.target, tt.body, tt.headers...)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			env := decode(t, w, nil)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Error)
		})
	}

	// Nothing above touched the stored bookmark.
	w := s.do(http.MethodGet, "/api/bookmarks?userId=u1", "")
	var list listData
	decode(t, w, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, id, list.Bookmarks[0].ID)
}

func TestSearchAndGroups(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{
		`{"userId":"u1","url":"https://go.dev","title":"Go","tags":["dev","lang"]}`,
		`{"userId":"u1","url":"https://news.ycombinator.com","title":"HN","tags":["news"]}`,
		`{"userId":"u1","url":"https://lobste.rs","title":"Lobsters","tags":["news","dev"]}`,
	} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bookmarks", body).Code)
	}

	w := s.do(http.MethodGet, "/api/search?userId=u1&q=GO", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list listData
	decode(t, w, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Go", list.Bookmarks[0].Title)

	w = s.do(http.MethodGet, "/api/search?userId=u1&tags=NEWS,%20lang", "")
	decode(t, w, &list)
	assert.Equal(t, 3, list.Total)

	w = s.do(http.MethodGet, "/api/groups?userId=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var groups struct {
		Groups []domain.TagGroup `json:"groups"`
		Total  int               `json:"total"`
	}
	decode(t, w, &groups)
	require.Equal(t, 3, groups.Total)
	assert.Equal(t, "news", groups.Groups[0].Tag)
	assert.Equal(t, 2, groups.Groups[0].Total)
	assert.Equal(t, "dev", groups.Groups[1].Tag)
	assert.Equal(t, "lang", groups.Groups[2].Tag)
}

func TestImportEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := `
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Broken:
        - abbr: BR
          href: {{HOMEPAGE_VAR_BROKEN}}
- Media:
    - Youtube:
        - abbr: YT
          href: https://youtube.com/
`
	w := s.do(http.MethodPost, "/api/import?userId=u1", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.ImportResult
	decode(t, w, &res)
	assert.Equal(t, service.ImportResult{Imported: 2}, res)

	w = s.do(http.MethodPost, "/api/import?userId=u1", body)
	decode(t, w, &res)
	assert.Equal(t, service.ImportResult{Skipped: 2}, res)

	w = s.do(http.MethodPost, "/api/import?userId=u1", "- [broken")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/import", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodOptions, "/api/bookmarks", "", mw.APIKeyHeader, "")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func TestHealthNeedsNoKey(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", mw.APIKeyHeader, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "2025-01-01", body["build_date"])

	// Millisecond epoch number, like createdAt and updatedAt.
	ts, ok := body["timestamp"].(float64)
	require.True(t, ok, "timestamp should be a JSON number, got %T", body["timestamp"])
	assert.Equal(t, int64(1_700_000_000_000), int64(ts))
}

type downStore struct{ *memory.Store }

func (downStore) Ping(context.Context) error { return errors.Join(store.ErrUnavailable, errors.New("dial tcp: refused")) }
func (downStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.Join(store.ErrUnavailable, errors.New("dial tcp: refused"))
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/readyz", "", mw.APIKeyHeader, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ready":true,"store":"memory"}`, w.Body.String())

	down := newTestServer(t, func(d *deps.Deps) {
		st := downStore{memory.New()}
		d.Store = st
		d.Bookmarks = service.NewBookmarkService(st, d.Logger, service.Options{SerializeWrites: true})
	})
	w = down.do(http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = down.do(http.MethodGet, "/api/bookmarks?userId=u1", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Storage unavailable, please retry", decode(t, w, nil).Error)
}

func TestReadyzCIDRGate(t *testing.T) {
	s := newTestServer(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	// httptest requests come from 192.0.2.1
	w := s.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	s = newTestServer(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"192.0.2.0/24"} })
	w = s.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRateLimit(t *testing.T) {
	s := newTestServer(t, func(d *deps.Deps) {
		d.APILimit = mw.RateLimit(mw.RateLimitConfig{Burst: 2, PerMinute: 1})
	})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/bookmarks?userId=u1", "").Code)
	}
	w := s.do(http.MethodGet, "/api/bookmarks?userId=u1", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, decode(t, w, nil).Success)

	// probes are not limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
}
