package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/timeclock-go/internal/service/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router http.Handler
	store  attendance.Store
	hub    *sse.Hub
}

func newTestServer(t *testing.T, location *time.Location) *testServer {
	t.Helper()
	store := memory.NewAttendanceRepository()
	hub := sse.NewHub()
	svc := attendanceService.NewAttendanceService(store, store, hub)
	handler := NewAttendanceHandler(svc, hub, store, location)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testServer{
		router: NewRouter(logger, []string{"*"}, handler),
		store:  store,
		hub:    hub,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func logBody(name, action, ts string) map[string]string {
	return map[string]string{"name": name, "action": action, "timestamp": ts}
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestLog_CheckInAndOut(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/log", logBody("Alice", "in", "2024-03-01T09:00:00.000Z"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, "in", body["action"])
	assert.Equal(t, "2024-03-01T09:00:00.000Z", body["timestamp"])
	assert.Equal(t, "2024-03-01", body["date"])
	assert.Equal(t, "March", body["monthName"])
	assert.Equal(t, float64(1), body["daysInMonth"])
	assert.NotContains(t, body, "workingHours")

	rec = s.do(t, http.MethodPost, "/log", logBody("Alice", "out", "2024-03-01T17:30:00.000Z"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeMap(t, rec)
	assert.Equal(t, "out", body["action"])
	assert.InDelta(t, 8.5, body["workingHours"], 1e-9)
	assert.Equal(t, float64(1), body["daysInMonth"])
}

func TestLog_Rejections(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Bob", "in", "2024-03-01T09:00:00.000Z")).Code)

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{
			name:    "second check-in",
			body:    logBody("Bob", "in", "2024-03-01T10:00:00.000Z"),
			message: "You have already checked in today.",
		},
		{
			name:    "check-out without check-in",
			body:    logBody("Carol", "out", "2024-03-01T17:00:00.000Z"),
			message: "You must check in before checking out.",
		},
		{
			name:    "check-out before check-in",
			body:    logBody("Bob", "out", "2024-03-01T08:00:00.000Z"),
			message: "Check-out time cannot be earlier than check-in time.",
		},
		{
			name:    "malformed json",
			body:    "{not json",
			message: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/log", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeMap(t, rec)["message"])
		})
	}

	t.Run("invalid fields", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/log", logBody("", "sideways", "yesterday"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		msg, _ := decodeMap(t, rec)["message"].(string)
		assert.Contains(t, msg, "name is required")
		assert.Contains(t, msg, "action must be one of: in, out")
		assert.Contains(t, msg, "timestamp must be an ISO 8601 date-time")
	})

	t.Run("second check-out", func(t *testing.T) {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Bob", "out", "2024-03-01T17:00:00.000Z")).Code)
		rec := s.do(t, http.MethodPost, "/log", logBody("Bob", "out", "2024-03-01T18:00:00.000Z"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "You have already checked in and out today.", decodeMap(t, rec)["message"])
	})
}

func TestLog_StoreFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.store.Close()

	rec := s.do(t, http.MethodPost, "/log", logBody("Dana", "in", "2024-03-01T09:00:00.000Z"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decodeMap(t, rec)["error"])
}

func TestTodayLogs(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/today-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Eve", "in", attendance.FormatTimestamp(now))).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Old", "in", "2001-01-01T09:00:00.000Z")).Code)

	rec = s.do(t, http.MethodGet, "/today-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var logs []attendance.DailyLogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "Eve", logs[0].Name)
	require.NotNil(t, logs[0].CheckInTime)
	assert.Equal(t, attendance.FormatTimestamp(now), *logs[0].CheckInTime)
	assert.Nil(t, logs[0].CheckOutTime)
}

func TestLogs_RendersTable(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	s := newTestServer(t, jakarta)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Alice", "in", "2024-03-01T09:00:00.000Z")).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Alice", "out", "2024-03-01T17:30:00.000Z")).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("<b>Mallory</b>", "in", "2024-03-02T08:15:00.000Z")).Code)

	rec := s.do(t, http.MethodGet, "/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	html := rec.Body.String()
	assert.Contains(t, html, "<td>16:00</td>")
	assert.Contains(t, html, "<td>00:30</td>")
	assert.Contains(t, html, "<td>8.50</td>")
	assert.Contains(t, html, "&lt;b&gt;Mallory&lt;/b&gt;")
	assert.NotContains(t, html, "<b>Mallory</b>")

	// Newest check-in first
	assert.Less(t, strings.Index(html, "Mallory"), strings.Index(html, "Alice"))
}

func TestClearLogs(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Alice", "in", "2024-03-01T09:00:00.000Z")).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/log", logBody("Bob", "in", "2024-03-01T09:00:00.000Z")).Code)

	rec := s.do(t, http.MethodPost, "/clear-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logs cleared successfully","changes":2}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/clear-logs", nil)
	assert.JSONEq(t, `{"message":"Logs cleared successfully","changes":0}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EventSource('/events')")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","subscribers":0}`, rec.Body.String())

	_, cleanup := s.hub.Subscribe(attendanceService.EventTopic)
	defer cleanup()
	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.JSONEq(t, `{"status":"ok","subscribers":1}`, rec.Body.String())

	handler := NewAttendanceHandler(nil, sse.NewHub(), failingPinger{}, nil)
	rec = httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "connection refused", decodeMap(t, rec)["error"])
}

func TestEvents_StreamsLogAndClear(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	nextEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}

	require.Equal(t, "connected", nextEvent())
	require.Eventually(t, func() bool {
		return s.hub.SubscriberCount(attendanceService.EventTopic) == 1
	}, time.Second, 10*time.Millisecond)

	post, err := http.Post(srv.URL+"/log", "application/json",
		strings.NewReader(`{"name":"Alice","action":"in","timestamp":"2024-03-01T09:00:00.000Z"}`))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, "log", nextEvent())

	post, err = http.Post(srv.URL+"/clear-logs", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, "cleared", nextEvent())
}
