package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-go/internal/pkg/sse"
	attendanceService "github.com/cmlabs-hris/timeclock-go/internal/service/attendance"
)

const keepaliveInterval = 30 * time.Second

type AttendanceHandler interface {
	TodayLogs(w http.ResponseWriter, r *http.Request)
	Log(w http.ResponseWriter, r *http.Request)
	Logs(w http.ResponseWriter, r *http.Request)
	ClearLogs(w http.ResponseWriter, r *http.Request)

	// SSE
	Events(w http.ResponseWriter, r *http.Request)

	Health(w http.ResponseWriter, r *http.Request)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	hub               *sse.Hub
	store             Pinger
	location          *time.Location
}

// NewAttendanceHandler renders /logs times in location; nil means UTC.
func NewAttendanceHandler(attendanceService attendance.AttendanceService, hub *sse.Hub, store Pinger, location *time.Location) AttendanceHandler {
	if location == nil {
		location = time.UTC
	}
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		hub:               hub,
		store:             store,
		location:          location,
	}
}

// TodayLogs implements AttendanceHandler.
func (h *attendanceHandlerImpl) TodayLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.attendanceService.TodayLogs(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, logs)
}

// Log implements AttendanceHandler.
func (h *attendanceHandlerImpl) Log(w http.ResponseWriter, r *http.Request) {
	var req attendance.LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode log request", "error", err)
		response.BadRequest(w, "invalid request body")
		return
	}

	result, err := h.attendanceService.Log(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

type logRow struct {
	Name         string
	Date         string
	CheckIn      string
	CheckOut     string
	WorkingHours string
	MonthName    string
	DaysInMonth  string
}

var logsTemplate = template.Must(template.New("logs").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Employee Logs</title>
<style>
table { border-collapse: collapse; font-family: sans-serif; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
</style>
</head>
<body>
<h1>Employee Logs</h1>
<table>
<tr><th>Name</th><th>Date</th><th>Check In</th><th>Check Out</th><th>Working Hours</th><th>Month</th><th>Days In Month</th></tr>
{{range .}}<tr><td>{{.Name}}</td><td>{{.Date}}</td><td>{{.CheckIn}}</td><td>{{.CheckOut}}</td><td>{{.WorkingHours}}</td><td>{{.MonthName}}</td><td>{{.DaysInMonth}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// Logs implements AttendanceHandler.
func (h *attendanceHandlerImpl) Logs(w http.ResponseWriter, r *http.Request) {
	records, err := h.attendanceService.AllLogs(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	rows := make([]logRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, h.toLogRow(rec))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := logsTemplate.Execute(w, rows); err != nil {
		slog.Error("Failed to render logs", "error", err)
	}
}

func (h *attendanceHandlerImpl) toLogRow(rec attendance.Record) logRow {
	row := logRow{
		Name:      rec.Name,
		Date:      rec.Date,
		CheckIn:   h.clock(rec.CheckInTime),
		CheckOut:  h.clock(rec.CheckOutTime),
		MonthName: rec.MonthName,
	}
	if rec.WorkingHours != nil {
		row.WorkingHours = fmt.Sprintf("%.2f", *rec.WorkingHours)
	}
	if rec.DaysInMonth != nil {
		row.DaysInMonth = fmt.Sprintf("%d", *rec.DaysInMonth)
	}
	return row
}

func (h *attendanceHandlerImpl) clock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(h.location).Format("15:04")
}

// ClearLogs implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClearLogs(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.ClearLogs(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Events streams attendance changes as Server-Sent Events.
func (h *attendanceHandlerImpl) Events(w http.ResponseWriter, r *http.Request) {
	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(attendanceService.EventTopic)
	defer cleanup()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// Health implements AttendanceHandler.
func (h *attendanceHandlerImpl) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		response.ServiceUnavailable(w, err.Error())
		return
	}
	response.Success(w, healthBody{
		Status:      "ok",
		Subscribers: h.hub.SubscriberCount(attendanceService.EventTopic),
	})
}

type healthBody struct {
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers"`
}
