package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// Log applies a check-in or check-out depending on req.Action
	Log(ctx context.Context, req LogRequest) (LogResponse, error)

	// CheckIn opens today's session for an employee
	CheckIn(ctx context.Context, name string, ts time.Time) (LogResponse, error)

	// CheckOut closes the open session for the date of ts
	CheckOut(ctx context.Context, name string, ts time.Time) (LogResponse, error)

	// TodayLogs lists check-in/out times for the current UTC date
	TodayLogs(ctx context.Context) ([]DailyLogResponse, error)

	// AllLogs lists every record, newest check-in first
	AllLogs(ctx context.Context) ([]Record, error)

	// ClearLogs deletes every record
	ClearLogs(ctx context.Context) (ClearLogsResponse, error)

	// RecomputeDaysInMonth recounts distinct dates and stamps the tally on all matching records
	RecomputeDaysInMonth(ctx context.Context, name string, monthName string) (int, error)

	// ReconcileMonthTallies recomputes every (name, monthName) tally
	ReconcileMonthTallies(ctx context.Context) error
}
