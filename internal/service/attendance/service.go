package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-go/internal/pkg/sse"
)

const (
	// EventTopic is the hub topic attendance changes are published on
	EventTopic = "attendance"

	EventLog     = "log"
	EventCleared = "cleared"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	attendance.Transactor
	hub *sse.Hub
	now func() time.Time
}

// Log implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Log(ctx context.Context, req attendance.LogRequest) (attendance.LogResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.LogResponse{}, err
	}

	var (
		result attendance.LogResponse
		err    error
	)
	switch req.Action {
	case attendance.ActionCheckIn:
		result, err = a.CheckIn(ctx, req.Name, req.Time)
	default:
		result, err = a.CheckOut(ctx, req.Name, req.Time)
	}
	if err != nil {
		return attendance.LogResponse{}, err
	}

	// Echo the timestamp exactly as the client sent it
	result.Timestamp = req.Timestamp
	return result, nil
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, name string, ts time.Time) (attendance.LogResponse, error) {
	date, monthName := attendance.Derive(ts)

	existing, err := a.AttendanceRepository.FindByNameAndDate(ctx, name, date)
	if err != nil {
		return attendance.LogResponse{}, fmt.Errorf("failed to check existing attendance: %w", err)
	}
	if existing != nil {
		return attendance.LogResponse{}, attendance.ErrAlreadyCheckedIn
	}

	checkIn := ts.UTC()
	id, err := a.AttendanceRepository.Insert(ctx, attendance.Record{
		Name:        name,
		Date:        date,
		CheckInTime: &checkIn,
		MonthName:   monthName,
	})
	if err != nil {
		// Lost a race with a concurrent check-in for the same day
		if errors.Is(err, attendance.ErrDuplicateRecord) {
			return attendance.LogResponse{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.LogResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	days := a.refreshDaysInMonth(ctx, name, monthName, 0)

	result := attendance.LogResponse{
		ID:          id,
		Name:        name,
		Action:      attendance.ActionCheckIn,
		Timestamp:   attendance.FormatTimestamp(ts),
		Date:        date,
		MonthName:   monthName,
		DaysInMonth: days,
	}
	a.hub.Publish(sse.Event{Topic: EventTopic, Event: EventLog, Data: result})

	return result, nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, name string, ts time.Time) (attendance.LogResponse, error) {
	date, _ := attendance.Derive(ts)

	existing, err := a.AttendanceRepository.FindByNameAndDate(ctx, name, date)
	if err != nil {
		return attendance.LogResponse{}, fmt.Errorf("failed to check existing attendance: %w", err)
	}
	if existing == nil || existing.CheckInTime == nil {
		return attendance.LogResponse{}, attendance.ErrNotCheckedIn
	}
	if existing.CheckOutTime != nil {
		return attendance.LogResponse{}, attendance.ErrAlreadyCheckedOut
	}
	if ts.Before(*existing.CheckInTime) {
		return attendance.LogResponse{}, attendance.ErrCheckOutBeforeCheckIn
	}

	workingHours := attendance.HoursBetween(*existing.CheckInTime, ts)

	updated, err := a.AttendanceRepository.SetCheckOut(ctx, existing.ID, ts.UTC(), workingHours)
	if err != nil {
		return attendance.LogResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}
	if !updated {
		// A concurrent check-out closed the session first
		return attendance.LogResponse{}, attendance.ErrAlreadyCheckedOut
	}

	fallback := 0
	if existing.DaysInMonth != nil {
		fallback = *existing.DaysInMonth
	}
	days := a.refreshDaysInMonth(ctx, name, existing.MonthName, fallback)

	result := attendance.LogResponse{
		ID:           existing.ID,
		Name:         name,
		Action:       attendance.ActionCheckOut,
		Timestamp:    attendance.FormatTimestamp(ts),
		Date:         existing.Date,
		MonthName:    existing.MonthName,
		DaysInMonth:  days,
		WorkingHours: &workingHours,
	}
	a.hub.Publish(sse.Event{Topic: EventTopic, Event: EventLog, Data: result})

	return result, nil
}

// refreshDaysInMonth runs the month tally after a committed check-in or
// check-out. A failure here leaves the primary write in place; it is logged
// and the last persisted tally is reported instead.
func (a *AttendanceServiceImpl) refreshDaysInMonth(ctx context.Context, name, monthName string, fallback int) int {
	days, err := a.RecomputeDaysInMonth(ctx, name, monthName)
	if err != nil {
		slog.Error("Failed to recompute days in month",
			"name", name,
			"month_name", monthName,
			"error", err,
		)
		return fallback
	}
	return days
}

// RecomputeDaysInMonth implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecomputeDaysInMonth(ctx context.Context, name string, monthName string) (int, error) {
	var days int
	err := a.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// Without the lock a slower recompute can stamp an older count last
		if err := a.AttendanceRepository.LockMonthTally(ctx, name, monthName); err != nil {
			return fmt.Errorf("failed to lock days in month: %w", err)
		}
		count, err := a.AttendanceRepository.CountDistinctDates(ctx, name, monthName)
		if err != nil {
			return fmt.Errorf("failed to count days in month: %w", err)
		}
		if _, err := a.AttendanceRepository.SetDaysInMonth(ctx, name, monthName, count); err != nil {
			return fmt.Errorf("failed to stamp days in month: %w", err)
		}
		days = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return days, nil
}

// ReconcileMonthTallies implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ReconcileMonthTallies(ctx context.Context) error {
	keys, err := a.AttendanceRepository.ListMonthKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list month keys: %w", err)
	}

	var errs []error
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := a.RecomputeDaysInMonth(ctx, k.Name, k.MonthName); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", k.Name, k.MonthName, err))
		}
	}

	slog.Debug("Month tallies reconciled", "keys", len(keys), "failed", len(errs))
	return errors.Join(errs...)
}

// TodayLogs implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) TodayLogs(ctx context.Context) ([]attendance.DailyLogResponse, error) {
	today, _ := attendance.Derive(a.now())

	logs, err := a.AttendanceRepository.ListByDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's attendance: %w", err)
	}

	responses := make([]attendance.DailyLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, attendance.NewDailyLogResponse(l))
	}
	return responses, nil
}

// AllLogs implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) AllLogs(ctx context.Context) ([]attendance.Record, error) {
	records, err := a.AttendanceRepository.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// ClearLogs implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClearLogs(ctx context.Context) (attendance.ClearLogsResponse, error) {
	removed, err := a.AttendanceRepository.ClearAll(ctx)
	if err != nil {
		return attendance.ClearLogsResponse{}, fmt.Errorf("failed to clear attendance: %w", err)
	}

	slog.Info("Attendance logs cleared", "changes", removed)
	result := attendance.ClearLogsResponse{
		Message: "Logs cleared successfully",
		Changes: removed,
	}
	a.hub.Publish(sse.Event{Topic: EventTopic, Event: EventCleared, Data: result})

	return result, nil
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	transactor attendance.Transactor,
	hub *sse.Hub,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		Transactor:           transactor,
		hub:                  hub,
		now:                  time.Now,
	}
}
