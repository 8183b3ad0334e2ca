package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/domain/attendance"
)

// AttendanceJobs holds the periodic maintenance for attendance records
type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	reconcileInterval time.Duration
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, reconcileInterval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		reconcileInterval: reconcileInterval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reconcile_month_tallies", j.reconcileInterval, j.ReconcileMonthTallies)
}

// ReconcileMonthTallies restamps days_in_month for every employee and month,
// repairing tallies left stale by a failed recompute after a check-in or check-out.
func (j *AttendanceJobs) ReconcileMonthTallies(ctx context.Context) error {
	return j.attendanceService.ReconcileMonthTallies(ctx)
}
