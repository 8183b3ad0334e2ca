package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/timeclock-go/internal/pkg/database"
)

const attendanceSchema = `
	CREATE TABLE IF NOT EXISTS attendance_logs (
		id              BIGSERIAL PRIMARY KEY,
		name            TEXT NOT NULL,
		date            TEXT NOT NULL,
		check_in_time   TIMESTAMPTZ,
		check_out_time  TIMESTAMPTZ,
		working_hours   DOUBLE PRECISION,
		month_name      TEXT NOT NULL,
		days_in_month   INTEGER,
		CONSTRAINT attendance_logs_name_date_key UNIQUE (name, date),
		CONSTRAINT attendance_logs_checkout_after_checkin CHECK (check_out_time IS NULL OR check_in_time IS NOT NULL)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_logs_name_month ON attendance_logs (name, month_name);
	CREATE INDEX IF NOT EXISTS idx_attendance_logs_check_in ON attendance_logs (check_in_time DESC);
`

// EnsureSchema creates the attendance table and its indexes if they are missing.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, attendanceSchema); err != nil {
		return fmt.Errorf("failed to create attendance schema: %w", err)
	}
	return nil
}
