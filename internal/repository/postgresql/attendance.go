package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type attendanceRepository struct {
	db *database.DB
}

// FindByNameAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindByNameAndDate(ctx context.Context, name string, date string) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, name, date, check_in_time, check_out_time, working_hours, month_name, days_in_month
		FROM attendance_logs
		WHERE name = $1 AND date = $2
		LIMIT 1
	`

	var rec attendance.Record
	err := q.QueryRow(ctx, query, name, date).Scan(
		&rec.ID, &rec.Name, &rec.Date, &rec.CheckInTime, &rec.CheckOutTime,
		&rec.WorkingHours, &rec.MonthName, &rec.DaysInMonth,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No existing attendance found
		}
		return nil, attendance.NewStoreError("failed to get attendance by name and date", err)
	}

	return &rec, nil
}

// Insert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Insert(ctx context.Context, rec attendance.Record) (int64, error) {
	q := GetQuerier(ctx, a.db)

	// ON CONFLICT keeps a racing duplicate from aborting an enclosing transaction
	query := `
		INSERT INTO attendance_logs (name, date, check_in_time, month_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, date) DO NOTHING
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query, rec.Name, rec.Date, rec.CheckInTime, rec.MonthName).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, attendance.ErrDuplicateRecord
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, attendance.ErrDuplicateRecord
		}
		return 0, attendance.NewStoreError("failed to create attendance", err)
	}

	return id, nil
}

// SetCheckOut implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetCheckOut(ctx context.Context, id int64, checkOutTime time.Time, workingHours float64) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_logs
		SET check_out_time = $1, working_hours = $2
		WHERE id = $3 AND check_in_time IS NOT NULL AND check_out_time IS NULL
	`

	commandTag, err := q.Exec(ctx, query, checkOutTime, workingHours, id)
	if err != nil {
		return false, attendance.NewStoreError("failed to check out attendance", err)
	}

	return commandTag.RowsAffected() == 1, nil
}

// SetDaysInMonth implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetDaysInMonth(ctx context.Context, name string, monthName string, days int) (int64, error) {
	q := GetQuerier(ctx, a.db)

	query := `UPDATE attendance_logs SET days_in_month = $1 WHERE name = $2 AND month_name = $3`

	commandTag, err := q.Exec(ctx, query, days, name, monthName)
	if err != nil {
		return 0, attendance.NewStoreError("failed to update days in month", err)
	}

	return commandTag.RowsAffected(), nil
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date string) ([]attendance.DailyLog, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT name, check_in_time, check_out_time
		FROM attendance_logs
		WHERE date = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, attendance.NewStoreError("failed to query attendance by date", err)
	}
	defer rows.Close()

	logs := make([]attendance.DailyLog, 0)
	for rows.Next() {
		var l attendance.DailyLog
		if err := rows.Scan(&l.Name, &l.CheckInTime, &l.CheckOutTime); err != nil {
			return nil, attendance.NewStoreError("failed to scan attendance", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, attendance.NewStoreError("failed to iterate attendance", err)
	}

	return logs, nil
}

// ListAll implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListAll(ctx context.Context) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, name, date, check_in_time, check_out_time, working_hours, month_name, days_in_month
		FROM attendance_logs
		ORDER BY check_in_time DESC NULLS LAST, id DESC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, attendance.NewStoreError("failed to query attendances", err)
	}
	defer rows.Close()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		var rec attendance.Record
		err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Date, &rec.CheckInTime, &rec.CheckOutTime,
			&rec.WorkingHours, &rec.MonthName, &rec.DaysInMonth,
		)
		if err != nil {
			return nil, attendance.NewStoreError("failed to scan attendance", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, attendance.NewStoreError("failed to iterate attendances", err)
	}

	return records, nil
}

// LockMonthTally implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockMonthTally(ctx context.Context, name string, monthName string) error {
	q := GetQuerier(ctx, a.db)

	// Released on commit or rollback; outside a transaction it only lasts the statement
	query := `SELECT pg_advisory_xact_lock(hashtext($1 || '/' || $2))`

	if _, err := q.Exec(ctx, query, name, monthName); err != nil {
		return attendance.NewStoreError("failed to lock month tally", err)
	}

	return nil
}

// CountDistinctDates implements attendance.AttendanceRepository.
func (a *attendanceRepository) CountDistinctDates(ctx context.Context, name string, monthName string) (int, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT COUNT(DISTINCT date) FROM attendance_logs WHERE name = $1 AND month_name = $2`

	var days int
	if err := q.QueryRow(ctx, query, name, monthName).Scan(&days); err != nil {
		return 0, attendance.NewStoreError("failed to count days in month", err)
	}

	return days, nil
}

// ClearAll implements attendance.AttendanceRepository.
func (a *attendanceRepository) ClearAll(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, a.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM attendance_logs`)
	if err != nil {
		return 0, attendance.NewStoreError("failed to clear attendances", err)
	}

	return commandTag.RowsAffected(), nil
}

// ListMonthKeys implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListMonthKeys(ctx context.Context) ([]attendance.MonthKey, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT DISTINCT name, month_name FROM attendance_logs ORDER BY name, month_name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, attendance.NewStoreError("failed to query month keys", err)
	}
	defer rows.Close()

	keys := make([]attendance.MonthKey, 0)
	for rows.Next() {
		var k attendance.MonthKey
		if err := rows.Scan(&k.Name, &k.MonthName); err != nil {
			return nil, attendance.NewStoreError("failed to scan month key", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, attendance.NewStoreError("failed to iterate month keys", err)
	}

	return keys, nil
}

// Ping implements attendance.AttendanceRepository.
func (a *attendanceRepository) Ping(ctx context.Context) error {
	return attendance.NewStoreError("failed to ping database", a.db.Ping(ctx))
}

// WithinTransaction implements attendance.Transactor.
func (a *attendanceRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, a.db, fn)
}

// Close releases the connection pool.
func (a *attendanceRepository) Close() {
	a.db.Close()
}

func NewAttendanceRepository(db *database.DB) attendance.Store {
	return &attendanceRepository{db: db}
}
