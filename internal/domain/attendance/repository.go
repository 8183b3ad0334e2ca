package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Implementations wrap I/O failures in *StoreError.
type AttendanceRepository interface {
	// FindByNameAndDate returns nil, nil when no record exists
	FindByNameAndDate(ctx context.Context, name string, date string) (*Record, error)

	// Insert creates a checked-in record and returns its id.
	// Returns ErrDuplicateRecord if (name, date) is already taken.
	Insert(ctx context.Context, record Record) (int64, error)

	// SetCheckOut closes an open record. It reports false when no open record has that id.
	SetCheckOut(ctx context.Context, id int64, checkOutTime time.Time, workingHours float64) (bool, error)

	SetDaysInMonth(ctx context.Context, name string, monthName string, days int) (int64, error)

	ListByDate(ctx context.Context, date string) ([]DailyLog, error)

	// ListAll orders by check-in time descending, records without a check-in last
	ListAll(ctx context.Context) ([]Record, error)

	// LockMonthTally blocks other tally recomputes for (name, monthName) until
	// the transaction in ctx ends. Call it before CountDistinctDates.
	LockMonthTally(ctx context.Context, name string, monthName string) error

	CountDistinctDates(ctx context.Context, name string, monthName string) (int, error)

	ClearAll(ctx context.Context) (int64, error)

	// ListMonthKeys returns every distinct (name, monthName) pair
	ListMonthKeys(ctx context.Context) ([]MonthKey, error)

	Ping(ctx context.Context) error
}

// Transactor runs fn so that the repository calls it makes through ctx are atomic.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is a repository that owns its own transactions and lifecycle.
type Store interface {
	AttendanceRepository
	Transactor
	Close()
}
