// Package memory provides an in-process attendance store. It keeps the same
// uniqueness and conditional check-out guarantees as the PostgreSQL store and
// loses all data when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/domain/attendance"
)

type txKey struct{}

type key struct {
	name string
	date string
}

type attendanceRepository struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	nextID  int64
	records map[int64]*attendance.Record
	byKey   map[key]int64
	closed  bool
}

func NewAttendanceRepository() attendance.Store {
	return &attendanceRepository{
		records: make(map[int64]*attendance.Record),
		byKey:   make(map[key]int64),
	}
}

func (a *attendanceRepository) checkOpen(op string) error {
	if a.closed {
		return attendance.NewStoreError(op, errStoreClosed)
	}
	return nil
}

// FindByNameAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindByNameAndDate(ctx context.Context, name string, date string) (*attendance.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.checkOpen("failed to get attendance by name and date"); err != nil {
		return nil, err
	}

	id, ok := a.byKey[key{name: name, date: date}]
	if !ok {
		return nil, nil
	}
	rec := cloneRecord(a.records[id])
	return &rec, nil
}

// Insert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Insert(ctx context.Context, rec attendance.Record) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkOpen("failed to create attendance"); err != nil {
		return 0, err
	}

	k := key{name: rec.Name, date: rec.Date}
	if _, exists := a.byKey[k]; exists {
		return 0, attendance.ErrDuplicateRecord
	}

	a.nextID++
	stored := attendance.Record{
		ID:          a.nextID,
		Name:        rec.Name,
		Date:        rec.Date,
		CheckInTime: copyTime(rec.CheckInTime),
		MonthName:   rec.MonthName,
	}
	a.records[stored.ID] = &stored
	a.byKey[k] = stored.ID

	return stored.ID, nil
}

// SetCheckOut implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetCheckOut(ctx context.Context, id int64, checkOutTime time.Time, workingHours float64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkOpen("failed to check out attendance"); err != nil {
		return false, err
	}

	rec, ok := a.records[id]
	if !ok || rec.CheckInTime == nil || rec.CheckOutTime != nil {
		return false, nil
	}
	rec.CheckOutTime = &checkOutTime
	rec.WorkingHours = &workingHours

	return true, nil
}

// SetDaysInMonth implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetDaysInMonth(ctx context.Context, name string, monthName string, days int) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkOpen("failed to update days in month"); err != nil {
		return 0, err
	}

	var affected int64
	for _, rec := range a.records {
		if rec.Name == name && rec.MonthName == monthName {
			d := days
			rec.DaysInMonth = &d
			affected++
		}
	}

	return affected, nil
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date string) ([]attendance.DailyLog, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.checkOpen("failed to query attendance by date"); err != nil {
		return nil, err
	}

	logs := make([]attendance.DailyLog, 0)
	for _, rec := range a.sortedByID() {
		if rec.Date != date {
			continue
		}
		logs = append(logs, attendance.DailyLog{
			Name:         rec.Name,
			CheckInTime:  copyTime(rec.CheckInTime),
			CheckOutTime: copyTime(rec.CheckOutTime),
		})
	}

	return logs, nil
}

// ListAll implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListAll(ctx context.Context) ([]attendance.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.checkOpen("failed to query attendances"); err != nil {
		return nil, err
	}

	records := make([]attendance.Record, 0, len(a.records))
	for _, rec := range a.records {
		records = append(records, cloneRecord(rec))
	}

	// check_in_time DESC NULLS LAST, id DESC
	sort.Slice(records, func(i, j int) bool {
		ri, rj := records[i], records[j]
		switch {
		case ri.CheckInTime == nil && rj.CheckInTime == nil:
			return ri.ID > rj.ID
		case ri.CheckInTime == nil:
			return false
		case rj.CheckInTime == nil:
			return true
		case !ri.CheckInTime.Equal(*rj.CheckInTime):
			return ri.CheckInTime.After(*rj.CheckInTime)
		default:
			return ri.ID > rj.ID
		}
	})

	return records, nil
}

// LockMonthTally implements attendance.AttendanceRepository. WithinTransaction
// already serializes every transaction, so this only checks the store is open.
func (a *attendanceRepository) LockMonthTally(ctx context.Context, name string, monthName string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.checkOpen("failed to lock month tally")
}

// CountDistinctDates implements attendance.AttendanceRepository.
func (a *attendanceRepository) CountDistinctDates(ctx context.Context, name string, monthName string) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.checkOpen("failed to count days in month"); err != nil {
		return 0, err
	}

	dates := make(map[string]struct{})
	for _, rec := range a.records {
		if rec.Name == name && rec.MonthName == monthName {
			dates[rec.Date] = struct{}{}
		}
	}

	return len(dates), nil
}

// ClearAll implements attendance.AttendanceRepository.
func (a *attendanceRepository) ClearAll(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkOpen("failed to clear attendances"); err != nil {
		return 0, err
	}

	removed := int64(len(a.records))
	a.records = make(map[int64]*attendance.Record)
	a.byKey = make(map[key]int64)

	return removed, nil
}

// ListMonthKeys implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListMonthKeys(ctx context.Context) ([]attendance.MonthKey, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := a.checkOpen("failed to query month keys"); err != nil {
		return nil, err
	}

	seen := make(map[attendance.MonthKey]struct{})
	keys := make([]attendance.MonthKey, 0)
	for _, rec := range a.records {
		k := attendance.MonthKey{Name: rec.Name, MonthName: rec.MonthName}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].MonthName < keys[j].MonthName
	})

	return keys, nil
}

// Ping implements attendance.AttendanceRepository.
func (a *attendanceRepository) Ping(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.checkOpen("failed to ping store")
}

// WithinTransaction implements attendance.Transactor. Transactions are
// serialized against each other; there is no rollback.
func (a *attendanceRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	a.txMu.Lock()
	defer a.txMu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// Close implements attendance.Store. Calls after Close fail with a StoreError.
func (a *attendanceRepository) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

func (a *attendanceRepository) sortedByID() []*attendance.Record {
	out := make([]*attendance.Record, 0, len(a.records))
	for _, rec := range a.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneRecord(rec *attendance.Record) attendance.Record {
	c := *rec
	c.CheckInTime = copyTime(rec.CheckInTime)
	c.CheckOutTime = copyTime(rec.CheckOutTime)
	if rec.WorkingHours != nil {
		h := *rec.WorkingHours
		c.WorkingHours = &h
	}
	if rec.DaysInMonth != nil {
		d := *rec.DaysInMonth
		c.DaysInMonth = &d
	}
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
