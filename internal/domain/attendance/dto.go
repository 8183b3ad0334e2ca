package attendance

import (
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/pkg/validator"
)

// ========================================
// LOG DTOs
// ========================================

type LogRequest struct {
	Name      string `json:"name"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`

	// Parsed by Validate
	Time time.Time `json:"-"`
}

func (r *LogRequest) Validate() error {
	var errs validator.ValidationErrors

	// name is an identifier and is stored exactly as sent
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if !validator.IsInSlice(r.Action, []string{ActionCheckIn, ActionCheckOut}) {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be one of: in, out",
		})
	}

	if validator.IsEmpty(r.Timestamp) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	} else if ts, ok := validator.IsValidDateTime(r.Timestamp); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be an ISO 8601 date-time",
		})
	} else {
		r.Time = ts
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LogResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Action       string   `json:"action"`
	Timestamp    string   `json:"timestamp"`
	Date         string   `json:"date"`
	MonthName    string   `json:"monthName"`
	DaysInMonth  int      `json:"daysInMonth"`
	WorkingHours *float64 `json:"workingHours,omitempty"`
}

type DailyLogResponse struct {
	Name         string  `json:"name"`
	CheckInTime  *string `json:"checkInTime"`
	CheckOutTime *string `json:"checkOutTime"`
}

// NewDailyLogResponse converts a DailyLog to its JSON form
func NewDailyLogResponse(l DailyLog) DailyLogResponse {
	return DailyLogResponse{
		Name:         l.Name,
		CheckInTime:  timePtrToString(l.CheckInTime),
		CheckOutTime: timePtrToString(l.CheckOutTime),
	}
}

type ClearLogsResponse struct {
	Message string `json:"message"`
	Changes int64  `json:"changes"`
}
