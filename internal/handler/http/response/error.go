package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-go/internal/pkg/validator"
)

var rejectionMessages = []struct {
	err     error
	message string
}{
	{attendance.ErrAlreadyCheckedIn, "You have already checked in today."},
	{attendance.ErrNotCheckedIn, "You must check in before checking out."},
	{attendance.ErrAlreadyCheckedOut, "You have already checked in and out today."},
	{attendance.ErrCheckOutBeforeCheckIn, "Check-out time cannot be earlier than check-in time."},
}

func rejectionMessage(err error) string {
	for _, r := range rejectionMessages {
		if errors.Is(err, r.err) {
			return r.message
		}
	}
	return err.Error()
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		BadRequest(w, validationErrs.Error())
		return
	}

	// Attendance transition rejections
	if attendance.IsRejection(err) {
		BadRequest(w, rejectionMessage(err))
		return
	}

	var storeErr *attendance.StoreError
	if errors.As(err, &storeErr) {
		slog.Error("store failure", "op", storeErr.Op, "error", storeErr.Err)
	} else {
		slog.Error("unexpected error", "error", err)
	}
	InternalServerError(w, err.Error())
}
