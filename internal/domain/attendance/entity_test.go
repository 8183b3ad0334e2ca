package attendance

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	cases := []struct {
		ts        time.Time
		wantDate  string
		wantMonth string
	}{
		{time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), "2024-03-01", "March"},
		{time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), "2024-12-31", "December"},
		// 00:30 in UTC+7 is still the previous day in UTC
		{time.Date(2024, 4, 1, 0, 30, 0, 0, time.FixedZone("WIB", 7*3600)), "2024-03-31", "March"},
	}
	for _, c := range cases {
		date, month := Derive(c.ts)
		assert.Equal(t, c.wantDate, date, "date for %s", c.ts)
		assert.Equal(t, c.wantMonth, month, "month for %s", c.ts)
	}
}

func TestHoursBetween(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.InDelta(t, 8.0, HoursBetween(in, in.Add(8*time.Hour)), 1e-9)
	assert.InDelta(t, 7.75, HoursBetween(in, in.Add(7*time.Hour+45*time.Minute)), 1e-9)
	assert.InDelta(t, 0.0, HoursBetween(in, in), 1e-9)
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 16, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, "2024-03-01T09:00:00.000Z", FormatTimestamp(ts))
}

func TestNewDailyLogResponse(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	resp := NewDailyLogResponse(DailyLog{Name: "Alice", CheckInTime: &in})

	assert.Equal(t, "Alice", resp.Name)
	require.NotNil(t, resp.CheckInTime)
	assert.Equal(t, "2024-03-01T09:00:00.000Z", *resp.CheckInTime)
	assert.Nil(t, resp.CheckOutTime)
}

func TestLogRequest_Validate(t *testing.T) {
	t.Run("valid check-in", func(t *testing.T) {
		req := LogRequest{Name: "  Alice ", Action: ActionCheckIn, Timestamp: "2024-03-01T09:00:00Z"}
		require.NoError(t, req.Validate())
		assert.Equal(t, "  Alice ", req.Name)
		assert.True(t, req.Time.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("blank name", func(t *testing.T) {
		req := LogRequest{Name: " \t ", Action: ActionCheckIn, Timestamp: "2024-03-01T09:00:00Z"}
		err := req.Validate()

		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "name is required", verrs.ToMap()["name"])
	})

	t.Run("missing fields", func(t *testing.T) {
		req := LogRequest{}
		err := req.Validate()
		require.Error(t, err)

		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		fields := verrs.ToMap()
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "action")
		assert.Contains(t, fields, "timestamp")
	})

	t.Run("unknown action and bad timestamp", func(t *testing.T) {
		req := LogRequest{Name: "Bob", Action: "lunch", Timestamp: "yesterday"}
		err := req.Validate()

		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Len(t, verrs, 2)
	})
}

func TestStoreError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewStoreError("insert attendance", cause)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "insert attendance", storeErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert attendance: connection refused", err.Error())

	assert.Nil(t, NewStoreError("noop", nil))
}

func TestIsRejection(t *testing.T) {
	assert.True(t, IsRejection(ErrAlreadyCheckedIn))
	assert.True(t, IsRejection(fmt.Errorf("check in: %w", ErrNotCheckedIn)))
	assert.True(t, IsRejection(ErrAlreadyCheckedOut))
	assert.False(t, IsRejection(ErrDuplicateRecord))
	assert.False(t, IsRejection(NewStoreError("op", errors.New("boom"))))
}
