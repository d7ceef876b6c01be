package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2025, 3, 10, hour, 0, 0, 0, time.UTC)
}

func TestOverlapsIsInclusive(t *testing.T) {
	b := Booking{StartAt: at(9), EndAt: at(11)}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", at(9), at(10), true},
		{"straddles end", at(10), at(12), true},
		{"touches end", at(11), at(13), true},
		{"touches start", at(7), at(9), true},
		{"covers", at(8), at(12), true},
		{"after", at(12), at(13), false},
		{"before", at(6), at(8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(tt.start, tt.end))
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, BookingStatusPending.IsActive())
	assert.True(t, BookingStatusApproved.IsActive())
	assert.False(t, BookingStatusRejected.IsActive())
	assert.False(t, BookingStatusCancelled.IsActive())

	assert.False(t, BookingStatusPending.IsTerminal())
	for _, s := range []BookingStatus{BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, BookingStatus("delivered").IsValid())
	assert.Len(t, GetAllBookingStatuses(), 4)
}

func TestHours(t *testing.T) {
	b := Booking{StartAt: at(9), EndAt: at(11).Add(30 * time.Minute)}
	assert.InDelta(t, 2.5, b.Hours(), 0.0001)
}
