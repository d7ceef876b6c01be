package conflict

import (
	"context"
	"testing"
	"time"

	"facility-booking/models/booking"
	"facility-booking/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hour(h int) time.Time {
	return time.Date(2025, 3, 10, h, 0, 0, 0, time.UTC)
}

func TestHasConflict(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	seed := []booking.Booking{
		{ID: "pending", FacilityID: "room-a", StartAt: hour(9), EndAt: hour(11), Status: booking.BookingStatusPending},
		{ID: "approved", FacilityID: "room-a", StartAt: hour(14), EndAt: hour(15), Status: booking.BookingStatusApproved},
		{ID: "rejected", FacilityID: "room-a", StartAt: hour(16), EndAt: hour(17), Status: booking.BookingStatusRejected},
		{ID: "cancelled", FacilityID: "room-a", StartAt: hour(18), EndAt: hour(19), Status: booking.BookingStatusCancelled},
		{ID: "other-room", FacilityID: "room-b", StartAt: hour(12), EndAt: hour(13), Status: booking.BookingStatusApproved},
	}
	for i := range seed {
		require.NoError(t, repo.CreateBooking(ctx, &seed[i]))
	}

	tests := []struct {
		name       string
		start, end time.Time
		exclude    string
		want       bool
	}{
		{"overlaps pending", hour(10), hour(12), "", true},
		{"touches pending end", hour(11), hour(13), "", true},
		{"touches approved start", hour(13), hour(14), "", true},
		{"zero length inside", hour(10), hour(10), "", true},
		{"gap between", hour(12), hour(13), "", false},
		{"rejected never conflicts", hour(16), hour(17), "", false},
		{"cancelled never conflicts", hour(18), hour(19), "", false},
		{"excludes itself", hour(9), hour(11), "pending", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasConflict(ctx, repo, "room-a", tt.start, tt.end, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindReturnsTheBlockingBooking(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.CreateBooking(ctx, &booking.Booking{
		ID: "b1", FacilityID: "room-a", StartAt: hour(9), EndAt: hour(11), Status: booking.BookingStatusApproved,
	}))

	b, err := Find(ctx, repo, "room-a", hour(8), hour(9), "")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "b1", b.ID)

	b, err = Find(ctx, repo, "room-a", hour(12), hour(13), "")
	require.NoError(t, err)
	assert.Nil(t, b)
}
