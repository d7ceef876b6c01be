package lifecycle

import (
	"testing"

	"facility-booking/apperror"
	"facility-booking/models/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTableIsExhaustive(t *testing.T) {
	want := map[booking.BookingStatus]map[Event]booking.BookingStatus{
		booking.BookingStatusPending: {
			EventApprove:  booking.BookingStatusApproved,
			EventReject:   booking.BookingStatusRejected,
			EventWithdraw: booking.BookingStatusCancelled,
		},
	}

	for _, from := range booking.GetAllBookingStatuses() {
		for _, ev := range Events() {
			tr, err := Next(from, ev)
			to, allowed := want[from][ev]
			if !allowed {
				assert.ErrorIs(t, err, apperror.ErrInvalidState, "%s --%s--> should be rejected", from, ev)
				continue
			}
			require.NoError(t, err, "%s --%s-->", from, ev)
			assert.Equal(t, to, tr.To)
		}
	}
}

func TestTerminalStatesAreClosed(t *testing.T) {
	for _, from := range booking.GetAllBookingStatuses() {
		if !from.IsTerminal() {
			continue
		}
		for _, ev := range Events() {
			_, ok := TransitionFor(from, ev)
			assert.False(t, ok, "%s must not accept %s", from, ev)
		}
	}
}

func TestEventFlags(t *testing.T) {
	assert.True(t, EventApprove.StaffOnly())
	assert.True(t, EventReject.StaffOnly())
	assert.False(t, EventWithdraw.StaffOnly())

	assert.True(t, EventReject.NeedsReason())
	assert.False(t, EventApprove.NeedsReason())
	assert.False(t, EventWithdraw.NeedsReason())
}
