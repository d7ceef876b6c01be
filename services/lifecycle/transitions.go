package lifecycle

import (
	"fmt"

	"facility-booking/apperror"
	"facility-booking/models/booking"
)

type Event string

const (
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventWithdraw Event = "withdraw"
)

// Events lists every event the table knows about.
func Events() []Event {
	return []Event{EventApprove, EventReject, EventWithdraw}
}

// StaffOnly events are decisions; withdraw belongs to the requester.
func (ev Event) StaffOnly() bool {
	return ev == EventApprove || ev == EventReject
}

func (ev Event) NeedsReason() bool {
	return ev == EventReject
}

// Transition is a single allowed edge in the booking state machine.
type Transition struct {
	From  booking.BookingStatus
	Event Event
	To    booking.BookingStatus
}

// Submission enters the machine directly in pending; it has no From state.
var transitionsTable = []Transition{
	{From: booking.BookingStatusPending, Event: EventApprove, To: booking.BookingStatusApproved},
	{From: booking.BookingStatusPending, Event: EventReject, To: booking.BookingStatusRejected},
	{From: booking.BookingStatusPending, Event: EventWithdraw, To: booking.BookingStatusCancelled},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from booking.BookingStatus, ev Event) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// Next validates the edge and returns the target state, or InvalidState.
func Next(from booking.BookingStatus, ev Event) (Transition, error) {
	tr, ok := TransitionFor(from, ev)
	if !ok {
		return Transition{}, apperror.InvalidState(fmt.Sprintf("cannot %s a booking that is %s", ev, from))
	}
	return tr, nil
}
