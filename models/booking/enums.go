package booking

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Helper methods for BookingStatus
func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once no further transition is possible
func (bs BookingStatus) IsTerminal() bool {
	return bs == BookingStatusApproved || bs == BookingStatusRejected || bs == BookingStatusCancelled
}

// IsActive returns true if the booking holds its slot for conflict checking
func (bs BookingStatus) IsActive() bool {
	return bs == BookingStatusPending || bs == BookingStatusApproved
}

// ActiveStatuses are the statuses that take part in conflict checks
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPending, BookingStatusApproved}
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusApproved,
		BookingStatusRejected,
		BookingStatusCancelled,
	}
}
