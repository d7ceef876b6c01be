// Package conflict decides whether a requested interval collides with an active booking.
package conflict

import (
	"context"
	"time"

	"facility-booking/models/booking"
	"facility-booking/repository"
)

// Find returns the first pending or approved booking of the facility overlapping [start, end],
// or nil. Callers must hold the facility lock through repo so the answer stays true until commit.
func Find(ctx context.Context, repo repository.Repository, facilityID string, start, end time.Time, excludeID string) (*booking.Booking, error) {
	candidates, err := repo.ListBookings(ctx, repository.BookingFilter{
		FacilityID: facilityID,
		Statuses:   booking.ActiveStatuses(),
		ExcludeID:  excludeID,
		From:       &start,
		To:         &end,
	})
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].Overlaps(start, end) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// HasConflict is Find reduced to a yes/no answer.
func HasConflict(ctx context.Context, repo repository.Repository, facilityID string, start, end time.Time, excludeID string) (bool, error) {
	b, err := Find(ctx, repo, facilityID, start, end, excludeID)
	return b != nil, err
}
