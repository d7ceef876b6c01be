package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"facility-booking/apperror"
	"facility-booking/models/billing"
	"facility-booking/models/booking"
	"facility-booking/models/facility"
	"facility-booking/models/notification"
	"facility-booking/models/permit"
	"facility-booking/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := New()
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx repository.Repository) error {
		require.NoError(t, tx.CreateFacility(ctx, &facility.Facility{ID: "f1", Name: "Room A", Capacity: 10}))
		_, err := tx.NextPermitSequence(ctx, "2025-03")
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetFacility(ctx, "f1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	seq, err := repo.NextPermitSequence(ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestTransactionCommitsAndNestedReusesScope(t *testing.T) {
	ctx := context.Background()
	repo := New()

	err := repo.Transaction(ctx, func(tx repository.Repository) error {
		return tx.Transaction(ctx, func(inner repository.Repository) error {
			return inner.CreateFacility(ctx, &facility.Facility{ID: "f1", Name: "Room A", Capacity: 10})
		})
	})
	require.NoError(t, err)

	f, err := repo.GetFacility(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Room A", f.Name)
	assert.False(t, f.CreatedAt.IsZero())
}

func TestFacilityNameIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := New()
	require.NoError(t, repo.CreateFacility(ctx, &facility.Facility{ID: "f1", Name: "Room A"}))
	require.NoError(t, repo.CreateFacility(ctx, &facility.Facility{ID: "f2", Name: "Room B"}))

	err := repo.CreateFacility(ctx, &facility.Facility{ID: "f3", Name: "Room A"})
	assert.ErrorIs(t, err, apperror.ErrDuplicateName)

	err = repo.UpdateFacility(ctx, &facility.Facility{ID: "f2", Name: "Room A"})
	assert.ErrorIs(t, err, apperror.ErrDuplicateName)
}

func TestDeleteFacilityCascadesToBookingRecords(t *testing.T) {
	ctx := context.Background()
	repo := New()
	require.NoError(t, repo.CreateFacility(ctx, &facility.Facility{ID: "f1", Name: "Room A", Capacity: 10}))
	require.NoError(t, repo.CreateFacility(ctx, &facility.Facility{ID: "f2", Name: "Room B", Capacity: 10}))
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, b := range []booking.Booking{
		{ID: "b1", FacilityID: "f1", UserID: "u1", StartAt: start, EndAt: start.Add(time.Hour), Status: booking.BookingStatusApproved},
		{ID: "b2", FacilityID: "f2", UserID: "u1", StartAt: start, EndAt: start.Add(time.Hour), Status: booking.BookingStatusApproved},
	} {
		b := b
		require.NoError(t, repo.CreateBooking(ctx, &b))
		require.NoError(t, repo.CreatePermit(ctx, &permit.Permit{ID: "p-" + b.ID, BookingID: b.ID, Number: b.ID + "/UGM/03/2025", Period: "2025-03"}))
		require.NoError(t, repo.CreateBilling(ctx, &billing.Record{ID: "r-" + b.ID, BookingID: b.ID, Status: billing.PaymentStatusUnpaid}))
	}

	require.NoError(t, repo.DeleteFacility(ctx, "f1"))

	_, err := repo.GetBooking(ctx, "b1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = repo.GetPermitByBooking(ctx, "b1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = repo.GetBillingByBooking(ctx, "b1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = repo.GetPermitByBooking(ctx, "b2")
	assert.NoError(t, err)
	_, err = repo.GetBillingByBooking(ctx, "b2")
	assert.NoError(t, err)
}

func TestListBookingsFilters(t *testing.T) {
	ctx := context.Background()
	repo := New()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mk := func(id, facilityID string, from, to int, status booking.BookingStatus) {
		require.NoError(t, repo.CreateBooking(ctx, &booking.Booking{
			ID: id, FacilityID: facilityID, UserID: "u1", Status: status,
			StartAt: day.Add(time.Duration(from) * time.Hour), EndAt: day.Add(time.Duration(to) * time.Hour),
		}))
	}
	mk("b1", "f1", 9, 11, booking.BookingStatusPending)
	mk("b2", "f1", 13, 14, booking.BookingStatusApproved)
	mk("b3", "f1", 10, 12, booking.BookingStatusRejected)
	mk("b4", "f2", 9, 11, booking.BookingStatusPending)

	from, to := day.Add(11*time.Hour), day.Add(13*time.Hour)
	got, err := repo.ListBookings(ctx, repository.BookingFilter{
		FacilityID: "f1",
		Statuses:   booking.ActiveStatuses(),
		From:       &from,
		To:         &to,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, "b2", got[1].ID)

	count, err := repo.CountBookings(ctx, repository.BookingFilter{FacilityID: "f1", ExcludeID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotificationsReadFlags(t *testing.T) {
	ctx := context.Background()
	repo := New()
	for _, id := range []string{"n1", "n2", "n3"} {
		require.NoError(t, repo.CreateNotification(ctx, &notification.Notification{ID: id, UserID: "u1", Title: id}))
	}
	require.NoError(t, repo.CreateNotification(ctx, &notification.Notification{ID: "n4", UserID: "u2"}))

	now := time.Now()
	require.NoError(t, repo.MarkNotificationRead(ctx, "u1", "n1", now))
	assert.ErrorIs(t, repo.MarkNotificationRead(ctx, "u1", "n4", now), apperror.ErrNotFound)

	unread, err := repo.ListNotifications(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "n3", unread[0].ID)

	n, err := repo.MarkAllNotificationsRead(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = repo.ListNotifications(ctx, "u2", true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}

func TestConcurrentSequencesAreDistinct(t *testing.T) {
	ctx := context.Background()
	repo := New()

	const workers = 50
	seen := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Transaction(ctx, func(tx repository.Repository) error {
				seq, err := tx.NextPermitSequence(ctx, "2025-03")
				if err == nil {
					seen <- seq
				}
				return err
			})
		}()
	}
	wg.Wait()
	close(seen)

	got := map[int]bool{}
	for seq := range seen {
		assert.False(t, got[seq], "sequence %d handed out twice", seq)
		got[seq] = true
	}
	for i := 1; i <= workers; i++ {
		assert.True(t, got[i], "sequence %d missing", i)
	}
}
