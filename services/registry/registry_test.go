package registry

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"facility-booking/apperror"
	"facility-booking/logger"
	"facility-booking/models/booking"
	"facility-booking/models/facility"
	"facility-booking/models/user"
	"facility-booking/repository"
	"facility-booking/repository/memory"
	"facility-booking/services/notify"
	"facility-booking/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	staff     = types.Actor{ID: "staff-1", Role: user.RoleStaff}
	requester = types.Actor{ID: "user-1", Role: user.RoleUser}
)

type mapCache struct {
	mu    sync.Mutex
	items map[string]facility.Facility
	hits  int
}

func (c *mapCache) Get(_ context.Context, id string) (*facility.Facility, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.items[id]
	if ok {
		c.hits++
	}
	return &f, ok
}

func (c *mapCache) Set(_ context.Context, f *facility.Facility) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[f.ID] = *f
}

func (c *mapCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

func newRegistry(t *testing.T) (*Registry, *memory.Repository, *mapCache) {
	t.Helper()
	logger.SetOutput(io.Discard)
	repo := memory.New()
	c := &mapCache{items: map[string]facility.Facility{}}
	return NewRegistry(repo, notify.NewEmitter(nil), c, time.UTC), repo, c
}

func hall() CreateInput {
	return CreateInput{Name: "Grha Sabha Pramana", Location: "Bulaksumur", Kind: "hall", Capacity: 500, Available: true, PricePerHour: 250000}
}

func TestCreateValidatesAndAudits(t *testing.T) {
	ctx := context.Background()
	reg, repo, _ := newRegistry(t)

	tests := []struct {
		name string
		in   CreateInput
		code apperror.Code
	}{
		{"zero capacity", CreateInput{Name: "A", Location: "L", Kind: "room"}, apperror.CodeValidation},
		{"missing name", CreateInput{Location: "L", Kind: "room", Capacity: 1}, apperror.CodeValidation},
		{"negative price", CreateInput{Name: "A", Location: "L", Kind: "room", Capacity: 1, PricePerHour: -1}, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Create(ctx, staff, tt.in)
			assert.Equal(t, tt.code, apperror.CodeOf(err))
		})
	}

	_, err := reg.Create(ctx, requester, hall())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	f, err := reg.Create(ctx, staff, hall())
	require.NoError(t, err)
	_, err = reg.Create(ctx, staff, hall())
	assert.ErrorIs(t, err, apperror.ErrDuplicateName)

	entries, err := repo.ListAuditEntries(ctx, repository.AuditFilter{FacilityID: f.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "facility.created", entries[0].Action)
	assert.Nil(t, entries[0].BookingID)
}

func TestUpdateRenameOntoExistingName(t *testing.T) {
	ctx := context.Background()
	reg, _, c := newRegistry(t)

	a, err := reg.Create(ctx, staff, hall())
	require.NoError(t, err)
	in := hall()
	in.Name = "Auditorium"
	b, err := reg.Create(ctx, staff, in)
	require.NoError(t, err)

	_, err = reg.Get(ctx, b.ID)
	require.NoError(t, err)

	_, err = reg.Update(ctx, staff, b.ID, UpdateInput{Name: &a.Name})
	assert.ErrorIs(t, err, apperror.ErrDuplicateName)

	off := false
	updated, err := reg.Update(ctx, staff, b.ID, UpdateInput{Available: &off})
	require.NoError(t, err)
	assert.False(t, updated.Available)

	_, cached := c.items[b.ID]
	assert.False(t, cached, "writes invalidate the cache")
	got, err := reg.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestDeleteRequiresConfirmationAndNoActiveBookings(t *testing.T) {
	ctx := context.Background()
	reg, repo, _ := newRegistry(t)
	f, err := reg.Create(ctx, staff, hall())
	require.NoError(t, err)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	b := &booking.Booking{ID: uuid.NewString(), UserID: requester.ID, FacilityID: f.ID, StartAt: start, EndAt: start.Add(2 * time.Hour), Purpose: "seminar", Status: booking.BookingStatusPending}
	require.NoError(t, repo.CreateBooking(ctx, b))

	assert.ErrorIs(t, reg.Delete(ctx, staff, f.ID, false), apperror.ErrValidation)
	assert.ErrorIs(t, reg.Delete(ctx, staff, f.ID, true), apperror.ErrResourceInUse)

	b.Status = booking.BookingStatusRejected
	require.NoError(t, repo.UpdateBooking(ctx, b))
	require.NoError(t, reg.Delete(ctx, staff, f.ID, true))

	_, err = reg.Get(ctx, f.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, reg.Delete(ctx, staff, f.ID, true), apperror.ErrNotFound)
}

func TestScheduleReturnsActiveBookingsOfTheDay(t *testing.T) {
	ctx := context.Background()
	reg, repo, _ := newRegistry(t)
	f, err := reg.Create(ctx, staff, hall())
	require.NoError(t, err)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mk := func(start time.Time, hours int, status booking.BookingStatus) {
		require.NoError(t, repo.CreateBooking(ctx, &booking.Booking{
			ID: uuid.NewString(), UserID: requester.ID, FacilityID: f.ID,
			StartAt: start, EndAt: start.Add(time.Duration(hours) * time.Hour), Purpose: "x", Status: status,
		}))
	}
	mk(day.Add(8*time.Hour), 2, booking.BookingStatusApproved)
	mk(day.Add(13*time.Hour), 1, booking.BookingStatusPending)
	mk(day.Add(15*time.Hour), 1, booking.BookingStatusCancelled)
	mk(day.Add(-2*time.Hour), 3, booking.BookingStatusApproved) // spills over midnight
	mk(day.Add(30*time.Hour), 1, booking.BookingStatusApproved)

	got, err := reg.Schedule(ctx, f.ID, day.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = reg.Schedule(ctx, "missing", day)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestParseDay(t *testing.T) {
	reg, _, _ := newRegistry(t)
	d, err := reg.ParseDay("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Day())
	_, err = reg.ParseDay("10/03/2025")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
