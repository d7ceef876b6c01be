package permit

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"facility-booking/apperror"
	"facility-booking/logger"
	"facility-booking/models/booking"
	"facility-booking/models/facility"
	"facility-booking/repository"
	"facility-booking/repository/memory"
	"facility-booking/services/document"
	"facility-booking/services/notify"
	"facility-booking/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRenderer fails its first `failures` calls.
type flakyRenderer struct {
	failures int32
	calls    atomic.Int32
}

func (r *flakyRenderer) Render(_ context.Context, data document.PermitData) ([]byte, error) {
	if r.calls.Add(1) <= r.failures {
		return nil, errors.New("renderer offline")
	}
	return []byte("<html>" + data.Number + "</html>"), nil
}

func (r *flakyRenderer) Extension() string { return ".html" }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func setup(t *testing.T, renderer document.Renderer, clk *clock) (*Issuer, *memory.Repository) {
	t.Helper()
	logger.SetOutput(io.Discard)
	repo := memory.New()
	ctx := context.Background()
	require.NoError(t, repo.CreateFacility(ctx, &facility.Facility{ID: "f1", Name: "Aula", Location: "FEB", Kind: "hall", Capacity: 100, Available: true}))
	issuer := NewIssuer(repo, renderer, storage.NewFileStorage(t.TempDir()), notify.NewEmitter(nil), WithClock(clk.now))
	return issuer, repo
}

func seed(t *testing.T, repo *memory.Repository, id string, status booking.BookingStatus) {
	t.Helper()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBooking(context.Background(), &booking.Booking{
		ID: id, UserID: "u1", FacilityID: "f1", StartAt: start, EndAt: start.Add(time.Hour), Purpose: "x", Status: status,
	}))
}

func TestIssueForIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)}
	issuer, repo := setup(t, &flakyRenderer{}, clk)
	seed(t, repo, "b1", booking.BookingStatusApproved)
	seed(t, repo, "b2", booking.BookingStatusApproved)

	first, err := issuer.IssueFor(ctx, "b1", "staff")
	require.NoError(t, err)
	again, err := issuer.IssueFor(ctx, "b1", "staff")
	require.NoError(t, err)
	assert.Equal(t, "001/UGM/03/2025", first.Number)
	assert.Equal(t, first.Number, again.Number)
	assert.Equal(t, *first.DocumentLocation, *again.DocumentLocation)

	// the repeat did not consume a number
	second, err := issuer.IssueFor(ctx, "b2", "staff")
	require.NoError(t, err)
	assert.Equal(t, "002/UGM/03/2025", second.Number)

	entries, err := repo.ListAuditEntries(ctx, repository.AuditFilter{BookingID: "b1"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIssueForRequiresApproval(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)}
	issuer, repo := setup(t, &flakyRenderer{}, clk)
	for _, st := range []booking.BookingStatus{booking.BookingStatusPending, booking.BookingStatusRejected, booking.BookingStatusCancelled} {
		seed(t, repo, string(st), st)
		_, err := issuer.IssueFor(context.Background(), string(st), "staff")
		assert.ErrorIs(t, err, apperror.ErrInvalidState, st)
	}
	_, err := issuer.IssueFor(context.Background(), "missing", "staff")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSequenceRestartsEachMonth(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)}
	issuer, repo := setup(t, &flakyRenderer{}, clk)
	for _, id := range []string{"m1", "m2", "a1"} {
		seed(t, repo, id, booking.BookingStatusApproved)
	}

	p, err := issuer.IssueFor(ctx, "m1", "staff")
	require.NoError(t, err)
	assert.Equal(t, "001/UGM/03/2025", p.Number)
	p, err = issuer.IssueFor(ctx, "m2", "staff")
	require.NoError(t, err)
	assert.Equal(t, "002/UGM/03/2025", p.Number)

	clk.set(time.Date(2025, 4, 1, 0, 1, 0, 0, time.UTC))
	p, err = issuer.IssueFor(ctx, "a1", "staff")
	require.NoError(t, err)
	assert.Equal(t, "001/UGM/04/2025", p.Number)
	assert.Equal(t, "2025-04", p.Period)
}

func TestMonthFollowsConfiguredTimezone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 18:00 UTC on the 31st is already April 1st in Jakarta
	clk := &clock{t: time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC)}
	logger.SetOutput(io.Discard)
	repo := memory.New()
	require.NoError(t, repo.CreateFacility(context.Background(), &facility.Facility{ID: "f1", Name: "Aula", Location: "FEB", Kind: "hall", Capacity: 1, Available: true}))
	issuer := NewIssuer(repo, &flakyRenderer{}, storage.NewFileStorage(t.TempDir()), notify.NewEmitter(nil), WithClock(clk.now), WithLocation(jakarta))
	seed(t, repo, "b1", booking.BookingStatusApproved)

	p, err := issuer.IssueFor(context.Background(), "b1", "staff")
	require.NoError(t, err)
	assert.Equal(t, "001/UGM/04/2025", p.Number)
}

func TestRenderFailureIsRetriedWithoutNewNumber(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)}
	renderer := &flakyRenderer{failures: 1}
	issuer, repo := setup(t, renderer, clk)
	seed(t, repo, "b1", booking.BookingStatusApproved)

	p, err := issuer.IssueFor(ctx, "b1", "staff")
	require.NoError(t, err, "the permit survives a rendering failure")
	assert.False(t, p.HasDocument())

	stored, err := issuer.Fetch(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, stored.HasDocument())

	retried, err := issuer.IssueFor(ctx, "b1", "staff")
	require.NoError(t, err)
	assert.Equal(t, p.Number, retried.Number)
	assert.True(t, retried.HasDocument())
	assert.Equal(t, int32(2), renderer.calls.Load())
}

func TestWorkerRendersQueuedPermits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := &clock{t: time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)}
	issuer, repo := setup(t, &flakyRenderer{}, clk)
	seed(t, repo, "b1", booking.BookingStatusApproved)

	err := repo.Transaction(ctx, func(tx repository.Repository) error {
		b, err := tx.LockBooking(ctx, "b1")
		if err != nil {
			return err
		}
		_, _, err = issuer.Allocate(ctx, tx, b, "staff")
		return err
	})
	require.NoError(t, err)

	go issuer.Run(ctx)
	issuer.Enqueue("b1")

	require.Eventually(t, func() bool {
		p, err := issuer.Fetch(ctx, "b1")
		return err == nil && p.HasDocument()
	}, 2*time.Second, 10*time.Millisecond)

	doc, p, err := issuer.Document(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "<html>"+p.Number+"</html>", string(doc))
}
