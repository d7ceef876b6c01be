// Package registry manages bookable facilities.
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"facility-booking/apperror"
	"facility-booking/cache"
	"facility-booking/logger"
	"facility-booking/models/audit"
	"facility-booking/models/booking"
	"facility-booking/models/facility"
	"facility-booking/repository"
	"facility-booking/services/notify"
	"facility-booking/types"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"
)

type Registry struct {
	repo    repository.Repository
	emitter *notify.Emitter
	cache   cache.FacilityCache
	loc     *time.Location
}

func NewRegistry(repo repository.Repository, emitter *notify.Emitter, c cache.FacilityCache, loc *time.Location) *Registry {
	if c == nil {
		c = cache.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Registry{repo: repo, emitter: emitter, cache: c, loc: loc}
}

type CreateInput struct {
	Name         string
	Location     string
	Kind         string
	Capacity     int
	Available    bool
	PricePerHour float64
	Description  *string
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name         *string
	Location     *string
	Kind         *string
	Capacity     *int
	Available    *bool
	PricePerHour *float64
	Description  *string
}

func requireStaff(actor types.Actor) error {
	if !actor.IsStaff() {
		return apperror.Forbidden("only staff can manage facilities")
	}
	return nil
}

func checkFacility(f *facility.Facility) error {
	if f.Name == "" {
		return apperror.Validation("name is required")
	}
	if f.Location == "" {
		return apperror.Validation("location is required")
	}
	if f.Kind == "" {
		return apperror.Validation("kind is required")
	}
	if f.Capacity < 1 {
		return apperror.Validation("capacity must be at least 1")
	}
	if f.PricePerHour < 0 {
		return apperror.Validation("price_per_hour must not be negative")
	}
	return nil
}

func (r *Registry) Create(ctx context.Context, actor types.Actor, in CreateInput) (*facility.Facility, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	f := &facility.Facility{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Location:     strings.TrimSpace(in.Location),
		Kind:         strings.TrimSpace(in.Kind),
		Capacity:     in.Capacity,
		Available:    in.Available,
		PricePerHour: in.PricePerHour,
		Description:  in.Description,
	}
	if err := checkFacility(f); err != nil {
		return nil, err
	}

	err := r.repo.Transaction(ctx, func(tx repository.Repository) error {
		if err := tx.CreateFacility(ctx, f); err != nil {
			return err
		}
		_, err := r.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			FacilityID:  f.ID,
			Action:      audit.ActionFacilityCreated,
			Description: "Facility " + f.Name + " created",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"facility_id": f.ID, "actor_id": actor.ID}).Info("✅ facility created")
	return f, nil
}

func (r *Registry) Update(ctx context.Context, actor types.Actor, id string, in UpdateInput) (*facility.Facility, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var f *facility.Facility
	err := r.repo.Transaction(ctx, func(tx repository.Repository) error {
		var err error
		f, err = tx.LockFacility(ctx, id)
		if err != nil {
			return err
		}

		var changed []string
		if in.Name != nil {
			f.Name = strings.TrimSpace(*in.Name)
			changed = append(changed, "name")
		}
		if in.Location != nil {
			f.Location = strings.TrimSpace(*in.Location)
			changed = append(changed, "location")
		}
		if in.Kind != nil {
			f.Kind = strings.TrimSpace(*in.Kind)
			changed = append(changed, "kind")
		}
		if in.Capacity != nil {
			f.Capacity = *in.Capacity
			changed = append(changed, "capacity")
		}
		if in.Available != nil {
			f.Available = *in.Available
			changed = append(changed, "available")
		}
		if in.PricePerHour != nil {
			f.PricePerHour = *in.PricePerHour
			changed = append(changed, "price_per_hour")
		}
		if in.Description != nil {
			f.Description = in.Description
			changed = append(changed, "description")
		}
		if err := checkFacility(f); err != nil {
			return err
		}
		if err := tx.UpdateFacility(ctx, f); err != nil {
			return err
		}

		_, err = r.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			FacilityID:  f.ID,
			Action:      audit.ActionFacilityUpdated,
			Description: "Facility " + f.Name + " updated",
			Metadata:    map[string]interface{}{"fields": changed},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate(ctx, id)
	return f, nil
}

// Delete removes a facility that has no pending or approved bookings. The check and the delete
// share the facility lock, so a concurrent submission either lands first and blocks the delete
// or fails with not found.
func (r *Registry) Delete(ctx context.Context, actor types.Actor, id string, confirm bool) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if !confirm {
		return apperror.Validation("deleting a facility requires confirmation")
	}

	err := r.repo.Transaction(ctx, func(tx repository.Repository) error {
		f, err := tx.LockFacility(ctx, id)
		if err != nil {
			return err
		}
		active, err := tx.CountBookings(ctx, repository.BookingFilter{
			FacilityID: id,
			Statuses:   booking.ActiveStatuses(),
		})
		if err != nil {
			return err
		}
		if active > 0 {
			return apperror.Newf(apperror.CodeResourceInUse,
				"facility %s still has %d pending or approved bookings", f.Name, active)
		}
		if err := tx.DeleteFacility(ctx, id); err != nil {
			return err
		}
		_, err = r.emitter.Record(ctx, tx, notify.Record{
			ActorID:     actor.ID,
			FacilityID:  id,
			Action:      audit.ActionFacilityDeleted,
			Description: "Facility " + f.Name + " deleted",
		})
		return err
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, id)
	logger.WithFields(logrus.Fields{"facility_id": id, "actor_id": actor.ID}).Info("✅ facility deleted")
	return nil
}

func (r *Registry) Get(ctx context.Context, id string) (*facility.Facility, error) {
	if f, ok := r.cache.Get(ctx, id); ok {
		return f, nil
	}
	f, err := r.repo.GetFacility(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, f)
	return f, nil
}

func (r *Registry) List(ctx context.Context, filter repository.FacilityFilter) ([]facility.Facility, error) {
	return r.repo.ListFacilities(ctx, filter)
}

// Schedule lists the pending and approved bookings of a facility that overlap the calendar day
// containing day, in the registry's timezone.
func (r *Registry) Schedule(ctx context.Context, id string, day time.Time) ([]booking.Booking, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	d := now.With(day.In(r.loc))
	from, to := d.BeginningOfDay(), d.EndOfDay()
	bookings, err := r.repo.ListBookings(ctx, repository.BookingFilter{
		FacilityID: id,
		Statuses:   booking.ActiveStatuses(),
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule of facility %s: %w", id, err)
	}
	return bookings, nil
}

// ParseDay reads a YYYY-MM-DD date in the registry's timezone; empty means today.
func (r *Registry) ParseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Now().In(r.loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, r.loc)
	if err != nil {
		return time.Time{}, apperror.Validation("date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}
