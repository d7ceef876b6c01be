package facility

import (
	"strconv"

	"facility-booking/apperror"
	"facility-booking/repository"
	"facility-booking/types"
)

type FacilityCreateRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=255"`
	Location     string  `json:"location" validate:"required,min=1,max=255"`
	Kind         string  `json:"kind" validate:"required,min=1,max=100"`
	Capacity     int     `json:"capacity" validate:"required,min=1"`
	Available    *bool   `json:"available"`
	PricePerHour float64 `json:"price_per_hour" validate:"gte=0"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
}

func (f FacilityCreateRequest) Validate() error {
	return types.ValidateStruct(f)
}

// FacilityUpdateRequest is a partial update; omitted fields keep their value.
type FacilityUpdateRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Location     *string  `json:"location" validate:"omitempty,min=1,max=255"`
	Kind         *string  `json:"kind" validate:"omitempty,min=1,max=100"`
	Capacity     *int     `json:"capacity" validate:"omitempty,min=1"`
	Available    *bool    `json:"available"`
	PricePerHour *float64 `json:"price_per_hour" validate:"omitempty,gte=0"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
}

func (f FacilityUpdateRequest) Validate() error {
	return types.ValidateStruct(f)
}

// FacilityListQuery is bound from ?kind=&available=&min_capacity=&name=
type FacilityListQuery struct {
	Kind        string `query:"kind"`
	Available   string `query:"available"`
	MinCapacity int    `query:"min_capacity"`
	Name        string `query:"name"`
}

func (q FacilityListQuery) Filter() (repository.FacilityFilter, error) {
	filter := repository.FacilityFilter{Kind: q.Kind, MinCapacity: q.MinCapacity, Name: q.Name}
	if q.MinCapacity < 0 {
		return filter, apperror.Validation("min_capacity must not be negative")
	}
	if q.Available != "" {
		v, err := strconv.ParseBool(q.Available)
		if err != nil {
			return filter, apperror.Validation("available must be true or false")
		}
		filter.Available = &v
	}
	return filter, nil
}
