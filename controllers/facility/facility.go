package facility

import (
	"strconv"

	"facility-booking/apperror"
	"facility-booking/controllers"
	"facility-booking/middleware"
	"facility-booking/resource"
	"facility-booking/services/registry"
	facilityTypes "facility-booking/types/facility"

	"github.com/gofiber/fiber/v2"
)

// FacilityController handles facility registry HTTP requests
type FacilityController struct {
	Registry *registry.Registry
}

func NewFacilityController(r *registry.Registry) *FacilityController {
	return &FacilityController{Registry: r}
}

// Index lists facilities matching ?kind=&available=&min_capacity=&name=
func (fc *FacilityController) Index(c *fiber.Ctx) error {
	var q facilityTypes.FacilityListQuery
	if err := c.QueryParser(&q); err != nil {
		return controllers.RespondError(c, apperror.Wrap(apperror.CodeValidation, err, "Invalid query parameters"))
	}
	filter, err := q.Filter()
	if err != nil {
		return controllers.RespondError(c, err)
	}
	items, err := fc.Registry.List(c.UserContext(), filter)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Facilities retrieved successfully", items)
}

func (fc *FacilityController) Store(c *fiber.Ctx) error {
	var req facilityTypes.FacilityCreateRequest
	if err := controllers.ParseBody(c, &req); err != nil {
		return controllers.RespondError(c, err)
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	f, err := fc.Registry.Create(c.UserContext(), middleware.GetActor(c), registry.CreateInput{
		Name:         req.Name,
		Location:     req.Location,
		Kind:         req.Kind,
		Capacity:     req.Capacity,
		Available:    available,
		PricePerHour: req.PricePerHour,
		Description:  req.Description,
	})
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusCreated, "Facility created successfully", f)
}

func (fc *FacilityController) Show(c *fiber.Ctx) error {
	f, err := fc.Registry.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Facility retrieved successfully", f)
}

func (fc *FacilityController) Update(c *fiber.Ctx) error {
	var req facilityTypes.FacilityUpdateRequest
	if err := controllers.ParseBody(c, &req); err != nil {
		return controllers.RespondError(c, err)
	}
	f, err := fc.Registry.Update(c.UserContext(), middleware.GetActor(c), c.Params("id"), registry.UpdateInput{
		Name:         req.Name,
		Location:     req.Location,
		Kind:         req.Kind,
		Capacity:     req.Capacity,
		Available:    req.Available,
		PricePerHour: req.PricePerHour,
		Description:  req.Description,
	})
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Facility updated successfully", f)
}

// Destroy requires ?confirm=true
func (fc *FacilityController) Destroy(c *fiber.Ctx) error {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	if err := fc.Registry.Delete(c.UserContext(), middleware.GetActor(c), c.Params("id"), confirm); err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Facility deleted successfully", nil)
}

// Schedule lists the active bookings of ?date=YYYY-MM-DD, today by default
func (fc *FacilityController) Schedule(c *fiber.Ctx) error {
	day, err := fc.Registry.ParseDay(c.Query("date"))
	if err != nil {
		return controllers.RespondError(c, err)
	}
	id := c.Params("id")
	bookings, err := fc.Registry.Schedule(c.UserContext(), id, day)
	if err != nil {
		return controllers.RespondError(c, err)
	}
	return controllers.Respond(c, fiber.StatusOK, "Schedule retrieved successfully", resource.ScheduleResource{
		FacilityID: id,
		Date:       day.Format("2006-01-02"),
		Bookings:   resource.NewBookingCollection(bookings),
	})
}
