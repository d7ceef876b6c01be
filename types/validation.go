package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"facility-booking/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// field names in messages follow the json tags, e.g. facility_id
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs the validate tags of a request DTO and reports the first failing field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Validation(err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.Validation(fmt.Sprintf("%s is required", field))
	case "oneof":
		return apperror.Validation(fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
	case "min", "gte":
		return apperror.Validation(fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	case "max", "lte":
		return apperror.Validation(fmt.Sprintf("%s must be at most %s", field, fe.Param()))
	case "uuid", "uuid4":
		return apperror.Validation(fmt.Sprintf("%s must be a valid UUID", field))
	default:
		return apperror.Validation(fmt.Sprintf("%s is invalid", field))
	}
}
