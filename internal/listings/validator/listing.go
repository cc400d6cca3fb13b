package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"pisos/pkg/logger"
	"pisos/pkg/model"

	"github.com/go-playground/validator/v10"
)

const tagGPSPair = "gpspair"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors for an API error payload.
func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return map[string]any{"fields": fields}
}

type ListingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewListingValidator(log *logger.Logger) *ListingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateCoordinates, model.Coordinates{})

	log.Debug("Listing validator initialized")

	return &ListingValidator{
		validate: v,
		logger:   log,
	}
}

// validateCoordinates rejects a position with only one of lat and lng.
func validateCoordinates(sl validator.StructLevel) {
	c := sl.Current().Interface().(model.Coordinates)
	if (c.Lat == nil) != (c.Lng == nil) {
		sl.ReportError(c.Lat, "lat", "Lat", tagGPSPair, "")
	}
}

// Validate checks every attribute and reports all failures at once.
func (v *ListingValidator) Validate(listing *model.Listing) error {
	return v.check(listing)
}

func (v *ListingValidator) ValidateReservation(req *model.ReservationRequest) error {
	return v.check(req)
}

func (v *ListingValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := fieldPath(err.Namespace())
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			if err.Kind() == reflect.Slice {
				message = fmt.Sprintf("%s must have at most %s items", field, err.Param())
			} else {
				message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
			}
		case "gte":
			message = fmt.Sprintf("%s must be %s or more", field, err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", field)
		case "latitude":
			message = fmt.Sprintf("%s must be between -90 and 90", field)
		case "longitude":
			message = fmt.Sprintf("%s must be between -180 and 180", field)
		case tagGPSPair:
			message = "gps needs both lat and lng, or neither"
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", field)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

// fieldPath turns "Listing.ListingAttributes.location.city" into "location.city".
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return strings.TrimPrefix(path, "ListingAttributes.")
}
