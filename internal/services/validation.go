package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"maplestore/internal/apperrors"
	"maplestore/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so error details match
// what clients sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct turns validator failures into a VALIDATION_ERROR listing
// every offending field.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Internal(err)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		fields[field] = fmt.Sprintf("Field '%s' failed on the '%s' tag", field, e.Tag())
	}
	return apperrors.Validation("Validation failed", fields)
}

func requireAuthenticated(p models.Principal) error {
	if !p.Authenticated() {
		return apperrors.AuthRequired()
	}
	return nil
}

func requireStaff(p models.Principal) error {
	if !p.IsStaff {
		return apperrors.Forbidden()
	}
	return nil
}

// internal wraps untyped failures so callers always receive an AppError.
func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Internal(err)
}
