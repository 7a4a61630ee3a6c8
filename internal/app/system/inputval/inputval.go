// Package inputval validates decoded request bodies with struct tags and
// turns the first failure into a client-facing message. Handlers return only
// the first violation, so a request with several bad fields is fixed one
// field at a time.
package inputval

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v against its `validate` tags and returns a human-readable
// message for the first failing field, or nil when v is valid.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}
	return fmt.Errorf("%s", message(errs[0]))
}

// Var validates a single value against a tag expression, e.g.
// Var(email, "required,email", "email").
func Var(value interface{}, tag, field string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	return fmt.Errorf("%s", messageFor(field, fe.Tag(), fe.Param()))
}

func message(fe validator.FieldError) string {
	return messageFor(fieldName(fe), fe.Tag(), fe.Param())
}

func messageFor(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldName lowercases the leading rune of the struct field so messages read
// "password is required" rather than "Password is required".
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return "field"
	}
	return strings.ToLower(name[:1]) + name[1:]
}
