// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	govalidator "github.com/go-playground/validator/v10"

	"camicam_crm_backend/platform/phone"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *govalidator.Validate
}

// New creates a new Validator instance with the domain's custom rules
// registered.
func New() *Validator {
	v := govalidator.New()

	// chatphone: the chat platform's sender ID format (521 + 10 digits).
	_ = v.RegisterValidation("chatphone", func(fl govalidator.FieldLevel) bool {
		return phone.IsWireID(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn govalidator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
