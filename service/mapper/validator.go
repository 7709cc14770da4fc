/*
 * @module service/mapper/validator
 * @description Structural payload validation, run strictly before any network call
 * @architecture adapter - outbound contract enforcement
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow payload -> struct tag validation -> ValidationError or nil
 * @rules a payload that fails validation never reaches the API client
 * @dependencies github.com/go-playground/validator/v10
 * @refs service/mapper/payloads.go, service/syncer
 */

package mapper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var vatRatePattern = regexp.MustCompile(`^[A-Z]{2}_\d+$`)

// ValidationError reports that the local entity lacks the data needed to build
// a valid remote payload. It is fatal for the entity but not for a batch.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validator checks payloads against the remote contract.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a payload validator with the custom VAT rate rule.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// vat_rate: country prefix plus the rate times ten, e.g. FR_200.
	_ = v.RegisterValidation("vat_rate", func(fl validator.FieldLevel) bool {
		return vatRatePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Validate checks a payload and returns a *ValidationError describing every
// offending field, or nil when the payload is structurally sound.
func (v *Validator) Validate(payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Message: err.Error()}
	}

	fields := make([]string, 0, len(fieldErrs))
	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Namespace())
		reasons = append(reasons, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}

	return &ValidationError{
		Fields:  fields,
		Message: "invalid payload: " + strings.Join(reasons, "; "),
	}
}
