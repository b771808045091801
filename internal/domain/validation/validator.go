package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/brotherhood-social/brotherhood/internal/domain/user"
)

// FormValidator validates user-entered forms before they are sent to the API.
//
// Rules are expressed as struct tags on the user package types; each custom
// tag has a Check function that also produces the message shown to the user.
type FormValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewFormValidator creates a FormValidator with the custom form tags registered.
func NewFormValidator() *FormValidator {
	return NewFormValidatorWithClock(time.Now)
}

// NewFormValidatorWithClock creates a FormValidator that measures ages against now.
func NewFormValidatorWithClock(now func() time.Time) *FormValidator {
	fv := &FormValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}

	// Report JSON names so messages and FieldErrors match the wire format.
	fv.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"email_address":   func(fl validator.FieldLevel) bool { return CheckEmail(fl.Field().String()) == "" },
		"strong_password": func(fl validator.FieldLevel) bool { return CheckPassword(fl.Field().String()) == "" },
		"person_name":     func(fl validator.FieldLevel) bool { return CheckName(fl.Field().String(), "Name") == "" },
		"birth_date":      func(fl validator.FieldLevel) bool { return CheckDateOfBirth(fl.Field().String(), fv.now()) == "" },
		"phone_number":    func(fl validator.FieldLevel) bool { return CheckPhone(fl.Field().String()) == "" },
		"web_url":         func(fl validator.FieldLevel) bool { return CheckURL(fl.Field().String()) == "" },
	}
	for tag, fn := range rules {
		// callValidationEvenIfNull: empty strings still reach the rule so it can say "required".
		if err := fv.validate.RegisterValidation(tag, fn, true); err != nil {
			panic(fmt.Sprintf("register %s validator: %v", tag, err))
		}
	}
	return fv
}

// ValidateCredentials checks a login form.
func (fv *FormValidator) ValidateCredentials(c user.Credentials) error {
	return fv.validateStruct(c)
}

// ValidateRegistration checks a sign-up form.
func (fv *FormValidator) ValidateRegistration(r user.Registration) error {
	return fv.validateStruct(r)
}

// ValidateProfileUpdate checks a profile edit. An update with no fields is rejected.
func (fv *FormValidator) ValidateProfileUpdate(p user.ProfileUpdate) error {
	if p.IsEmpty() {
		return FieldErrors{{Field: "profile", Message: "Nothing to update"}}
	}
	return fv.validateStruct(p)
}

// validateStruct runs the tag rules and converts failures to FieldErrors.
func (fv *FormValidator) validateStruct(v any) error {
	err := fv.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	out := make(FieldErrors, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, FieldError{Field: e.Field(), Message: fv.message(e)})
	}
	return out
}

// message re-runs the failing rule to recover its user-facing text.
func (fv *FormValidator) message(e validator.FieldError) string {
	value, _ := e.Value().(string)
	label := fieldLabel(e.Field())

	switch e.Tag() {
	case "required":
		return label + " is required"
	case "email_address":
		return CheckEmail(value)
	case "strong_password":
		return CheckPassword(value)
	case "person_name":
		return CheckName(value, label)
	case "birth_date":
		return CheckDateOfBirth(value, fv.now())
	case "phone_number":
		return CheckPhone(value)
	case "web_url":
		return CheckURL(value)
	default:
		return fmt.Sprintf("%s failed validation: %s", label, e.Tag())
	}
}
