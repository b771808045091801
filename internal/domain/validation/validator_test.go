package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/domain/user"
)

func fixedClock() time.Time {
	return time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
}

func TestFormValidator_ValidRegistration(t *testing.T) {
	t.Parallel()
	fv := NewFormValidatorWithClock(fixedClock)

	err := fv.ValidateRegistration(user.Registration{
		Email:       "ann@example.com",
		FirstName:   "Ann",
		LastName:    "O'Neil",
		Password:    "Abcdef1!",
		DateOfBirth: "1995-04-01",
	})
	if err != nil {
		t.Errorf("ValidateRegistration() unexpected error: %v", err)
	}
}

func TestFormValidator_InvalidRegistration(t *testing.T) {
	t.Parallel()
	fv := NewFormValidatorWithClock(fixedClock)

	err := fv.ValidateRegistration(user.Registration{
		Email:       "ann@gmai.com",
		FirstName:   "A",
		LastName:    "",
		Password:    "abcdefgh",
		DateOfBirth: "2020-01-01",
	})

	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error = %T %v, want FieldErrors", err, err)
	}

	want := map[string]string{
		"email":         "Did you mean ann@gmail.com?",
		"first_name":    "First name must be at least 2 characters",
		"last_name":     "Last name is required",
		"password":      "Password must contain at least one uppercase letter",
		"date_of_birth": "You must be at least 13 years old",
	}
	for field, msg := range want {
		if got := fieldErrs.Get(field); got != msg {
			t.Errorf("%s: message = %q, want %q", field, got, msg)
		}
	}
	if len(fieldErrs) != len(want) {
		t.Errorf("len(FieldErrors) = %d, want %d: %v", len(fieldErrs), len(want), fieldErrs)
	}
}

func TestFormValidator_OptionalDateOfBirth(t *testing.T) {
	t.Parallel()
	fv := NewFormValidatorWithClock(fixedClock)

	err := fv.ValidateRegistration(user.Registration{
		Email:     "ann@example.com",
		FirstName: "Ann",
		LastName:  "Lee",
		Password:  "Abcdef1!",
	})
	if err != nil {
		t.Errorf("ValidateRegistration() without date_of_birth: %v", err)
	}
}

func TestFormValidator_Credentials(t *testing.T) {
	t.Parallel()
	fv := NewFormValidator()

	err := fv.ValidateCredentials(user.Credentials{})
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error = %v, want FieldErrors", err)
	}
	if got := fieldErrs.Get("email"); got != "Email is required" {
		t.Errorf("email message = %q", got)
	}
	if got := fieldErrs.Get("password"); got != "Password is required" {
		t.Errorf("password message = %q", got)
	}

	// Login does not apply the new-password policy.
	if err := fv.ValidateCredentials(user.Credentials{Email: "a@b.co", Password: "x"}); err != nil {
		t.Errorf("ValidateCredentials() unexpected error: %v", err)
	}
}

func TestFormValidator_ProfileUpdate(t *testing.T) {
	t.Parallel()
	fv := NewFormValidatorWithClock(fixedClock)

	if err := fv.ValidateProfileUpdate(user.ProfileUpdate{}); err == nil {
		t.Error("empty profile update should be rejected")
	}

	if err := fv.ValidateProfileUpdate(user.ProfileUpdate{FirstName: "Bob"}); err != nil {
		t.Errorf("ValidateProfileUpdate(first_name) unexpected error: %v", err)
	}

	err := fv.ValidateProfileUpdate(user.ProfileUpdate{Phone: "123", Website: "nope"})
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error = %v, want FieldErrors", err)
	}
	if got := fieldErrs.Get("phone"); got != "Phone number must be at least 10 digits" {
		t.Errorf("phone message = %q", got)
	}
	if got := fieldErrs.Get("website"); got != "Please enter a valid URL" {
		t.Errorf("website message = %q", got)
	}
}

func TestFieldErrors_Error(t *testing.T) {
	t.Parallel()

	errs := FieldErrors{{Field: "email", Message: "Email is required"}, {Field: "password", Message: "Password is required"}}
	want := "email: Email is required; password: Password is required"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}
