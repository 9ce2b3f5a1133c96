package session

import (
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password accepted by the login and signup forms.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldErrors maps a credential field to a human-readable message.
// Empty means the input is acceptable.
type FieldErrors map[string]string

// ValidateLogin checks the login form fields.
func ValidateLogin(email, password string) FieldErrors {
	errs := FieldErrors{}
	validateEmail(errs, email)
	validatePassword(errs, password)
	return errs
}

// ValidateSignup checks the signup form fields.
func ValidateSignup(email, password, confirm string) FieldErrors {
	errs := ValidateLogin(email, password)
	switch {
	case confirm == "":
		errs["confirmPassword"] = "Please confirm your password"
	case password != confirm:
		errs["confirmPassword"] = "Passwords do not match"
	}
	return errs
}

func validateEmail(errs FieldErrors, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Enter a valid email"
	}
}

func validatePassword(errs FieldErrors, password string) {
	switch {
	case password == "":
		errs["password"] = "Password is required"
	case len(password) < MinPasswordLength:
		errs["password"] = "Min 8 characters"
	}
}
