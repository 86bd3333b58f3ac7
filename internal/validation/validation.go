package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// South African cellphone numbers: 0XXXXXXXXX or +27XXXXXXXXX
	phoneRegex = regexp.MustCompile(`^(\+27|0)[0-9]{9}$`)
)

// ValidationError represents a field-level validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: field, Message: field + " must be at least 2 characters"}
	}
	return nil
}

// ValidatePhone checks an optional South African cellphone number.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return ValidationError{Field: "phone", Message: "enter a valid South African cellphone number"}
	}
	return nil
}

// ParseAmount parses a submitted monetary value. Amounts must be
// positive with at most two decimal places.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ValidationError{Field: field, Message: "amount is required"}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ValidationError{Field: field, Message: "enter a valid amount"}
	}
	if !amount.IsPositive() {
		return decimal.Zero, ValidationError{Field: field, Message: "amount must be greater than zero"}
	}
	if amount.Exponent() < -2 {
		return decimal.Zero, ValidationError{Field: field, Message: "amount cannot have more than two decimal places"}
	}
	return amount, nil
}
