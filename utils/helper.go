package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// DefaultCountryCode is used when an inbound address or phone number carries
// no region of its own.
var DefaultCountryCode = "ES"

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

// NormalizePhone formats a raw phone number to E.164 for the given country
// code (DefaultCountryCode when empty). Unparseable input is returned
// unchanged; platforms accept free-form phone strings.
func NormalizePhone(phoneNumber, countryCode string) string {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return ""
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	p, err := libphonenumber.Parse(phoneNumber, strings.ToUpper(countryCode))
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return phoneNumber
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}

func ProcessValidationErrors(err error) map[string]string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"error": err.Error()}
	}

	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}
