package roster

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is a single student record.
type Record struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Program        string `json:"program"`
	EnrollmentYear int64  `json:"enrollment_year"`
}

// String renders the record the way list views display it.
func (r Record) String() string {
	return fmt.Sprintf("%d - %s - %s - %s - %d", r.ID, r.Name, r.Email, r.Program, r.EnrollmentYear)
}

// Fields holds the caller-supplied, mutable part of a record.
type Fields struct {
	Name           string
	Email          string
	Program        string
	EnrollmentYear int64
}

// normalize returns f with text fields NFC-normalized and trimmed.
// Whitespace-only input therefore normalizes to empty.
func (f Fields) normalize() Fields {
	f.Name = normalizeText(f.Name)
	f.Email = normalizeText(f.Email)
	f.Program = normalizeText(f.Program)
	return f
}

// validateText checks that every text field is present.
func (f Fields) validateText() error {
	switch {
	case f.Name == "":
		return newValidationError("name", "required field is empty")
	case f.Email == "":
		return newValidationError("email", "required field is empty")
	case f.Program == "":
		return newValidationError("program", "required field is empty")
	}
	return nil
}

func validateYear(year int64) error {
	if year <= 0 {
		return newValidationError("enrollment_year", "must be a positive integer")
	}
	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return newValidationError("id", "must be a positive integer")
	}
	return nil
}

func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// ParsePositive converts raw text input into a positive integer.
// field is reported back in the ValidationError on failure.
func ParsePositive(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, newValidationError(field, "required field is empty")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, newValidationError(field, "must be a positive integer")
	}
	return n, nil
}
