package api

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Cosmetic shape checks run before any network call. Business
// validation (duplicates, eligibility) stays with the backend.

var phonePattern = regexp.MustCompile(`^\+[0-9]{10,}$`)

// ValidPhone reports whether p is "+" followed by at least ten digits.
func ValidPhone(p string) bool {
	return phonePattern.MatchString(p)
}

// ValidateNewLead checks the create-lead form for required fields and
// phone shape.
func ValidateNewLead(lead NewLead) error {
	if strings.TrimSpace(lead.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !ValidPhone(strings.TrimSpace(lead.Phone)) {
		return fmt.Errorf("phone must be + followed by at least 10 digits")
	}
	return nil
}

// ValidCSVName reports whether the filename carries a .csv extension.
func ValidCSVName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
