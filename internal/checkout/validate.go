package checkout

import (
	"regexp"
	"strings"

	"petkart/internal/model"
)

var (
	nameRe   = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*$`)
	phoneRe  = regexp.MustCompile(`^[0-9]{10}$`)
	postalRe = regexp.MustCompile(`^[0-9]{5,6}$`)
	emailRe  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// ValidateAddress checks one address block against the checkout field
// rules, recording every failing field into errs under the given
// prefix ("billing" or "shipping"). Nothing is returned early: the
// caller surfaces all failures at once.
func ValidateAddress(prefix string, a model.Address, errs model.ValidationErrors) {
	validateName(prefix+".firstName", a.FirstName, errs)
	validateName(prefix+".lastName", a.LastName, errs)
	validateName(prefix+".city", a.City, errs)

	street := strings.TrimSpace(a.Street)
	if street == "" {
		errs.Add(prefix+".street", "must not be empty")
	} else if len(street) > 50 {
		errs.Add(prefix+".street", "must be at most 50 characters")
	}

	if !postalRe.MatchString(a.PostalCode) {
		errs.Add(prefix+".postalCode", "must be 5 to 6 digits")
	}

	if !phoneRe.MatchString(a.Phone) {
		errs.Add(prefix+".phone", "must be 10 digits")
	}
}

func validateName(field, value string, errs model.ValidationErrors) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "must not be empty")
		return
	}
	if len(value) > 30 {
		errs.Add(field, "must be at most 30 characters")
		return
	}
	if !nameRe.MatchString(value) {
		errs.Add(field, "must contain only letters and spaces")
	}
}

// ValidateEmail checks the contact email has the local@domain.tld shape.
func ValidateEmail(field, value string, errs model.ValidationErrors) {
	if !emailRe.MatchString(value) {
		errs.Add(field, "must be a valid email address")
	}
}
