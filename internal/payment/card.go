package payment

import (
	"regexp"
	"time"

	"petkart/internal/model"
)

var (
	holderRe = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*$`)
	numberRe = regexp.MustCompile(`^[0-9]{12,16}$`)
	cvvRe    = regexp.MustCompile(`^[0-9]{3}$`)
)

// ValidateCard syntax-checks a payment instrument. It runs before a
// challenge is requested; a challenge is never issued for a card that
// fails these checks. Returns nil when the card passes.
func ValidateCard(card model.CardDetails, now time.Time) model.ValidationErrors {
	errs := make(model.ValidationErrors)

	if !holderRe.MatchString(card.HolderName) {
		errs.Add("card.holderName", "must contain only letters and spaces")
	}

	if !numberRe.MatchString(card.Number) {
		errs.Add("card.number", "must be 12 to 16 digits")
	}

	if card.ExpiryMM < 1 || card.ExpiryMM > 12 {
		errs.Add("card.expiry", "month must be between 1 and 12")
	} else if expired(card.ExpiryMM, card.ExpiryYY, now) {
		errs.Add("card.expiry", "must be a future date")
	}

	if !cvvRe.MatchString(card.CVV) {
		errs.Add("card.cvv", "must be 3 digits")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// expired reports whether MM/YY is in the past. A card is valid through
// the last day of its expiry month. Two-digit years are anchored to the
// 2000s.
func expired(month, year int, now time.Time) bool {
	if year < 100 {
		year += 2000
	}

	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}
