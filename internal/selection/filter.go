package selection

import (
	"fmt"
	"time"

	"checkin-offers-api/internal/models"
)

// DateLayout is the layout of check-in and valid_to dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return t, nil
}

// FilterValid drops offers that expire before check-in plus their category's
// lead time, and offers with an unrecognized category. The boundary day is
// inclusive. Survivors keep their input order.
func FilterValid(checkin time.Time, offers []models.Offer) ([]models.Offer, error) {
	valid := make([]models.Offer, 0, len(offers))

	for _, offer := range offers {
		validTo, err := ParseDate(offer.ValidTo)
		if err != nil {
			return nil, fmt.Errorf("offer %d valid_to: %w", offer.ID, err)
		}

		p, ok := policies[offer.Category]
		if !ok {
			continue
		}

		if !checkin.AddDate(0, 0, p.leadDays).After(validTo) {
			valid = append(valid, offer)
		}
	}

	return valid, nil
}
