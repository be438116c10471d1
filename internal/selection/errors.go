package selection

import "errors"

var (
	// ErrParse is returned when a check-in or valid_to date is not YYYY-MM-DD.
	ErrParse = errors.New("malformed date")
	// ErrKeyLookup is returned when an offer has no score for the requested
	// gender or age group.
	ErrKeyLookup = errors.New("score key not found")
	// ErrEmptyMerchantList is returned when an offer has no merchant locations.
	ErrEmptyMerchantList = errors.New("offer has no merchants")
	// ErrInvariantViolation means an unrecognized category reached formatting.
	ErrInvariantViolation = errors.New("invariant violation")
)
