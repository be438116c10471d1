package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"checkin-offers-api/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// getValidator returns the shared validator, reporting JSON field names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct runs struct tags and converts the first failure into a
// ValidationError.
func validateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "unknown", Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{
		Field:   fieldPath(fe),
		Message: translate(fe),
	}
}

// fieldPath strips the top-level struct name from the namespace,
// e.g. "Offer.merchants[0].distance" becomes "merchants[0].distance".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " entries"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "failed '" + fe.Tag() + "' validation"
}

// ValidateOffer checks a catalog offer before it is stored. Unrecognized
// categories are accepted; the selection pipeline drops them.
func ValidateOffer(offer models.Offer) error {
	return validateStruct(offer)
}

// ValidateRecommendRequest checks the demographic and check-in fields of a
// recommendation request. The offers themselves are left to the pipeline.
func ValidateRecommendRequest(req models.RecommendRequest) error {
	return validateStruct(req)
}

// ValidateOfferID parses a path parameter as a positive offer id.
func ValidateOfferID(raw string) (int, error) {
	raw = SanitizeString(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "id", Message: "is required"}
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// SanitizeOffer trims and strips control characters from an offer's text
// fields and score keys, returning a sanitized copy.
func SanitizeOffer(offer models.Offer) models.Offer {
	out := offer
	out.Title = SanitizeString(offer.Title)
	out.Description = SanitizeString(offer.Description)
	out.ValidTo = SanitizeString(offer.ValidTo)

	out.Merchants = make([]models.Merchant, len(offer.Merchants))
	for i, m := range offer.Merchants {
		m.Name = SanitizeString(m.Name)
		out.Merchants[i] = m
	}

	out.GenderScores = sanitizeKeys(offer.GenderScores)
	out.AgeScores = sanitizeKeys(offer.AgeScores)
	return out
}

func sanitizeKeys(scores map[string]float64) map[string]float64 {
	if scores == nil {
		return nil
	}
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[SanitizeString(k)] = v
	}
	return out
}
