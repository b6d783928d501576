package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	yearRegex   = regexp.MustCompile(`^\d{4}$`)
	dayRegex    = regexp.MustCompile(`^\d{2}$`)
	domainRegex = regexp.MustCompile(`^[a-z0-9]+(?:[.-][a-z0-9]+)*\.[a-z]{2,}$`)
)

// EarliestDate is the first day pageview statistics exist for
var EarliestDate = time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is a list of validation errors reported together
type Errors []ValidationError

func (errs Errors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validator checks feed request parameters
type Validator struct {
	now func() time.Time
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorAt creates a validator whose notion of "today" comes from now
func NewValidatorAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// ValidateDate parses a YYYY/MM/DD request date. The date must exist on the
// calendar and lie between EarliestDate and tomorrow (UTC) inclusive.
func (v *Validator) ValidateDate(yyyy, mm, dd string) (time.Time, error) {
	var errs Errors

	if !yearRegex.MatchString(yyyy) {
		errs = append(errs, ValidationError{Field: "yyyy", Message: "year must have four digits", Value: yyyy})
	}
	if !dayRegex.MatchString(mm) {
		errs = append(errs, ValidationError{Field: "mm", Message: "month must have two digits", Value: mm})
	}
	if !dayRegex.MatchString(dd) {
		errs = append(errs, ValidationError{Field: "dd", Message: "day must have two digits", Value: dd})
	}
	if len(errs) > 0 {
		return time.Time{}, errs
	}

	raw := yyyy + "-" + mm + "-" + dd
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, Errors{{Field: "date", Message: "not a calendar date", Value: raw}}
	}

	if date.Before(EarliestDate) {
		return time.Time{}, Errors{{
			Field:   "date",
			Message: fmt.Sprintf("date must not be before %s", EarliestDate.Format("2006-01-02")),
			Value:   raw,
		}}
	}
	today := v.now().UTC().Truncate(24 * time.Hour)
	if date.After(today.AddDate(0, 0, 1)) {
		return time.Time{}, Errors{{Field: "date", Message: "date is too far in the future", Value: raw}}
	}

	return date, nil
}

// ValidateDomain checks that domain looks like a wiki host name, e.g. "en.wikipedia.org"
func (v *Validator) ValidateDomain(domain string) error {
	if domain == "" {
		return ValidationError{Field: "domain", Message: "domain is required"}
	}
	if !domainRegex.MatchString(strings.ToLower(domain)) {
		return ValidationError{Field: "domain", Message: "invalid domain", Value: domain}
	}
	return nil
}

// Revision renders the request date as the YYYYMMDD token used in cache validators
func Revision(date time.Time) string {
	return date.UTC().Format("20060102")
}
