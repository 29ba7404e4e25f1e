package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownCategory is substituted for missing categorical values
const UnknownCategory = "unknown"

// Member is one person's attributes for a single assessment
type Member struct {
	Age             int             `json:"age"`
	Balance         decimal.Decimal `json:"balance"`
	HasHousingLoan  bool            `json:"housing"`
	HasPersonalLoan bool            `json:"loan"`
	Job             string          `json:"job,omitempty"`
	Marital         string          `json:"marital,omitempty"`
	Education       string          `json:"education,omitempty"`
}

// HasAnyLoan reports whether the member carries housing or personal debt
func (m Member) HasAnyLoan() bool {
	return m.HasHousingLoan || m.HasPersonalLoan
}

// Normalized returns a copy with categorical fields trimmed, lower-cased and
// defaulted to UnknownCategory
func (m Member) Normalized() Member {
	m.Job = normalizeCategory(m.Job)
	m.Marital = normalizeCategory(m.Marital)
	m.Education = normalizeCategory(m.Education)
	return m
}

func normalizeCategory(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return UnknownCategory
	}
	return v
}

// Validate checks the numeric fields a caller must supply sensibly
func (m Member) Validate() error {
	var errs ValidationErrors
	if m.Age < 0 || m.Age > 150 {
		errs = append(errs, ValidationError{
			Field:   "age",
			Message: fmt.Sprintf("Invalid age %d. Must be between 0-150", m.Age),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationError is a caller-visible input problem
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
