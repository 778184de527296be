package proposal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseBudget converts form text to a budget. Blank text means no budget.
// Thousands separators (",", "_" and spaces) are accepted.
func ParseBudget(text string) (*float64, *FieldError) {
	value, ferr := parseBudgetText(text)
	if ferr != nil || value == nil {
		return nil, ferr
	}
	if *value < 0 {
		return nil, &FieldError{
			Field:   "budget",
			Code:    CodeNegativeNumber,
			Message: "budget must not be negative",
			Value:   strings.TrimSpace(text),
		}
	}
	return value, nil
}

// parseBudgetText reports only malformed input; sign is left to Validate.
func parseBudgetText(text string) (*float64, *FieldError) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	cleaned := strings.NewReplacer(",", "", "_", "", " ", "").Replace(trimmed)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &FieldError{
			Field:   "budget",
			Code:    CodeMalformedNumber,
			Message: fmt.Sprintf("budget must be a finite number, got %q", trimmed),
			Value:   trimmed,
		}
	}
	return &v, nil
}
