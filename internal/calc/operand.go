package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError is a client-side operand error raised before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ParseOperand parses the n-th operand as typed by a user.
// Empty, non-numeric and non-finite input ("NaN", "Inf") is rejected;
// "0" is a valid operand.
func ParseOperand(s string, n int) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalidOperand(n)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidOperand(n)
	}
	return v, nil
}

func invalidOperand(n int) *ValidationError {
	return &ValidationError{
		Field:   fmt.Sprintf("operand%d", n),
		Message: fmt.Sprintf("Please enter a valid number for Number %d.", n),
	}
}
