package rates

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseValue normalizes a user typed number: all whitespace is dropped and a decimal
// comma becomes a decimal point, so " 1, 76 " reads as 1.76.
func ParseValue(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, ErrInvalidValue
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrInvalidValue
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidValue
	}
	return v, nil
}
