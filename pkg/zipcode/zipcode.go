// Package zipcode validates US ZIP code input.
package zipcode

import (
	"errors"
	"strings"
)

// Length is the number of digits in a ZIP code.
const Length = 5

// ErrInvalid is returned when the input does not start with five digits.
var ErrInvalid = errors.New("invalid ZIP code")

// Code is a validated 5-digit ZIP code.
type Code string

// String returns the five digits.
func (c Code) String() string {
	return string(c)
}

// Validate returns the ZIP code at the start of input.
// Surrounding whitespace is trimmed first. Anything after the fifth digit
// is ignored, so ZIP+4 input such as "12345-6789" yields "12345".
func Validate(input string) (Code, error) {
	s := strings.TrimSpace(input)
	if len(s) < Length {
		return "", ErrInvalid
	}
	for i := range Length {
		if s[i] < '0' || s[i] > '9' {
			return "", ErrInvalid
		}
	}
	return Code(s[:Length]), nil
}
