// Package lookup defines how ZIP codes are resolved to a place and timezone.
package lookup

import (
	"context"
	"errors"
	"strings"

	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

// Missing is shown for a city or state the data source did not provide.
const Missing = "-"

// ErrNotFound means the source has no usable record for the ZIP code.
// Any other error from a Resolver is a fault.
var ErrNotFound = errors.New("zip code not found")

// Location is the result of a successful lookup.
type Location struct {
	ZIP       zipcode.Code `json:"zip"`
	City      string       `json:"city"`
	State     string       `json:"state"`
	Timezone  string       `json:"timezone"`
	Source    string       `json:"source"`
	Latitude  float64      `json:"latitude,omitempty"`
	Longitude float64      `json:"longitude,omitempty"`
}

// Resolver looks up a ZIP code.
type Resolver interface {
	Lookup(ctx context.Context, code zipcode.Code) (*Location, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, code zipcode.Code) (*Location, error)

// Lookup calls f.
func (f ResolverFunc) Lookup(ctx context.Context, code zipcode.Code) (*Location, error) {
	return f(ctx, code)
}

// Normalize fills blank city and state with Missing and trims whitespace.
// A location without a timezone is reported as ErrNotFound.
func Normalize(loc *Location) (*Location, error) {
	if loc == nil {
		return nil, ErrNotFound
	}
	out := *loc
	out.City = strings.TrimSpace(out.City)
	out.State = strings.TrimSpace(out.State)
	out.Timezone = strings.TrimSpace(out.Timezone)
	if out.City == "" {
		out.City = Missing
	}
	if out.State == "" {
		out.State = Missing
	}
	if out.Timezone == "" {
		return nil, ErrNotFound
	}
	return &out, nil
}
