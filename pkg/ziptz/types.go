package ziptz

import (
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/zipTZ/pkg/lookup"
	"github.com/codeGROOVE-dev/zipTZ/pkg/sleep"
	"github.com/codeGROOVE-dev/zipTZ/pkg/tzconvert"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

// Card is everything the view shows for a resolved ZIP code.
type Card struct {
	Clock    tzconvert.Snapshot
	ZIP      zipcode.Code
	USName   string
	Location lookup.Location
	Sleep    sleep.State
}

// View receives display updates. All methods are called from the
// goroutine that drives the Controller.
type View interface {
	// ShowResult displays a newly resolved location.
	ShowResult(card Card)
	// ShowTick updates the clock fields; location fields are unchanged.
	ShowTick(card Card)
	// ShowError sets the message line. An empty message clears it.
	ShowError(msg string)
	// Clear resets the card to its placeholder state.
	Clear()
}

// Option configures a Controller.
type Option func(*OptionHolder)

// OptionHolder holds configuration options.
type OptionHolder struct {
	logger        *slog.Logger
	now           func() time.Time
	lookupTimeout time.Duration
	interval      time.Duration
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *OptionHolder) {
		o.logger = logger
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *OptionHolder) {
		o.now = now
	}
}

// WithLookupTimeout bounds how long one ZIP lookup may block.
func WithLookupTimeout(d time.Duration) Option {
	return func(o *OptionHolder) {
		o.lookupTimeout = d
	}
}

// WithRefreshInterval sets the clock refresh period.
func WithRefreshInterval(d time.Duration) Option {
	return func(o *OptionHolder) {
		o.interval = d
	}
}
