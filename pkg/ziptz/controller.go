// Package ziptz turns ZIP code queries into a live clock card.
package ziptz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/zipTZ/pkg/lookup"
	"github.com/codeGROOVE-dev/zipTZ/pkg/refresh"
	"github.com/codeGROOVE-dev/zipTZ/pkg/sleep"
	"github.com/codeGROOVE-dev/zipTZ/pkg/tzconvert"
	"github.com/codeGROOVE-dev/zipTZ/pkg/tzname"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

// DefaultLookupTimeout bounds a single ZIP lookup.
const DefaultLookupTimeout = 10 * time.Second

// activeQuery is the ZIP code currently shown and refreshed.
type activeQuery struct {
	loc      *time.Location
	location lookup.Location
	usName   string
}

// Controller owns the active query and its refresh timer.
//
// A Controller is not safe for concurrent use. Submit, Clear, Close and the
// scheduler's callbacks must all run on one goroutine, such as an
// eventloop.Loop.
type Controller struct {
	resolver lookup.Resolver
	view     View
	logger   *slog.Logger
	now      func() time.Time
	task     *refresh.Task
	active   *activeQuery
	timeout  time.Duration
}

// New creates a Controller that resolves ZIP codes with resolver, renders to
// view and schedules refresh ticks on scheduler.
func New(resolver lookup.Resolver, view View, scheduler refresh.Scheduler, opts ...Option) *Controller {
	o := &OptionHolder{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.lookupTimeout <= 0 {
		o.lookupTimeout = DefaultLookupTimeout
	}
	return &Controller{
		resolver: resolver,
		view:     view,
		logger:   o.logger,
		now:      o.now,
		task:     refresh.NewTask(scheduler, o.interval),
		timeout:  o.lookupTimeout,
	}
}

// Submit validates input, resolves it and shows the result. On any error the
// card is cleared, the refresh timer is cancelled and the error's Message is
// shown; the error is returned for logging only.
func (c *Controller) Submit(ctx context.Context, input string) error {
	c.task.Cancel()
	c.view.ShowError("")

	code, err := zipcode.Validate(input)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %q", ErrInvalidInput, input))
	}

	location, err := c.lookup(ctx, code)
	if err != nil {
		return c.fail(err)
	}

	loc, err := tzconvert.Load(location.Timezone)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrTimezoneData, err))
	}

	c.active = &activeQuery{
		location: *location,
		loc:      loc,
		usName:   tzname.USName(location.Timezone),
	}
	c.logger.Debug("zip resolved", "zip", code, "city", location.City, "state", location.State,
		"timezone", location.Timezone, "source", location.Source)

	c.view.ShowResult(c.card())
	c.task.Arm(c.tick)
	return nil
}

// Clear cancels the refresh and resets the card.
func (c *Controller) Clear() {
	c.task.Cancel()
	c.active = nil
	c.view.Clear()
	c.view.ShowError("")
}

// Close stops refreshing. The card is left as is.
func (c *Controller) Close() {
	c.task.Cancel()
}

// Active returns the card for the current query.
func (c *Controller) Active() (Card, bool) {
	if c.active == nil {
		return Card{}, false
	}
	return c.card(), true
}

// Refreshing reports whether a refresh tick is scheduled.
func (c *Controller) Refreshing() bool {
	return c.task.Active()
}

func (c *Controller) lookup(ctx context.Context, code zipcode.Code) (location *lookup.Location, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("zip resolver panicked", "zip", code, "panic", r)
			location, err = nil, &LookupFault{Err: fmt.Errorf("%v", r)}
		}
	}()

	location, err = c.resolver.Lookup(ctx, code)
	if err == nil {
		location, err = lookup.Normalize(location)
	}
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	case err != nil:
		return nil, &LookupFault{Err: err}
	}
	if location.ZIP == "" {
		location.ZIP = code
	}
	return location, nil
}

func (c *Controller) fail(err error) error {
	c.task.Cancel()
	c.active = nil
	c.view.Clear()
	c.view.ShowError(Message(err))
	c.logger.Debug("query failed", "error", err)
	return err
}

func (c *Controller) tick() {
	if c.active == nil {
		return
	}
	c.view.ShowTick(c.card())
}

func (c *Controller) card() Card {
	snap := tzconvert.At(c.now(), c.active.loc)
	return Card{
		ZIP:      c.active.location.ZIP,
		Location: c.active.location,
		USName:   c.active.usName,
		Clock:    snap,
		Sleep:    sleep.Classify(snap.Local.Hour()),
	}
}
