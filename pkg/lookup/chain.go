package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

// Named pairs a resolver with the name used in logs.
type Named struct {
	Resolver Resolver
	Name     string
}

// Chain tries resolvers in order and returns the first usable location.
// If every resolver reports ErrNotFound the chain does too; if at least one
// failed with a fault and none succeeded, the faults are returned joined.
type Chain struct {
	logger    *slog.Logger
	resolvers []Named
}

// NewChain creates a chain over resolvers.
func NewChain(logger *slog.Logger, resolvers ...Named) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{logger: logger, resolvers: resolvers}
}

// Len returns the number of resolvers in the chain.
func (c *Chain) Len() int {
	return len(c.resolvers)
}

// Lookup implements Resolver.
func (c *Chain) Lookup(ctx context.Context, code zipcode.Code) (*Location, error) {
	var faults []error
	for _, r := range c.resolvers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loc, err := r.Resolver.Lookup(ctx, code)
		if err == nil {
			loc, err = Normalize(loc)
		}
		switch {
		case err == nil:
			if loc.Source == "" {
				loc.Source = r.Name
			}
			c.logger.Debug("zip resolved", "zip", code, "source", r.Name, "timezone", loc.Timezone)
			return loc, nil
		case errors.Is(err, ErrNotFound):
			c.logger.Debug("zip not found", "zip", code, "source", r.Name)
		default:
			c.logger.Warn("zip lookup failed", "zip", code, "source", r.Name, "error", err)
			faults = append(faults, fmt.Errorf("%s: %w", r.Name, err))
		}
	}
	if len(faults) > 0 {
		return nil, errors.Join(faults...)
	}
	return nil, ErrNotFound
}
