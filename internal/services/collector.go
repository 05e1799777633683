package services

import (
	"context"
	"strings"

	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// Collector gathers boot-enabled services from the host and classifies
// them. Classification itself never fails; only the listing can.
type Collector struct {
	Lister platform.ServiceLister
	Rules  *Ruleset
}

// Collect lists enabled units, strips the .service suffix, and returns
// one classified record per distinct name.
func (c *Collector) Collect(ctx context.Context) ([]model.ServiceRecord, error) {
	units, err := c.Lister.EnabledServices(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(units))
	for _, unit := range units {
		names = append(names, strings.TrimSuffix(unit, ".service"))
	}
	rules := c.Rules
	if rules == nil {
		rules = DefaultRuleset()
	}
	return rules.ClassifyAll(names), nil
}
