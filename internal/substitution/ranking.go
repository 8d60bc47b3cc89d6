package substitution

import (
	"fmt"

	"menushock/internal/models"
	"menushock/internal/risk"
)

// SortKey names one ranking criterion
type SortKey string

const (
	// KeyCostDelta prefers the cheapest substitute
	KeyCostDelta SortKey = "cost_delta"
	// KeyLeadTimeDelta prefers the fastest substitute
	KeyLeadTimeDelta SortKey = "lead_time_delta"
	// KeyCompatibility prefers substitutes whose tag fits the category
	KeyCompatibility SortKey = "compatibility"
)

// Ranking picks the sort keys for each kind of lookup. Ties left after the
// keys are broken by substitute id.
type Ranking struct {
	Version     string    `yaml:"version" json:"version"`
	PriceChange []SortKey `yaml:"price_change" json:"price_change"`
	SupplyDelay []SortKey `yaml:"supply_delay" json:"supply_delay"`
	// Baseline applies when no event is in play
	Baseline []SortKey `yaml:"baseline" json:"baseline"`
}

func DefaultRanking() Ranking {
	return Ranking{
		Version:     "v1",
		PriceChange: []SortKey{KeyCostDelta, KeyLeadTimeDelta},
		SupplyDelay: []SortKey{KeyLeadTimeDelta, KeyCostDelta},
		Baseline:    []SortKey{KeyCostDelta, KeyLeadTimeDelta},
	}
}

// Validate reports unknown or repeated keys as a *risk.ConfigurationError
func (r Ranking) Validate() error {
	if r.Version == "" {
		return &risk.ConfigurationError{Table: "ranking", Reason: "version is required"}
	}
	lists := []struct {
		name string
		keys []SortKey
	}{
		{"price_change", r.PriceChange},
		{"supply_delay", r.SupplyDelay},
		{"baseline", r.Baseline},
	}
	for _, l := range lists {
		if len(l.keys) == 0 {
			return &risk.ConfigurationError{Table: "ranking", Reason: fmt.Sprintf("%s: no sort keys", l.name)}
		}
		seen := make(map[SortKey]bool)
		for _, k := range l.keys {
			switch k {
			case KeyCostDelta, KeyLeadTimeDelta, KeyCompatibility:
			default:
				return &risk.ConfigurationError{Table: "ranking", Reason: fmt.Sprintf("%s: unknown sort key %q", l.name, k)}
			}
			if seen[k] {
				return &risk.ConfigurationError{Table: "ranking", Reason: fmt.Sprintf("%s: sort key %q repeated", l.name, k)}
			}
			seen[k] = true
		}
	}
	return nil
}

// KeysFor returns the keys for an event, or the baseline keys for nil
func (r Ranking) KeysFor(ev models.Event) []SortKey {
	if ev == nil {
		return r.Baseline
	}
	switch ev.Kind() {
	case models.EventPriceChange:
		return r.PriceChange
	case models.EventSupplyDelay:
		return r.SupplyDelay
	}
	return r.Baseline
}
