// Package risk turns the signals of an analyzed event into a risk tier using
// an ordered threshold table.
package risk

import (
	"menushock/internal/models"

	"github.com/shopspring/decimal"
)

// Signals are the measured values rows are tested against
type Signals struct {
	PriceChangePct  float64
	DelayDays       float64
	NewLeadTimeDays float64
	AffectedDishes  float64
	MarginDropPct   float64
}

// Measure derives signals from an event and its cost picture. Price drops
// and expedited shipments measure as zero.
func Measure(ev models.Event, affectedDishes int, maxMarginPctDrop decimal.Decimal, newLeadTimeDays int) Signals {
	s := Signals{
		NewLeadTimeDays: float64(newLeadTimeDays),
		AffectedDishes:  float64(affectedDishes),
		MarginDropPct:   max(maxMarginPctDrop.InexactFloat64(), 0),
	}
	switch e := ev.(type) {
	case models.PriceChange:
		s.PriceChangePct = max(e.PercentDelta, 0)
	case models.SupplyDelay:
		s.DelayDays = float64(max(e.DaysDelta, 0))
	}
	return s
}

func (s Signals) value(m Metric) float64 {
	switch m {
	case MetricPriceChangePct:
		return s.PriceChangePct
	case MetricDelayDays:
		return s.DelayDays
	case MetricNewLeadTimeDays:
		return s.NewLeadTimeDays
	case MetricAffectedDishes:
		return s.AffectedDishes
	case MetricMarginDropPct:
		return s.MarginDropPct
	}
	return 0
}

type Classifier struct {
	table Table
}

// NewClassifier validates the table
func NewClassifier(t Table) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{table: t}, nil
}

func (c *Classifier) Table() Table { return c.table }

// Classify returns the tier of the first row whose metric reaches its
// threshold. No match, or no affected dish, is low.
func (c *Classifier) Classify(s Signals) models.RiskAssessment {
	if s.AffectedDishes <= 0 {
		return models.RiskAssessment{Tier: models.RiskLow, TableVersion: c.table.Version}
	}
	for _, row := range c.table.Rows {
		if v := s.value(row.Metric); v >= row.Threshold {
			return models.RiskAssessment{
				Tier:         row.Tier,
				Metric:       string(row.Metric),
				Value:        v,
				Threshold:    row.Threshold,
				TableVersion: c.table.Version,
			}
		}
	}
	return models.RiskAssessment{Tier: models.RiskLow, TableVersion: c.table.Version}
}
