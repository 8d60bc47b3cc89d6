package risk

import (
	"fmt"
	"math"
	"os"

	"menushock/internal/models"

	"gopkg.in/yaml.v3"
)

// Metric names one signal a threshold row can test
type Metric string

const (
	// MetricPriceChangePct is the positive part of the price move, as a fraction
	MetricPriceChangePct Metric = "price_change_pct"
	// MetricDelayDays is the positive part of the lead-time move
	MetricDelayDays Metric = "delay_days"
	// MetricNewLeadTimeDays is the ingredient lead time after the event
	MetricNewLeadTimeDays Metric = "new_lead_time_days"
	// MetricAffectedDishes counts dishes using the ingredient
	MetricAffectedDishes Metric = "affected_dishes"
	// MetricMarginDropPct is the largest margin percentage drop, as a fraction
	MetricMarginDropPct Metric = "margin_drop_pct"
)

var knownMetrics = map[Metric]bool{
	MetricPriceChangePct:  true,
	MetricDelayDays:       true,
	MetricNewLeadTimeDays: true,
	MetricAffectedDishes:  true,
	MetricMarginDropPct:   true,
}

// Row fires when the metric is at or above the threshold
type Row struct {
	Metric    Metric          `yaml:"metric" json:"metric"`
	Threshold float64         `yaml:"threshold" json:"threshold"`
	Tier      models.RiskTier `yaml:"tier" json:"tier"`
}

// Table is an ordered list of rows. The first matching row decides the tier.
type Table struct {
	Version string `yaml:"version" json:"version"`
	Rows    []Row  `yaml:"rows" json:"rows"`
}

// DefaultTable is the built-in v1 table, most severe rows first
func DefaultTable() Table {
	return Table{
		Version: "v1",
		Rows: []Row{
			{MetricMarginDropPct, 0.10, models.RiskCritical},
			{MetricPriceChangePct, 0.50, models.RiskCritical},
			{MetricDelayDays, 10, models.RiskCritical},
			{MetricMarginDropPct, 0.05, models.RiskHigh},
			{MetricPriceChangePct, 0.20, models.RiskHigh},
			{MetricNewLeadTimeDays, 6, models.RiskHigh},
			{MetricAffectedDishes, 5, models.RiskHigh},
			{MetricPriceChangePct, 0.10, models.RiskMedium},
			{MetricDelayDays, 3, models.RiskMedium},
			{MetricAffectedDishes, 3, models.RiskMedium},
			{MetricMarginDropPct, 0.02, models.RiskMedium},
		},
	}
}

// Validate checks every row and normalizes tier names
func (t *Table) Validate() error {
	if t.Version == "" {
		return &ConfigurationError{Table: "risk", Reason: "version is required"}
	}
	if len(t.Rows) == 0 {
		return &ConfigurationError{Table: "risk", Reason: "no rows"}
	}
	for i := range t.Rows {
		row := &t.Rows[i]
		if !knownMetrics[row.Metric] {
			return &ConfigurationError{Table: "risk", Row: i + 1, Reason: fmt.Sprintf("unknown metric %q", row.Metric)}
		}
		tier, err := models.ParseRiskTier(string(row.Tier))
		if err != nil {
			return &ConfigurationError{Table: "risk", Row: i + 1, Reason: err.Error()}
		}
		row.Tier = tier
		if math.IsNaN(row.Threshold) || math.IsInf(row.Threshold, 0) || row.Threshold <= 0 {
			return &ConfigurationError{Table: "risk", Row: i + 1, Reason: fmt.Sprintf("threshold %v must be a positive number", row.Threshold)}
		}
	}
	return nil
}

// ParseTable decodes and validates a YAML table
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, &ConfigurationError{Table: "risk", Reason: err.Error()}
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// LoadTable reads a YAML table from disk
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read risk table: %w", err)
	}
	return ParseTable(data)
}
