package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// EventKind discriminates the Event union
type EventKind string

const (
	EventPriceChange EventKind = "price_change"
	EventSupplyDelay EventKind = "supply_delay"
)

// Event is a hypothetical change to one ingredient. It is implemented only by
// PriceChange and SupplyDelay.
type Event interface {
	Kind() EventKind
	Ingredient() string
	Validate(limits EventLimits) error
	// Key is a canonical form used for cache keys and logs.
	Key() string
	sealed()
}

// PriceChange scales an ingredient's unit cost by (1 + PercentDelta).
// PercentDelta is fractional: 0.22 means +22%.
type PriceChange struct {
	IngredientID string  `json:"ingredient_id"`
	PercentDelta float64 `json:"percent_delta"`
}

// SupplyDelay adds DaysDelta to an ingredient's lead time. Negative values
// model an expedited shipment.
type SupplyDelay struct {
	IngredientID string `json:"ingredient_id"`
	DaysDelta    int    `json:"days_delta"`
}

// EventLimits bounds accepted event magnitudes. Limits are exclusive: a value
// equal to a limit is rejected.
type EventLimits struct {
	MaxPercentIncrease float64 `yaml:"max_percent_increase" json:"max_percent_increase"`
	MaxPercentDecrease float64 `yaml:"max_percent_decrease" json:"max_percent_decrease"`
	MaxDelayDays       int     `yaml:"max_delay_days" json:"max_delay_days"`
	MaxExpediteDays    int     `yaml:"max_expedite_days" json:"max_expedite_days"`
}

// DefaultEventLimits accepts price moves strictly between -100% and +1000% and
// lead-time moves strictly within a year.
func DefaultEventLimits() EventLimits {
	return EventLimits{
		MaxPercentIncrease: 10.0,
		MaxPercentDecrease: 1.0,
		MaxDelayDays:       365,
		MaxExpediteDays:    365,
	}
}

func (PriceChange) Kind() EventKind { return EventPriceChange }
func (SupplyDelay) Kind() EventKind { return EventSupplyDelay }

func (e PriceChange) Ingredient() string { return e.IngredientID }
func (e SupplyDelay) Ingredient() string { return e.IngredientID }

func (PriceChange) sealed() {}
func (SupplyDelay) sealed() {}

// Key returns the canonical form of the event
func (e PriceChange) Key() string {
	return fmt.Sprintf("%s:%s:%s", EventPriceChange, e.IngredientID, strconv.FormatFloat(e.PercentDelta, 'g', -1, 64))
}

// Key returns the canonical form of the event
func (e SupplyDelay) Key() string {
	return fmt.Sprintf("%s:%s:%d", EventSupplyDelay, e.IngredientID, e.DaysDelta)
}

// Validate checks the event against limits
func (e PriceChange) Validate(limits EventLimits) error {
	if strings.TrimSpace(e.IngredientID) == "" {
		return &MalformedEventError{Field: "ingredient_id", Reason: "missing"}
	}
	if math.IsNaN(e.PercentDelta) || math.IsInf(e.PercentDelta, 0) {
		return &MalformedEventError{Field: "percent_delta", Reason: "must be a finite number"}
	}
	if e.PercentDelta >= limits.MaxPercentIncrease {
		return &MalformedEventError{
			Field:  "percent_delta",
			Reason: fmt.Sprintf("%g must be below the +%g limit", e.PercentDelta, limits.MaxPercentIncrease),
		}
	}
	if e.PercentDelta <= -limits.MaxPercentDecrease {
		return &MalformedEventError{
			Field:  "percent_delta",
			Reason: fmt.Sprintf("%g must be above the -%g limit", e.PercentDelta, limits.MaxPercentDecrease),
		}
	}
	return nil
}

// Validate checks the event against limits
func (e SupplyDelay) Validate(limits EventLimits) error {
	if strings.TrimSpace(e.IngredientID) == "" {
		return &MalformedEventError{Field: "ingredient_id", Reason: "missing"}
	}
	if e.DaysDelta >= limits.MaxDelayDays {
		return &MalformedEventError{
			Field:  "days_delta",
			Reason: fmt.Sprintf("%d must be below the +%d day limit", e.DaysDelta, limits.MaxDelayDays),
		}
	}
	if e.DaysDelta <= -limits.MaxExpediteDays {
		return &MalformedEventError{
			Field:  "days_delta",
			Reason: fmt.Sprintf("%d must be above the -%d day limit", e.DaysDelta, limits.MaxExpediteDays),
		}
	}
	return nil
}

// EventEnvelope is the wire form of an Event
type EventEnvelope struct {
	Type         EventKind `json:"type"`
	IngredientID string    `json:"ingredient_id"`
	PercentDelta *float64  `json:"percent_delta,omitempty"`
	DaysDelta    *int      `json:"days_delta,omitempty"`
}

// Envelope wraps an event for serialization
func Envelope(ev Event) EventEnvelope {
	switch e := ev.(type) {
	case PriceChange:
		pct := e.PercentDelta
		return EventEnvelope{Type: EventPriceChange, IngredientID: e.IngredientID, PercentDelta: &pct}
	case SupplyDelay:
		days := e.DaysDelta
		return EventEnvelope{Type: EventSupplyDelay, IngredientID: e.IngredientID, DaysDelta: &days}
	}
	return EventEnvelope{}
}

// Event decodes the envelope into a concrete event. Range checks are left to
// Validate.
func (env EventEnvelope) Event() (Event, error) {
	ingredient := strings.TrimSpace(env.IngredientID)
	switch env.Type {
	case EventPriceChange:
		if env.PercentDelta == nil {
			return nil, &MalformedEventError{Field: "percent_delta", Reason: "missing"}
		}
		return PriceChange{IngredientID: ingredient, PercentDelta: *env.PercentDelta}, nil
	case EventSupplyDelay:
		if env.DaysDelta == nil {
			return nil, &MalformedEventError{Field: "days_delta", Reason: "missing"}
		}
		return SupplyDelay{IngredientID: ingredient, DaysDelta: *env.DaysDelta}, nil
	case "":
		return nil, &MalformedEventError{Field: "type", Reason: "missing"}
	default:
		return nil, &MalformedEventError{Field: "type", Reason: fmt.Sprintf("unknown event type %q", env.Type)}
	}
}

// Describe renders the event for people
func Describe(ev Event) string {
	switch e := ev.(type) {
	case PriceChange:
		verb := "increases"
		if e.PercentDelta < 0 {
			verb = "decreases"
		}
		pct := decimal.NewFromFloat(math.Abs(e.PercentDelta)).Shift(2)
		return fmt.Sprintf("price of %s %s by %s%%", e.IngredientID, verb, pct.String())
	case SupplyDelay:
		if e.DaysDelta < 0 {
			return fmt.Sprintf("shipments of %s arrive %d days early", e.IngredientID, -e.DaysDelta)
		}
		return fmt.Sprintf("shipments of %s are delayed by %d days", e.IngredientID, e.DaysDelta)
	}
	return "unknown event"
}
