package models

import "fmt"

// UnknownIngredientError is returned when an event or lookup names an
// ingredient the catalog does not contain
type UnknownIngredientError struct {
	ID string
}

func (e *UnknownIngredientError) Error() string {
	return fmt.Sprintf("ingredient not recognized: %q", e.ID)
}

// MalformedEventError is returned when an event has a missing or out-of-range field
type MalformedEventError struct {
	Field  string
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event: %s %s", e.Field, e.Reason)
}
