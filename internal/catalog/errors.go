package catalog

import (
	"fmt"
	"strings"
)

// Violation is one problem found in the reference data
type Violation struct {
	File   string `json:"file"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	if v.Row > 0 {
		return fmt.Sprintf("%s:%d: %s", v.File, v.Row, v.Reason)
	}
	return fmt.Sprintf("%s: %s", v.File, v.Reason)
}

// ValidationError lists every violation found while loading a catalog
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return fmt.Sprintf("catalog validation failed with %d violation(s):\n  %s", len(e.Violations), strings.Join(lines, "\n  "))
}
