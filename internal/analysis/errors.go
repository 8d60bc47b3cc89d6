package analysis

import "fmt"

// AnalysisError wraps the typed cause of a failed analysis. Use errors.As to
// reach *models.MalformedEventError or *models.UnknownIngredientError.
type AnalysisError struct {
	Event string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s: %v", e.Event, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
