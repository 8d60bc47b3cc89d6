package risk

import "fmt"

// ConfigurationError reports a malformed threshold or ranking table
type ConfigurationError struct {
	Table  string
	Row    int // 1-based, 0 when the problem is not tied to a row
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("invalid %s table, row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("invalid %s table: %s", e.Table, e.Reason)
}
