package etl

import "fmt"

// ColumnError reports a required raw-extract column that is absent.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("raw extract: missing required column %q", e.Column)
}

// ValidationError reports a value the builder cannot accept.
// Row is the 1-based data row of the raw extract, 0 when the error concerns a whole column.
type ValidationError struct {
	Column string
	Row    int64
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("raw extract row %d, column %q: %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("raw extract column %q: %s", e.Column, e.Reason)
}
