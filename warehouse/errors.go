package warehouse

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection marks a failure to reach the warehouse.
	ErrConnection = errors.New("warehouse connection failed")
	// ErrStatement marks a failure executing a statement or reading its rows.
	ErrStatement = errors.New("warehouse statement failed")
)

// QueryError reports a failed catalog query. Kind is ErrConnection or
// ErrStatement.
type QueryError struct {
	Query QueryName
	Kind  error
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v: %v", e.Query, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() []error { return []error{e.Kind, e.Err} }
