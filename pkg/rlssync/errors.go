package rlssync

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEngine is returned when the target database does not
// support row-level security. The synchronizer aborts before generating
// any statement.
var ErrUnsupportedEngine = errors.New("database engine does not support row-level security")

// ApplyError reports the first failing DDL statement. Statements applied
// before it stay applied; no rollback is attempted.
type ApplyError struct {
	SQL string
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying %q: %v", e.SQL, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }
