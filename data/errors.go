package data

import (
	"errors"
	"fmt"
)

// NOTE on error handling: we follow the advice at https://blog.golang.org/go1.13-errors:
// The pgx and sqlite errors the stores deal with are internal details.
// To avoid exposing them to callers, the stores repackage them as these
// domain errors, or as new errors with the same text using the %v
// formatting verb, since %w would permit callers to unwrap the original
// driver errors. Driver errors are not part of our API.

// ErrDuplicateName is returned when creating a list or item whose name is
// already taken. Names are globally unique per entity kind.
var ErrDuplicateName = errors.New("name is already in use")

// ErrNoSuchList is returned when an item references a todo list that does
// not exist.
var ErrNoSuchList = errors.New("todo list does not exist")

// ValidationError reports a malformed client-supplied field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
