package entity

import (
	"errors"
	"fmt"
)

// NotFoundError is the only error the resolution pipeline surfaces to
// callers: no searchable or resolvable candidate exists for the query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no entity found for %q", e.Query)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
