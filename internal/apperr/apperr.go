// Package apperr marks errors that come from external services so handlers can
// report them as upstream failures.
package apperr

import (
	"errors"
	"fmt"
)

var ErrUpstream = errors.New("upstream service error")

// Upstream wraps err from an external call. Both ErrUpstream and err stay matchable.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
