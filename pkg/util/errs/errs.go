// Package errs holds errors shared by the perms binary.
package errs

import (
	"errors"
	"fmt"
)

var ErrMissingConfig = errors.New("config is missing")

// Join combines the validation errors of a config into one error.
// It returns nil if errs is empty.
func Join(what string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid %s: %w", what, errors.Join(errs...))
}
