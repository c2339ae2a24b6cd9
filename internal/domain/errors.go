package domain

import "errors"

// ErrValidation marks client input that fails the record rules (blank SKU,
// units < 1, non-positive price, missing branch or date).
var ErrValidation = errors.New("validation failed")

// ErrAccessDenied marks a role/branch mismatch on read, write, or delete.
// Distinct from an authentication failure.
var ErrAccessDenied = errors.New("access denied")
