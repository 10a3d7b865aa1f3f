package domain

import "errors"

// ErrNotFound is returned when a record does not exist or belongs to another
// user; callers must not be able to tell those cases apart.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when signup races or repeats an existing email.
var ErrEmailTaken = errors.New("user already exists")
