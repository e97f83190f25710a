package domain

import "errors"

// ErrUnsupportedListener is returned when a subscribe target is not one of
// the accepted listener shapes.
var ErrUnsupportedListener = errors.New("unsupported listener shape")

// ErrUnknownTrait is returned when an operation references a trait name
// the object does not declare.
var ErrUnknownTrait = errors.New("unknown trait")

// ErrEmptyName is returned when a subscribe call passes an empty or
// malformed trait name.
var ErrEmptyName = errors.New("empty trait name")
