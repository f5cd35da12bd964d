package browser

import "errors"

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("browser engine is closed")

// ErrMultipleStatements is returned when one call is given more than one statement.
var ErrMultipleStatements = errors.New("more than one statement in a single call")
