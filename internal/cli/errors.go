package cli

import "errors"

// errNotIdempotent is returned by verify when a second run applies anything.
var errNotIdempotent = errors.New("registry is not idempotent")
