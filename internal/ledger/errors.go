package ledger

import "errors"

// ErrInvalidTableName indicates a configured ledger table name is not a plain identifier.
var ErrInvalidTableName = errors.New("invalid ledger table name")

// ErrReadFailed indicates the ledger exists but could not be read.
var ErrReadFailed = errors.New("reading migration ledger")
