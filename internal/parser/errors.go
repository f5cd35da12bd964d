package parser

import "errors"

// ErrUnbalancedBlock indicates the script ended inside a block comment or inside a
// CREATE TRIGGER / CREATE VIEW body whose BEGIN and END lines do not balance.
var ErrUnbalancedBlock = errors.New("unbalanced block at end of script")
