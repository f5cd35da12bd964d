package rules

import "github.com/aqasim81/posmigrate/internal/analyzer"

// NewDefaultRegistry returns a Registry with all built-in detection rules.
func NewDefaultRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	r.Register(NewDropTableRule())
	r.Register(NewRenameRule())
	r.Register(NewDropColumnRule())
	r.Register(NewAddColumnRule())
	r.Register(NewAddConstraintRule())
	r.Register(NewAlterColumnRule())
	r.Register(NewCreateIndexRule())
	r.Register(NewTransactionControlRule())
	r.Register(NewVacuumRule())
	r.Register(NewBlockKeywordRule())

	return r
}
