// Package views renders the pages of a spacetraveling site.
package views

import "github.com/eringen/spacetraveling"

// Funcs returns the default components for spacetraveling.New.
func Funcs() spacetraveling.ViewFuncs {
	return spacetraveling.ViewFuncs{
		Post:        Post,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}
