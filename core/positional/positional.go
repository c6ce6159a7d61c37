// Package positional implements the positional-argument element of a
// tool's definition.
package positional

import "github.com/compozy/kestrel/core/accept"

// Kind enumerates the three positional-argument shapes.
type Kind int

const (
	Required Kind = iota
	Optional
	Remaining
)

// Arg is a single positional argument.
type Arg struct {
	Key         string
	Kind        Kind
	Acceptor    accept.Acceptor
	Default     any
	Desc        string
	LongDesc    string
	DisplayName string
}

// New builds a positional Arg, defaulting DisplayName to Key and Acceptor
// to accept.Default() when unset.
func New(key string, kind Kind, acc accept.Acceptor, def any, desc, longDesc, displayName string) *Arg {
	if acc == nil {
		acc = accept.Default()
	}
	if displayName == "" {
		displayName = key
	}
	return &Arg{
		Key:         key,
		Kind:        kind,
		Acceptor:    acc,
		Default:     def,
		Desc:        desc,
		LongDesc:    longDesc,
		DisplayName: displayName,
	}
}
