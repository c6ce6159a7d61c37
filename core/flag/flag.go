package flag

import (
	"sort"
	"strings"

	"github.com/compozy/kestrel/core/accept"
	"github.com/compozy/kestrel/core/complete"
	"github.com/compozy/kestrel/core/toolerr"
)

// HandlerKind selects how a repeated or single flag occurrence updates the
// stored value.
type HandlerKind int

const (
	// HandlerSet overwrites the stored value (the default).
	HandlerSet HandlerKind = iota
	// HandlerPush appends to an accumulator list.
	HandlerPush
	// HandlerCustom applies a user function(newValue, current) -> next.
	HandlerCustom
)

// CustomHandler computes the next stored value given a newly parsed value
// and the value currently stored.
type CustomHandler func(newValue, current any) any

// Flag is one declared flag: every spelling (Syntax) that refers to it,
// its acceptor, its value handler, and its group membership.
type Flag struct {
	Key             string
	Syntax          []*Syntax
	Acceptor        accept.Acceptor
	HandlerKind     HandlerKind
	CustomHandlerFn CustomHandler
	Default         any
	Desc            string
	LongDesc        string
	DisplayName     string
	SortStr         string
	FlagCompletion  complete.Completion
	ValueCompletion complete.Completion
	Group           *Group
	Active          bool

	// resolved type/value-req, computed once every syntax element is
	// reconciled in New.
	FlagType Type
	ValueReq ValueReq
}

// New builds a Flag from a set of already-parsed syntax strings, resolving
// each element's unresolved (nil) flag-type against the flag's overall
// type, and rejecting internally inconsistent declarations.
//
// usedFlags is the tool-wide set of already-occupied flag strings
// (including disabled ones). reportCollisions controls whether a colliding
// syntax element is a definition error (true) or silently dropped (false).
// If every syntax element collides, the returned Flag has Active=false and
// should not be added to the tool.
func New(
	key string,
	syntaxStrings []string,
	acc accept.Acceptor,
	handlerKind HandlerKind,
	customHandler CustomHandler,
	defaultValue any,
	usedFlags map[string]bool,
	reportCollisions bool,
) (*Flag, error) {
	if len(syntaxStrings) == 0 {
		syntaxStrings = []string{"--" + kebabCase(key)}
	}
	parsed := make([]*Syntax, 0, len(syntaxStrings))
	for _, s := range syntaxStrings {
		syn, err := Parse(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, syn)
	}
	if err := checkTypeConsistency(parsed); err != nil {
		return nil, err
	}
	flagType, valueReq, valueLabel := resolveType(parsed)
	resolveUnresolved(parsed, flagType, valueReq, valueLabel)

	var kept []*Syntax
	for _, syn := range parsed {
		dropped := false
		for f := range syn.Flags {
			if usedFlags[f] {
				if reportCollisions {
					return nil, toolerr.Newf(
						toolerr.CodeFlagCollision,
						"flag %q collides with an already-bound flag on tool", f,
					)
				}
				dropped = true
				break
			}
		}
		if dropped {
			continue
		}
		kept = append(kept, syn)
	}

	f := &Flag{
		Key:             key,
		Syntax:          kept,
		Acceptor:        acc,
		HandlerKind:     handlerKind,
		CustomHandlerFn: customHandler,
		Default:         defaultValue,
		Active:          len(kept) > 0,
		FlagType:        flagType,
		ValueReq:        valueReq,
	}
	if f.Acceptor == nil {
		f.Acceptor = accept.Default()
	}
	if f.HandlerKind == HandlerPush && f.Default == nil {
		f.Default = []any{}
	}
	if f.Active {
		for _, syn := range kept {
			for fl := range syn.Flags {
				usedFlags[fl] = true
			}
		}
	}
	f.computeSortStr()
	return f, nil
}

func checkTypeConsistency(parsed []*Syntax) error {
	haveBoolean, haveValue := false, false
	haveRequired, haveOptional := false, false
	for _, syn := range parsed {
		switch syn.FlagType {
		case TypeBoolean:
			haveBoolean = true
		case TypeValue:
			haveValue = true
			switch syn.ValueReq {
			case ValueReqRequired:
				haveRequired = true
			case ValueReqOptional:
				haveOptional = true
			}
		}
	}
	if haveBoolean && haveValue {
		return toolerr.Newf(toolerr.CodeFlagTypeConflict, "flag declares both boolean and value-taking syntax")
	}
	if haveRequired && haveOptional {
		return toolerr.Newf(toolerr.CodeFlagTypeConflict, "flag declares both required and optional value syntax")
	}
	return nil
}

func resolveType(parsed []*Syntax) (Type, ValueReq, string) {
	for _, syn := range parsed {
		if syn.FlagType == TypeBoolean {
			return TypeBoolean, ValueReqNone, ""
		}
	}
	for _, syn := range parsed {
		if syn.FlagType == TypeValue {
			return TypeValue, syn.ValueReq, syn.ValueLabel
		}
	}
	return TypeBoolean, ValueReqNone, ""
}

// resolveUnresolved applies the flag's overall type to every syntax element
// that didn't declare one of its own, then recomputes that element's
// CanonicalStr (and, for a value-taking flag, its ValueLabel) so both
// reflect the final resolved type rather than the unresolved placeholder
// computed at parse time.
func resolveUnresolved(parsed []*Syntax, flagType Type, valueReq ValueReq, valueLabel string) {
	for _, syn := range parsed {
		if syn.FlagType != TypeUnresolved {
			continue
		}
		syn.FlagType = flagType
		syn.ValueReq = valueReq
		if flagType == TypeValue {
			syn.ValueDelim = defaultDelim(syn.FlagStyle)
			syn.ValueLabel = valueLabel
		}
		if syn.FlagStyle == StyleLong {
			syn.CanonicalStr = canonicalLong(syn, strings.TrimPrefix(syn.PositiveFlag, "--"))
		} else {
			syn.CanonicalStr = canonicalShort(syn)
		}
	}
}

func defaultDelim(style Style) string {
	if style == StyleLong {
		return "="
	}
	return ""
}

// DisplayNameOrKey returns the flag's display name, falling back to its
// key when none was set.
func (f *Flag) DisplayNameOrKey() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Key
}

// EffectiveFlags returns every flag string (across all active syntax
// elements) this flag answers to.
func (f *Flag) EffectiveFlags() []string {
	var out []string
	for _, syn := range f.Syntax {
		out = append(out, syn.EffectiveFlags()...)
	}
	sort.Strings(out)
	return out
}

// ApplyHandler computes the next value to store given a newly parsed
// value and the currently stored value.
func (f *Flag) ApplyHandler(newValue, current any) any {
	switch f.HandlerKind {
	case HandlerPush:
		list, _ := current.([]any)
		return append(list, newValue)
	case HandlerCustom:
		if f.CustomHandlerFn != nil {
			return f.CustomHandlerFn(newValue, current)
		}
		return newValue
	default:
		return newValue
	}
}

func (f *Flag) computeSortStr() {
	if f.SortStr != "" {
		return
	}
	best := ""
	for _, syn := range f.Syntax {
		if best == "" || syn.SortStr < best {
			best = syn.SortStr
		}
	}
	f.SortStr = best
}

func kebabCase(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			out = append(out, '-')
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
