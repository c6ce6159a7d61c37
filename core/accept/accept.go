// Package accept implements the Acceptor: a polymorphic validator/converter
// for a single textual value, with variants {default, simple, pattern, enum,
// range, well-known named type}.
package accept

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Reject is the sentinel a Simple function returns to signal a failed
// match without raising an error.
var Reject = &struct{ name string }{"reject"}

// Match is the result of a successful Acceptor.Match call: the raw matched
// text plus whatever intermediate value the variant wants to hand to
// Convert (e.g., the matched pattern text, or the enum element).
type Match struct {
	Text  string
	Value any
}

// Acceptor validates and converts a single textual value.
type Acceptor interface {
	// TypeDesc is a short human-readable description used in usage errors.
	TypeDesc() string
	// Match reports whether s is acceptable, returning the data Convert
	// will need.
	Match(s string) (Match, bool)
	// Convert turns a successful Match into the value a Flag/positional
	// arg will store.
	Convert(m Match) (any, error)
	// WellKnownSpec returns the identifier used to recognize this as a
	// reusable built-in, or "" if it isn't one.
	WellKnownSpec() string
}

// base carries the common TypeDesc/WellKnownSpec attributes.
type base struct {
	typeDesc string
	wellKnown string
}

func (b base) TypeDesc() string     { return b.typeDesc }
func (b base) WellKnownSpec() string { return b.wellKnown }

// ---- default ----

type defaultAcceptor struct{ base }

// Default matches any string (and any nullable value); conversion is the
// identity for a non-null value, true for null (i.e., a bare boolean flag).
func Default() Acceptor {
	return defaultAcceptor{base{typeDesc: "string"}}
}

func (defaultAcceptor) Match(s string) (Match, bool) { return Match{Text: s, Value: s}, true }
func (defaultAcceptor) Convert(m Match) (any, error) {
	if m.Value == nil {
		return true, nil
	}
	return m.Value, nil
}

// ---- simple(fn) ----

// SimpleFunc converts s, returning Reject to fail the match.
type SimpleFunc func(s string) (any, error)

type simpleAcceptor struct {
	base
	fn SimpleFunc
}

// Simple builds an Acceptor from a conversion function. The function may
// return (Reject, nil) to fail the match, or a non-nil error, which is
// also treated as a failed match.
func Simple(typeDesc string, fn SimpleFunc) Acceptor {
	return simpleAcceptor{base{typeDesc: typeDesc}, fn}
}

func (a simpleAcceptor) Match(s string) (Match, bool) {
	v, err := a.fn(s)
	if err != nil || v == Reject {
		return Match{}, false
	}
	return Match{Text: s, Value: v}, true
}

func (simpleAcceptor) Convert(m Match) (any, error) { return m.Value, nil }

// ---- pattern(rx, fn?) ----

// PatternFunc converts a successful regexp match into a value.
type PatternFunc func(match *regexp.Regexp, s string) any

type patternAcceptor struct {
	base
	rx *regexp.Regexp
	fn PatternFunc
}

// Pattern builds an Acceptor that matches iff rx matches s. If fn is nil,
// conversion yields the matched string unchanged.
func Pattern(typeDesc string, rx *regexp.Regexp, fn PatternFunc) Acceptor {
	return patternAcceptor{base{typeDesc: typeDesc}, rx, fn}
}

func (a patternAcceptor) Match(s string) (Match, bool) {
	if !a.rx.MatchString(s) {
		return Match{}, false
	}
	return Match{Text: s, Value: s}, true
}

func (a patternAcceptor) Convert(m Match) (any, error) {
	if a.fn != nil {
		return a.fn(a.rx, m.Text), nil
	}
	return m.Text, nil
}

// ---- enum(values) ----

type enumAcceptor struct {
	base
	values []string
	lookup map[string]string
}

// Enum builds an Acceptor that matches a string iff it equals the textual
// form of one of values. Conversion returns the matched element exactly as
// it was declared.
func Enum(typeDesc string, values ...string) Acceptor {
	lookup := make(map[string]string, len(values))
	for _, v := range values {
		lookup[v] = v
	}
	return enumAcceptor{base{typeDesc: typeDesc}, values, lookup}
}

func (a enumAcceptor) Match(s string) (Match, bool) {
	v, ok := a.lookup[s]
	if !ok {
		return Match{}, false
	}
	return Match{Text: s, Value: v}, true
}

func (enumAcceptor) Convert(m Match) (any, error) { return m.Value, nil }

// Values exposes the enum's textual forms, used to produce near-miss
// suggestions in core/suggest.
func (a enumAcceptor) Values() []string { return a.values }

// EnumValues extracts the candidate strings from an Acceptor if it is an
// enum acceptor; an acceptor that wraps one is not recognized.
func EnumValues(a Acceptor) ([]string, bool) {
	if e, ok := a.(enumAcceptor); ok {
		return e.Values(), true
	}
	return nil, false
}

// ---- range(lo..hi, fn?) ----

// RangeFunc parses a string into a comparable numeric value. Defaults to
// parsing as float64 when nil.
type RangeFunc func(s string) (float64, error)

type rangeAcceptor struct {
	base
	lo, hi float64
	fn     RangeFunc
}

// Range builds an Acceptor that parses a value as numeric (via fn, or
// strconv.ParseFloat by default) and matches iff lo <= v <= hi.
func Range(typeDesc string, lo, hi float64, fn RangeFunc) Acceptor {
	if fn == nil {
		fn = func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
	}
	return rangeAcceptor{base{typeDesc: typeDesc}, lo, hi, fn}
}

func (a rangeAcceptor) Match(s string) (Match, bool) {
	v, err := a.fn(s)
	if err != nil || v < a.lo || v > a.hi {
		return Match{}, false
	}
	return Match{Text: s, Value: v}, true
}

func (rangeAcceptor) Convert(m Match) (any, error) { return m.Value, nil }

// ---- well-known named types ----

var patternCache, _ = lru.New[string, *regexp.Regexp](128)

func compileCached(expr string) (*regexp.Regexp, error) {
	if rx, ok := patternCache.Get(expr); ok {
		return rx, nil
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Add(expr, rx)
	return rx, nil
}

// WellKnown resolves a built-in acceptor by name. Recognized names: string,
// integer, decimal-integer, octal-integer, float, rational, numeric,
// boolean, array, regexp.
func WellKnown(name string) (Acceptor, error) {
	switch name {
	case "string":
		return wellKnownSimple(name, "non-empty string", func(s string) (any, error) {
			if s == "" {
				return Reject, nil
			}
			return s, nil
		}), nil
	case "integer":
		return wellKnownSimple(name, "integer", func(s string) (any, error) {
			v, err := strconv.ParseInt(s, 0, 64)
			if err != nil {
				return Reject, nil
			}
			return v, nil
		}), nil
	case "decimal-integer":
		return wellKnownSimple(name, "decimal integer", func(s string) (any, error) {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return Reject, nil
			}
			return v, nil
		}), nil
	case "octal-integer":
		return wellKnownSimple(name, "octal integer", func(s string) (any, error) {
			v, err := strconv.ParseInt(strings.TrimPrefix(s, "0o"), 8, 64)
			if err != nil {
				return Reject, nil
			}
			return v, nil
		}), nil
	case "float":
		return wellKnownSimple(name, "float", func(s string) (any, error) {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Reject, nil
			}
			return v, nil
		}), nil
	case "rational":
		return wellKnownSimple(name, "rational", func(s string) (any, error) {
			r, ok := new(big.Rat).SetString(s)
			if !ok {
				return Reject, nil
			}
			return r, nil
		}), nil
	case "numeric":
		return wellKnownSimple(name, "number", func(s string) (any, error) {
			if v, err := strconv.ParseInt(s, 0, 64); err == nil {
				return v, nil
			}
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return v, nil
			}
			return Reject, nil
		}), nil
	case "boolean":
		return wellKnownSimple(name, "boolean", func(s string) (any, error) {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return Reject, nil
			}
			return v, nil
		}), nil
	case "array":
		return wellKnownSimple(name, "comma-separated list", func(s string) (any, error) {
			if s == "" {
				return []string{}, nil
			}
			return strings.Split(s, ","), nil
		}), nil
	case "regexp":
		return wellKnownSimple(name, "regular expression", func(s string) (any, error) {
			rx, err := compileCached(s)
			if err != nil {
				return Reject, nil
			}
			return rx, nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown well-known acceptor %q", name)
	}
}

func wellKnownSimple(name, typeDesc string, fn SimpleFunc) Acceptor {
	return simpleAcceptor{base{typeDesc: typeDesc, wellKnown: name}, fn}
}
