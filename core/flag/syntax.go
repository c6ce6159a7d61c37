// Package flag implements FlagSyntax, Flag, and FlagGroup: the declarative
// model of a tool's command-line flags.
package flag

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/compozy/kestrel/core/toolerr"
)

// Style distinguishes short (-x) from long (--xyz) spellings.
type Style int

const (
	StyleShort Style = iota
	StyleLong
)

func (s Style) String() string {
	if s == StyleShort {
		return "short"
	}
	return "long"
}

// Type enumerates whether a flag takes a value. TypeUnresolved means the
// individual spelling did not say, and will inherit the flag's overall
// type once every spelling has been combined.
type Type int

const (
	TypeUnresolved Type = iota
	TypeBoolean
	TypeValue
)

// ValueReq enumerates whether a value-taking flag's value is required or
// may be omitted.
type ValueReq int

const (
	ValueReqNone ValueReq = iota
	ValueReqRequired
	ValueReqOptional
)

var (
	shortRe = regexp.MustCompile(`^-([A-Za-z0-9])(.*)$`)
	longRe  = regexp.MustCompile(`^--(\[no-\])?([A-Za-z0-9][\w-]*)(.*)$`)
)

// Syntax is a single canonical description of one spelling of a flag, as
// parsed from a declaration string such as "--foo=VALUE" or "-f[VALUE]".
type Syntax struct {
	OriginalString string
	Flags         map[string]bool
	PositiveFlag  string
	NegativeFlag  string
	FlagStyle     Style
	FlagType      Type
	ValueReq      ValueReq
	ValueDelim    string // "", " ", or "="
	ValueLabel    string
	CanonicalStr  string
	SortStr       string
}

// Parse parses a single flag syntax string per the grammar in spec.md §3
// (Flag syntax): short-no-value, short-req-attached, short-req-space,
// short-opt-attached, short-opt-space, long-no-value, long-req-eq,
// long-req-space, long-opt-eq-outer, long-opt-eq-inner, long-opt-sp-outer,
// long-opt-sp-inner, negatable-boolean.
func Parse(s string) (*Syntax, error) {
	if strings.HasPrefix(s, "--") {
		return parseLong(s)
	}
	if strings.HasPrefix(s, "-") {
		return parseShort(s)
	}
	return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "flag syntax %q must begin with - or --", s)
}

func parseShort(s string) (*Syntax, error) {
	m := shortRe.FindStringSubmatch(s)
	if m == nil {
		return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "invalid short flag syntax %q", s)
	}
	letter, rest := m[1], m[2]
	flag := "-" + letter
	syn := &Syntax{
		OriginalString: s,
		PositiveFlag:   flag,
		FlagStyle:      StyleShort,
		Flags:          map[string]bool{flag: true},
	}
	switch {
	case rest == "":
		syn.FlagType = TypeUnresolved
	case rest == "[]":
		return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "empty optional label in %q", s)
	case strings.HasPrefix(rest, "[ ") && strings.HasSuffix(rest, "]"):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqOptional, " ", strings.TrimSuffix(strings.TrimPrefix(rest, "[ "), "]")
	case strings.HasPrefix(rest, " [") && strings.HasSuffix(rest, "]"):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqOptional, " ", strings.TrimSuffix(strings.TrimPrefix(rest, " ["), "]")
	case strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]"):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqOptional, "", strings.TrimSuffix(strings.TrimPrefix(rest, "["), "]")
	case strings.HasPrefix(rest, " "):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqRequired, " ", strings.TrimPrefix(rest, " ")
	default:
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqRequired, "", rest
	}
	if syn.FlagType == TypeValue && syn.ValueLabel == "" {
		return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "missing value label in %q", s)
	}
	syn.CanonicalStr = canonicalShort(syn)
	syn.SortStr = letter
	return syn, nil
}

func parseLong(s string) (*Syntax, error) {
	m := longRe.FindStringSubmatch(s)
	if m == nil {
		return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "invalid long flag syntax %q", s)
	}
	negatablePrefix, name, rest := m[1], m[2], m[3]
	positive := "--" + name
	syn := &Syntax{
		OriginalString: s,
		PositiveFlag:   positive,
		FlagStyle:      StyleLong,
		Flags:          map[string]bool{positive: true},
	}
	if negatablePrefix != "" {
		if rest != "" {
			return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "negatable flag %q must not declare a value", s)
		}
		negative := "--no-" + name
		syn.NegativeFlag = negative
		syn.Flags[negative] = true
		syn.FlagType = TypeBoolean
		syn.CanonicalStr = "--[no-]" + name
		syn.SortStr = name
		return syn, nil
	}
	switch {
	case rest == "":
		syn.FlagType = TypeUnresolved
	case strings.HasPrefix(rest, "=[") && strings.HasSuffix(rest, "]"):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqOptional, "=", strings.TrimSuffix(strings.TrimPrefix(rest, "=["), "]")
	case strings.HasPrefix(rest, "[=") && strings.HasSuffix(rest, "]"):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqOptional, "=", strings.TrimSuffix(strings.TrimPrefix(rest, "[="), "]")
	case strings.HasPrefix(rest, " [") && strings.HasSuffix(rest, "]"):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqOptional, " ", strings.TrimSuffix(strings.TrimPrefix(rest, " ["), "]")
	case strings.HasPrefix(rest, "[ ") && strings.HasSuffix(rest, "]"):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqOptional, " ", strings.TrimSuffix(strings.TrimPrefix(rest, "[ "), "]")
	case strings.HasPrefix(rest, "="):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqRequired, "=", strings.TrimPrefix(rest, "=")
	case strings.HasPrefix(rest, " "):
		syn.FlagType, syn.ValueReq, syn.ValueDelim, syn.ValueLabel = TypeValue, ValueReqRequired, " ", strings.TrimPrefix(rest, " ")
	default:
		return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "invalid long flag syntax %q", s)
	}
	if syn.FlagType == TypeValue && syn.ValueLabel == "" {
		return nil, toolerr.Newf(toolerr.CodeFlagSyntaxInvalid, "missing value label in %q", s)
	}
	syn.CanonicalStr = canonicalLong(syn, name)
	syn.SortStr = name
	return syn, nil
}

func canonicalShort(syn *Syntax) string {
	if syn.FlagType != TypeValue {
		return syn.PositiveFlag
	}
	label := "[" + syn.ValueLabel + "]"
	if syn.ValueReq == ValueReqRequired {
		label = syn.ValueLabel
	}
	return syn.PositiveFlag + label
}

func canonicalLong(syn *Syntax, name string) string {
	if syn.FlagType != TypeValue {
		return "--" + name
	}
	if syn.ValueReq == ValueReqRequired {
		return fmt.Sprintf("--%s=%s", name, syn.ValueLabel)
	}
	return fmt.Sprintf("--%s=[%s]", name, syn.ValueLabel)
}

// EffectiveFlags returns every flag string this syntax element answers to.
func (s *Syntax) EffectiveFlags() []string {
	out := make([]string, 0, len(s.Flags))
	for f := range s.Flags {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
