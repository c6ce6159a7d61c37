// Package tool implements the Tool definition model: the mutable build-up
// of a tool's flags, positional arguments, flag groups, acceptors,
// completions, mixins, and other contract elements.
package tool

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/compozy/kestrel/core/accept"
	"github.com/compozy/kestrel/core/complete"
	"github.com/compozy/kestrel/core/flag"
	"github.com/compozy/kestrel/core/positional"
	"github.com/compozy/kestrel/core/source"
	"github.com/compozy/kestrel/core/toolerr"
	"github.com/compozy/kestrel/core/wrapstr"
)

// Initializer is a callable (plus bound arguments) applied at the start of
// every run of a tool, in declaration order.
type Initializer struct {
	Fn   func(ctx *Context, args []any) error
	Args []any
}

// RunHandler is the tool's body.
type RunHandler func(ctx *Context) error

// InterruptHandler handles Ctrl-C (or equivalent) during a run.
type InterruptHandler func(ctx *Context, cause error) error

// SignalHandler handles an OS signal during a run.
type SignalHandler func(ctx *Context, sig os.Signal)

// UsageErrorHandler is invoked when a parse produced usage errors, instead
// of (or in addition to) the default reporting. It receives the plain
// errors produced by the parser; callers that need parser-specific fields
// (message/suggestions) type-assert against parse.UsageError.
type UsageErrorHandler func(ctx *Context, errs []error) error

// Middleware contributes flags/groups/behavior to every tool at
// finish_definition time.
type Middleware interface {
	Config(t *Tool) error
}

// Tool is a single definition: name path, descriptions, flags, positional
// args, flag groups, and the other contract elements in spec.md §3.
type Tool struct {
	FullName []string
	Desc     wrapstr.String
	LongDesc wrapstr.String

	Flags          []*flag.Flag
	FlagGroups     []*flag.Group
	PositionalArgs []*positional.Arg
	RemainingArg   *positional.Arg

	DefaultData map[string]any
	Acceptors   map[string]accept.Acceptor
	Completions map[string]complete.Completion
	Mixins      map[string]any
	Templates   map[string]any

	UsedFlags map[string]bool

	RunHandler        RunHandler
	InterruptHandler  InterruptHandler
	SignalHandlers    map[os.Signal]SignalHandler
	UsageErrorHandler UsageErrorHandler
	Initializers      []Initializer

	SourceInfo               *source.Info
	ContextDirectoryOverride string

	ArgumentParsingDisabled bool
	FlagsBeforeArgsEnforced bool
	ExactFlagMatchRequired  bool
	TruncateLoadPath        bool

	DelegateTarget []string

	ToolCompletion     complete.Completion
	DefinitionFinished bool

	Settings map[string]any

	MiddlewareStack []Middleware

	// Parent supports ancestor lookup for acceptors/completions/mixins/
	// templates; set by the loader when a child tool is created.
	Parent *Tool
}

// New creates an empty, unfinished Tool for fullName.
func New(fullName []string) *Tool {
	base := flag.NewGroup(flag.GroupBase, "", "", "")
	t := &Tool{
		FullName:    append([]string(nil), fullName...),
		DefaultData: make(map[string]any),
		Acceptors:   make(map[string]accept.Acceptor),
		Completions: make(map[string]complete.Completion),
		Mixins:      make(map[string]any),
		Templates:   make(map[string]any),
		UsedFlags:   make(map[string]bool),
		FlagGroups:  []*flag.Group{base},
		Settings:    make(map[string]any),
	}
	return t
}

// Simple returns the tool's trailing name word, or "" for the root.
func (t *Tool) Simple() string {
	if len(t.FullName) == 0 {
		return ""
	}
	return t.FullName[len(t.FullName)-1]
}

// IsRoot reports whether this is the root (empty full-name) tool.
func (t *Tool) IsRoot() bool {
	return len(t.FullName) == 0
}

// IsRunnable reports whether the tool has a run handler (or delegates, in
// which case runnability is the delegate target's).
func (t *Tool) IsRunnable() bool {
	return t.RunHandler != nil || len(t.DelegateTarget) > 0
}

// IsDelegate reports whether this tool's only contribution is a delegate
// target (an alias).
func (t *Tool) IsDelegate() bool {
	return len(t.DelegateTarget) > 0
}

// ---- acceptor / completion / mixin / template lookup (with ancestry) ----

// LookupAcceptor walks from this tool up through its ancestors, returning
// the first registration found under name.
func (t *Tool) LookupAcceptor(name string) (accept.Acceptor, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if a, ok := cur.Acceptors[name]; ok {
			return a, true
		}
	}
	if a, err := accept.WellKnown(name); err == nil {
		return a, true
	}
	return nil, false
}

// LookupCompletion walks from this tool up through its ancestors.
func (t *Tool) LookupCompletion(name string) (complete.Completion, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if c, ok := cur.Completions[name]; ok {
			return c, true
		}
	}
	return nil, false
}

// LookupMixin walks from this tool up through its ancestors.
func (t *Tool) LookupMixin(name string) (any, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if m, ok := cur.Mixins[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// LookupTemplate walks from this tool up through its ancestors.
func (t *Tool) LookupTemplate(name string) (any, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if tmpl, ok := cur.Templates[name]; ok {
			return tmpl, true
		}
	}
	return nil, false
}

// ---- flag resolution (spec.md §4.2 "Flag resolution") ----

// Resolution is the outcome of resolving a user-typed flag string.
type Resolution int

const (
	ResolutionNotFound Resolution = iota
	ResolutionUnique
	ResolutionMultiple
)

// ResolveFlag implements the exact-then-prefix flag resolution algorithm.
// negative reports whether the match was via a flag's negative spelling.
func (t *Tool) ResolveFlag(s string) (res Resolution, matches []*flag.Flag, negative bool) {
	var exact []*flag.Flag
	exactNegative := false
	for _, f := range t.Flags {
		if !f.Active {
			continue
		}
		for _, syn := range f.Syntax {
			if syn.PositiveFlag == s {
				exact = append(exact, f)
			} else if syn.NegativeFlag != "" && syn.NegativeFlag == s {
				exact = append(exact, f)
				exactNegative = true
			}
		}
	}
	if len(exact) == 1 {
		return ResolutionUnique, exact, exactNegative
	}
	if len(exact) > 1 {
		return ResolutionMultiple, exact, false
	}
	if t.ExactFlagMatchRequired {
		return ResolutionNotFound, nil, false
	}
	var prefix []*flag.Flag
	prefixNegative := false
	seen := map[*flag.Flag]bool{}
	for _, f := range t.Flags {
		if !f.Active {
			continue
		}
		for _, syn := range f.Syntax {
			if syn.FlagStyle != flag.StyleLong {
				continue
			}
			posMatch := strings.HasPrefix(syn.PositiveFlag, s)
			negMatch := syn.NegativeFlag != "" && strings.HasPrefix(syn.NegativeFlag, s)
			if posMatch || negMatch {
				if !seen[f] {
					seen[f] = true
					prefix = append(prefix, f)
				}
				if negMatch && !posMatch {
					prefixNegative = true
				}
			}
		}
	}
	switch len(prefix) {
	case 0:
		return ResolutionNotFound, nil, false
	case 1:
		return ResolutionUnique, prefix, prefixNegative
	default:
		return ResolutionMultiple, prefix, false
	}
}

// LongFlagStrings returns every long-style flag string defined on the
// tool, used to produce UnknownFlag suggestions.
func (t *Tool) LongFlagStrings() []string {
	var out []string
	for _, f := range t.Flags {
		if !f.Active {
			continue
		}
		for _, syn := range f.Syntax {
			if syn.FlagStyle != flag.StyleLong {
				continue
			}
			out = append(out, syn.PositiveFlag)
			if syn.NegativeFlag != "" {
				out = append(out, syn.NegativeFlag)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ---- name-to-accessor eligibility (see DESIGN.md §"dynamic accessors") ----

var accessorNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*[!?=]?$`)

var reservedAccessorNames = map[string]bool{
	"run": true, "initialize": true, "options": true,
}

// EligibleForAccessor reports whether key is a legal candidate name for a
// generated per-tool accessor, per the naming rule in spec.md §4.2. Go has
// no runtime method synthesis (see DESIGN.md), so this is exposed purely
// for front-ends that want to generate a typed accessor shim.
func EligibleForAccessor(key string, addMethod *bool) bool {
	if addMethod != nil && !*addMethod {
		return false
	}
	if strings.HasPrefix(key, "_") {
		return false
	}
	if !accessorNameRe.MatchString(key) {
		return false
	}
	if key == "run" || key == "initialize" {
		return false
	}
	if reservedAccessorNames[key] && (addMethod == nil || !*addMethod) {
		return false
	}
	return true
}

// definitionError is a small helper for consistent DefinitionError codes.
func definitionError(code, format string, args ...any) error {
	return toolerr.Newf(code, format, args...)
}
