package tool

import (
	"os"
	"sort"
	"strings"

	"github.com/compozy/kestrel/core/accept"
	"github.com/compozy/kestrel/core/complete"
	"github.com/compozy/kestrel/core/flag"
	"github.com/compozy/kestrel/core/positional"
	"github.com/compozy/kestrel/core/toolerr"
)

func (t *Tool) checkMutable() error {
	if t.DefinitionFinished {
		return definitionError(toolerr.CodeDefinitionFrozen, "tool %q: definition already finished", strings.Join(t.FullName, " "))
	}
	return nil
}

// AddFlag declares a flag. syntaxStrings may be empty, in which case a
// single "--<kebab-key>" spelling is synthesized. reportCollisions selects
// whether a spelling that collides with an already-bound flag on this tool
// is a definition error (true) or is silently dropped (false, matching
// spec.md's "collision: drop" policy).
func (t *Tool) AddFlag(
	key string,
	syntaxStrings []string,
	acc accept.Acceptor,
	handlerKind flag.HandlerKind,
	customHandler flag.CustomHandler,
	defaultValue any,
	reportCollisions bool,
) (*flag.Flag, error) {
	if err := t.checkMutable(); err != nil {
		return nil, err
	}
	f, err := flag.New(key, syntaxStrings, acc, handlerKind, customHandler, defaultValue, t.UsedFlags, reportCollisions)
	if err != nil {
		return nil, err
	}
	if f.Active {
		t.Flags = append(t.Flags, f)
		t.baseGroup().Flags = append(t.baseGroup().Flags, f)
	}
	return f, nil
}

// DisableFlag marks an already-active flag inactive, freeing its spellings
// for reuse (e.g. by a mixin that wants to replace it).
func (t *Tool) DisableFlag(key string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	for _, f := range t.Flags {
		if f.Key == key {
			if !f.Active {
				return definitionError(toolerr.CodeFlagAlreadyDisabled, "flag %q is already disabled", key)
			}
			f.Active = false
			for _, syn := range f.Syntax {
				for fl := range syn.Flags {
					delete(t.UsedFlags, fl)
				}
			}
			return nil
		}
	}
	return definitionError(toolerr.CodeFlagAlreadyDisabled, "flag %q is not defined", key)
}

func (t *Tool) baseGroup() *flag.Group {
	return t.FlagGroups[0]
}

// AddFlagGroup creates a named flag group of the given cardinality kind and
// attaches the flags identified by key.
func (t *Tool) AddFlagGroup(kind flag.GroupKind, name, desc, longDesc string, keys ...string) (*flag.Group, error) {
	if err := t.checkMutable(); err != nil {
		return nil, err
	}
	g := flag.NewGroup(kind, name, desc, longDesc)
	for _, k := range keys {
		f := t.findFlag(k)
		if f == nil {
			return nil, definitionError(toolerr.CodeGroupMembershipNotSet, "flag group %q references undefined flag %q", name, k)
		}
		g.Flags = append(g.Flags, f)
		f.Group = g
	}
	t.FlagGroups = append(t.FlagGroups, g)
	return g, nil
}

// RequiredGroup, ExactlyOneGroup, AtMostOneGroup, and AtLeastOneGroup are
// per-kind shorthands for AddFlagGroup.
func (t *Tool) RequiredGroup(name, desc string, keys ...string) (*flag.Group, error) {
	return t.AddFlagGroup(flag.GroupRequired, name, desc, "", keys...)
}

func (t *Tool) ExactlyOneGroup(name, desc string, keys ...string) (*flag.Group, error) {
	return t.AddFlagGroup(flag.GroupExactlyOne, name, desc, "", keys...)
}

func (t *Tool) AtMostOneGroup(name, desc string, keys ...string) (*flag.Group, error) {
	return t.AddFlagGroup(flag.GroupAtMostOne, name, desc, "", keys...)
}

func (t *Tool) AtLeastOneGroup(name, desc string, keys ...string) (*flag.Group, error) {
	return t.AddFlagGroup(flag.GroupAtLeastOne, name, desc, "", keys...)
}

func (t *Tool) findFlag(key string) *flag.Flag {
	for _, f := range t.Flags {
		if f.Key == key {
			return f
		}
	}
	return nil
}

// AddRequiredArg, AddOptionalArg, and SetRemainingArgs build up the
// positional-argument list. Per spec.md §3's invariant, no positional may
// be added after the remaining-args catch-all has been set.
func (t *Tool) AddRequiredArg(key string, acc accept.Acceptor, desc, longDesc, displayName string) (*positional.Arg, error) {
	return t.addPositional(positional.New(key, positional.Required, acc, nil, desc, longDesc, displayName))
}

func (t *Tool) AddOptionalArg(key string, acc accept.Acceptor, def any, desc, longDesc, displayName string) (*positional.Arg, error) {
	return t.addPositional(positional.New(key, positional.Optional, acc, def, desc, longDesc, displayName))
}

func (t *Tool) addPositional(arg *positional.Arg) (*positional.Arg, error) {
	if err := t.checkMutable(); err != nil {
		return nil, err
	}
	if t.RemainingArg != nil {
		return nil, definitionError(toolerr.CodeArgAfterRemaining, "cannot add positional argument %q after remaining-args is set", arg.Key)
	}
	t.PositionalArgs = append(t.PositionalArgs, arg)
	return arg, nil
}

// SetRemainingArgs declares the trailing catch-all positional. Only one may
// be set per tool.
func (t *Tool) SetRemainingArgs(key string, acc accept.Acceptor, desc, longDesc, displayName string) (*positional.Arg, error) {
	if err := t.checkMutable(); err != nil {
		return nil, err
	}
	if t.RemainingArg != nil {
		return nil, definitionError(toolerr.CodeArgAfterRemaining, "remaining-args already set to %q", t.RemainingArg.Key)
	}
	arg := positional.New(key, positional.Remaining, acc, nil, desc, longDesc, displayName)
	t.RemainingArg = arg
	return arg, nil
}

// AddAcceptor, AddCompletion, AddMixin, and AddTemplate register reusable,
// ancestor-visible contract elements by name.
func (t *Tool) AddAcceptor(name string, a accept.Acceptor) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.Acceptors[name] = a
	return nil
}

func (t *Tool) AddCompletion(name string, c complete.Completion) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.Completions[name] = c
	return nil
}

func (t *Tool) AddMixin(name string, m any) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.Mixins[name] = m
	return nil
}

func (t *Tool) AddTemplate(name string, tmpl any) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.Templates[name] = tmpl
	return nil
}

// DisableArgumentParsing turns off flag/positional consumption entirely;
// the parser hands every remaining token to this tool verbatim.
func (t *Tool) DisableArgumentParsing() error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.ArgumentParsingDisabled = true
	return nil
}

// EnforceFlagsBeforeArgs requires every flag token to precede the first
// positional token.
func (t *Tool) EnforceFlagsBeforeArgs() error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.FlagsBeforeArgsEnforced = true
	return nil
}

// RequireExactFlagMatch disables unambiguous-prefix flag resolution.
func (t *Tool) RequireExactFlagMatch() error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.ExactFlagMatchRequired = true
	return nil
}

// SetTruncateLoadPath marks this tool's definition as a truncate_load_path!
// directive: once it wins resolution, the loader drops every lower-priority
// source from further consideration (spec.md §4.1).
func (t *Tool) SetTruncateLoadPath() error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.TruncateLoadPath = true
	return nil
}

// DelegateTo marks this tool as an alias of another, named by its full
// word path. A delegate tool may not also declare a run handler.
func (t *Tool) DelegateTo(target ...string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if t.RunHandler != nil {
		return definitionError(toolerr.CodeDelegationConflict, "tool %q cannot delegate: it already has a run handler", strings.Join(t.FullName, " "))
	}
	t.DelegateTarget = append([]string(nil), target...)
	return nil
}

// SetContextDirectory overrides the context directory this tool and its
// descendants resolve relative paths against.
func (t *Tool) SetContextDirectory(dir string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.ContextDirectoryOverride = dir
	return nil
}

func (t *Tool) SetRunHandler(h RunHandler) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if len(t.DelegateTarget) > 0 {
		return definitionError(toolerr.CodeDelegationConflict, "tool %q cannot set a run handler: it delegates to %v", strings.Join(t.FullName, " "), t.DelegateTarget)
	}
	t.RunHandler = h
	return nil
}

// SetInterruptHandler, SetUsageErrorHandler, AddSignalHandler, and
// AddInitializer follow most-recently-set-wins precedence: calling them
// again simply replaces (or, for initializers, appends to) the prior
// registration.
func (t *Tool) SetInterruptHandler(h InterruptHandler) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.InterruptHandler = h
	return nil
}

func (t *Tool) SetUsageErrorHandler(h UsageErrorHandler) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.UsageErrorHandler = h
	return nil
}

func (t *Tool) AddSignalHandler(sig os.Signal, h SignalHandler) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if t.SignalHandlers == nil {
		t.SignalHandlers = make(map[os.Signal]SignalHandler)
	}
	t.SignalHandlers[sig] = h
	return nil
}

func (t *Tool) AddInitializer(fn func(ctx *Context, args []any) error, args ...any) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.Initializers = append(t.Initializers, Initializer{Fn: fn, Args: args})
	return nil
}

// SetDefault seeds the tool's default-data bag, the base layer a run
// Context is built from before flags and positionals are applied.
func (t *Tool) SetDefault(key string, value any) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.DefaultData[key] = value
	return nil
}

// SetToolCompletion registers a completion used for the bare tool-name
// position itself (as opposed to a flag's value or a positional).
func (t *Tool) SetToolCompletion(c complete.Completion) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.ToolCompletion = c
	return nil
}

// Use registers a middleware to be configured against this tool at
// FinishDefinition time.
func (t *Tool) Use(m Middleware) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.MiddlewareStack = append(t.MiddlewareStack, m)
	return nil
}

// FinishDefinition freezes the tool: applies every registered middleware,
// sorts flag groups into a stable display order, and marks the definition
// immutable. Calling it twice is a no-op (idempotent, per spec.md §3).
func (t *Tool) FinishDefinition() error {
	if t.DefinitionFinished {
		return nil
	}
	for _, m := range t.MiddlewareStack {
		if err := m.Config(t); err != nil {
			return err
		}
	}
	sort.SliceStable(t.FlagGroups, func(i, j int) bool {
		return t.FlagGroups[i].Name < t.FlagGroups[j].Name
	})
	for _, g := range t.FlagGroups {
		sort.SliceStable(g.Flags, func(i, j int) bool {
			return g.Flags[i].SortStr < g.Flags[j].SortStr
		})
	}
	sort.SliceStable(t.Flags, func(i, j int) bool {
		return t.Flags[i].SortStr < t.Flags[j].SortStr
	})
	t.DefinitionFinished = true
	return nil
}
