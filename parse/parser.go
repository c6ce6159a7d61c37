package parse

import (
	"strings"

	"github.com/google/shlex"

	"github.com/compozy/kestrel/core/accept"
	"github.com/compozy/kestrel/core/flag"
	"github.com/compozy/kestrel/core/positional"
	"github.com/compozy/kestrel/core/suggest"
	"github.com/compozy/kestrel/core/tool"
)

// SuggestMaxDistance bounds the edit distance considered for unknown-flag
// and invalid-value suggestions.
const SuggestMaxDistance = 2

type pendingFlag struct {
	flag     *flag.Flag
	optional bool
	negative bool
}

// Parser drives a single parse of a token vector against a finished Tool.
type Parser struct {
	tool *tool.Tool

	data                map[string]any
	errors              []*UsageError
	parsedArgs          []string
	unmatchedPositional []string
	unmatchedFlags      []string
	seenFlagsKeys       map[string]bool

	positionalCursor  int
	finished          bool
	flagParsingActive bool
	pending           *pendingFlag
}

// New builds a Parser for t, seeding data from the tool's default data.
func New(t *tool.Tool) *Parser {
	p := &Parser{
		tool:              t,
		data:              make(map[string]any, len(t.DefaultData)),
		seenFlagsKeys:     make(map[string]bool),
		flagParsingActive: true,
	}
	for k, v := range t.DefaultData {
		p.data[k] = v
	}
	for _, f := range t.Flags {
		if _, ok := p.data[f.Key]; !ok {
			p.data[f.Key] = f.Default
		}
	}
	for _, pos := range t.PositionalArgs {
		if _, ok := p.data[pos.Key]; !ok {
			p.data[pos.Key] = pos.Default
		}
	}
	return p
}

// Data returns the parser's populated data map.
func (p *Parser) Data() map[string]any { return p.data }

// Errors returns every usage error detected so far, in order.
func (p *Parser) Errors() []*UsageError { return p.errors }

// ParsedArgs returns every token consumed so far, in order.
func (p *Parser) ParsedArgs() []string { return p.parsedArgs }

// UnmatchedPositional returns positional tokens that had no slot.
func (p *Parser) UnmatchedPositional() []string { return p.unmatchedPositional }

// UnmatchedFlags returns flag tokens that failed to resolve.
func (p *Parser) UnmatchedFlags() []string { return p.unmatchedFlags }

// ParseLine tokenizes line with shell-word-splitting semantics and parses
// the result, a convenience for REPL-style input.
func (p *Parser) ParseLine(line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return err
	}
	p.Parse(tokens)
	return nil
}

// Parse consumes tokens against the tool, accumulating data and errors. It
// may be called repeatedly before Finish.
func (p *Parser) Parse(tokens []string) {
	if p.finished {
		return
	}
	if p.tool.ArgumentParsingDisabled {
		p.parsedArgs = append(p.parsedArgs, tokens...)
		for _, t := range tokens {
			p.unmatchedPositional = append(p.unmatchedPositional, t)
		}
		return
	}
	for _, t := range tokens {
		p.parsedArgs = append(p.parsedArgs, t)
		p.consume(t)
	}
}

func (p *Parser) consume(t string) {
	if p.pending != nil {
		pf := p.pending
		if pf.optional && (strings.HasPrefix(t, "-") || t == "--") {
			p.pending = nil
			p.storeFlagValue(pf.flag, true, nil)
			// fall through: t is still unconsumed by the flag.
		} else {
			p.pending = nil
			p.applyFlagToken(pf.flag, t)
			return
		}
	}

	isFlagToken := p.flagParsingActive && strings.HasPrefix(t, "-") && t != "-"
	if !isFlagToken {
		p.consumePositional(t)
		if p.tool.FlagsBeforeArgsEnforced {
			p.flagParsingActive = false
		}
		return
	}

	if t == "--" {
		p.flagParsingActive = false
		return
	}

	if strings.HasPrefix(t, "--") {
		p.consumeLong(t)
		return
	}

	p.consumeShortCluster(t)
}

func (p *Parser) consumeLong(t string) {
	rest := t[2:]
	name, attached, hasAttached := strings.Cut(rest, "=")
	flagStr := "--" + name

	res, matches, negative := p.tool.ResolveFlag(flagStr)
	switch res {
	case tool.ResolutionNotFound:
		suggestions := suggest.For(flagStr, p.tool.LongFlagStrings(), SuggestMaxDistance)
		p.errors = append(p.errors, newUnknownFlag(flagStr, suggestions))
		p.unmatchedFlags = append(p.unmatchedFlags, flagStr)
		if p.tool.FlagsBeforeArgsEnforced && p.positionalCursor > 0 {
			p.consumePositional(t)
		}
		return
	case tool.ResolutionMultiple:
		p.errors = append(p.errors, newAmbiguousFlag(flagStr, candidateSpellings(matches, flagStr)))
		return
	}

	f := matches[0]
	p.seenFlagsKeys[f.Key] = true

	if f.FlagType == flag.TypeBoolean {
		if hasAttached {
			p.errors = append(p.errors, newFlagShouldNotTakeValue(f.DisplayNameOrKey()))
			return
		}
		value := true
		if negative {
			value = false
		}
		p.storeFlagValue(f, value, nil)
		return
	}

	if hasAttached {
		p.validateAndStore(f, attached)
		return
	}
	p.pending = &pendingFlag{flag: f, optional: f.ValueReq == flag.ValueReqOptional}
}

func (p *Parser) consumeShortCluster(t string) {
	chars := []rune(t[1:])
	for i := 0; i < len(chars); i++ {
		flagStr := "-" + string(chars[i])
		res, matches, negative := p.tool.ResolveFlag(flagStr)
		if res != tool.ResolutionUnique {
			p.errors = append(p.errors, newUnknownFlag(flagStr, nil))
			p.unmatchedFlags = append(p.unmatchedFlags, flagStr)
			return
		}
		f := matches[0]
		p.seenFlagsKeys[f.Key] = true

		if f.FlagType == flag.TypeBoolean {
			value := true
			if negative {
				value = false
			}
			p.storeFlagValue(f, value, nil)
			continue
		}

		remainder := string(chars[i+1:])
		if remainder != "" {
			p.validateAndStore(f, remainder)
			return
		}
		p.pending = &pendingFlag{flag: f, optional: f.ValueReq == flag.ValueReqOptional}
		return
	}
}

// applyFlagToken consumes t as a pending flag's value.
func (p *Parser) applyFlagToken(f *flag.Flag, t string) {
	p.validateAndStore(f, t)
}

func (p *Parser) validateAndStore(f *flag.Flag, text string) {
	m, ok := f.Acceptor.Match(text)
	if !ok {
		p.errors = append(p.errors, newInvalidFlagValue(f.DisplayNameOrKey(), text, enumSuggestions(f.Acceptor, text)))
		return
	}
	v, err := f.Acceptor.Convert(m)
	if err != nil {
		p.errors = append(p.errors, newInvalidFlagValue(f.DisplayNameOrKey(), text, enumSuggestions(f.Acceptor, text)))
		return
	}
	p.storeFlagValue(f, v, nil)
}

func (p *Parser) storeFlagValue(f *flag.Flag, value any, _ any) {
	p.data[f.Key] = f.ApplyHandler(value, p.data[f.Key])
}

func (p *Parser) consumePositional(t string) {
	args := p.tool.PositionalArgs
	if p.positionalCursor < len(args) {
		arg := args[p.positionalCursor]
		p.positionalCursor++
		m, ok := arg.Acceptor.Match(t)
		if !ok {
			p.errors = append(p.errors, newInvalidArgumentValue(arg.DisplayName, t, enumSuggestions(arg.Acceptor, t)))
			return
		}
		v, err := arg.Acceptor.Convert(m)
		if err != nil {
			p.errors = append(p.errors, newInvalidArgumentValue(arg.DisplayName, t, enumSuggestions(arg.Acceptor, t)))
			return
		}
		p.data[arg.Key] = v
		return
	}
	p.positionalCursor++
	if p.tool.RemainingArg != nil {
		arg := p.tool.RemainingArg
		m, ok := arg.Acceptor.Match(t)
		if !ok {
			p.errors = append(p.errors, newInvalidArgumentValue(arg.DisplayName, t, enumSuggestions(arg.Acceptor, t)))
			return
		}
		v, err := arg.Acceptor.Convert(m)
		if err != nil {
			p.errors = append(p.errors, newInvalidArgumentValue(arg.DisplayName, t, enumSuggestions(arg.Acceptor, t)))
			return
		}
		list, _ := p.data[arg.Key].([]any)
		p.data[arg.Key] = append(list, v)
		return
	}
	p.unmatchedPositional = append(p.unmatchedPositional, t)
}

// Finish seals the parser: finalizes any pending flag, checks required
// positionals, and validates every flag group's cardinality.
func (p *Parser) Finish() []*UsageError {
	if p.finished {
		return p.errors
	}
	p.finished = true

	if p.pending != nil {
		pf := p.pending
		p.pending = nil
		if pf.optional {
			p.storeFlagValue(pf.flag, true, nil)
		} else {
			p.errors = append(p.errors, newFlagMissingValue(pf.flag.DisplayNameOrKey()))
		}
	}

	if !p.tool.ArgumentParsingDisabled {
		for i, arg := range p.tool.PositionalArgs {
			if arg.Kind == positional.Required && i >= p.positionalCursor {
				p.errors = append(p.errors, newMissingRequiredArgument(arg.DisplayName))
			}
		}
		if len(p.unmatchedPositional) > 0 && !p.toolHasNoSuchSubtool() {
			p.errors = append(p.errors, newExtraArguments(p.unmatchedPositional))
		}
		for _, g := range p.tool.FlagGroups {
			for _, v := range g.Validate(p.seenFlagsKeys) {
				p.errors = append(p.errors, newFlagGroupConstraintViolated(v.Message))
			}
		}
	}

	return p.errors
}

// toolHasNoSuchSubtool is a placeholder hook: callers that drive a loader
// should reclassify ExtraArguments as ToolNotFound themselves once a
// deeper subtool lookup has failed (see NewToolNotFound), since the
// parser alone cannot resolve subtool names.
func (p *Parser) toolHasNoSuchSubtool() bool { return false }

// NewToolNotFound builds a ToolNotFound error for a caller that has
// confirmed the unmatched leading token names no existing subtool. It
// only constructs the error; see AppendError to record it.
func (p *Parser) NewToolNotFound(fullName []string, suggestions []string) *UsageError {
	return newToolNotFound(fullName, suggestions)
}

// AppendError appends an externally-constructed usage error, such as one
// from NewToolNotFound. Errors already recorded, including any
// ExtraArguments from Finish, are kept.
func (p *Parser) AppendError(e *UsageError) {
	p.errors = append(p.errors, e)
}

func candidateSpellings(matches []*flag.Flag, prefix string) []string {
	var out []string
	for _, f := range matches {
		for _, syn := range f.Syntax {
			if syn.FlagStyle != flag.StyleLong {
				continue
			}
			if strings.HasPrefix(syn.PositiveFlag, prefix) {
				out = append(out, syn.PositiveFlag)
			}
			if syn.NegativeFlag != "" && strings.HasPrefix(syn.NegativeFlag, prefix) {
				out = append(out, syn.NegativeFlag)
			}
		}
	}
	return out
}

func enumSuggestions(a accept.Acceptor, text string) []string {
	values, ok := accept.EnumValues(a)
	if !ok {
		return nil
	}
	return suggest.For(text, values, SuggestMaxDistance)
}
