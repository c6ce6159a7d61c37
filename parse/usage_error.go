// Package parse implements the Argument Parser: a stateful, multi-pass
// consumer of a token vector against a finished tool.Tool.
package parse

import "fmt"

// Kind enumerates the usage-error taxonomy from spec.md §7.
type Kind int

const (
	KindUnknownFlag Kind = iota
	KindAmbiguousFlag
	KindFlagMissingValue
	KindFlagShouldNotTakeValue
	KindInvalidFlagValue
	KindInvalidArgumentValue
	KindMissingRequiredArgument
	KindExtraArguments
	KindToolNotFound
	KindFlagGroupConstraintViolated
)

func (k Kind) String() string {
	switch k {
	case KindUnknownFlag:
		return "UnknownFlag"
	case KindAmbiguousFlag:
		return "AmbiguousFlag"
	case KindFlagMissingValue:
		return "FlagMissingValue"
	case KindFlagShouldNotTakeValue:
		return "FlagShouldNotTakeValue"
	case KindInvalidFlagValue:
		return "InvalidFlagValue"
	case KindInvalidArgumentValue:
		return "InvalidArgumentValue"
	case KindMissingRequiredArgument:
		return "MissingRequiredArgument"
	case KindExtraArguments:
		return "ExtraArguments"
	case KindToolNotFound:
		return "ToolNotFound"
	case KindFlagGroupConstraintViolated:
		return "FlagGroupConstraintViolated"
	default:
		return "Unknown"
	}
}

// UsageError is a single accumulated parse failure. It never short-circuits
// a parse; the parser appends it and continues (see spec.md §7).
type UsageError struct {
	Kind        Kind
	Message     string
	Suggestions []string

	FlagName    string
	Candidates  []string
	DisplayName string
	Token       string
	FullName    []string
}

func (e *UsageError) Error() string { return e.Message }

// MessageText and SuggestionList are method accessors for the
// Message/Suggestions struct fields above, named so they do not collide
// with those fields.
func (e *UsageError) MessageText() string       { return e.Message }
func (e *UsageError) SuggestionList() []string { return e.Suggestions }

func newUnknownFlag(name string, suggestions []string) *UsageError {
	msg := fmt.Sprintf("unknown flag %q", name)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}
	return &UsageError{Kind: KindUnknownFlag, Message: msg, FlagName: name, Suggestions: suggestions}
}

func newAmbiguousFlag(name string, candidates []string) *UsageError {
	return &UsageError{
		Kind:       KindAmbiguousFlag,
		Message:    fmt.Sprintf("ambiguous flag %q matches %v", name, candidates),
		FlagName:   name,
		Candidates: candidates,
	}
}

func newFlagMissingValue(displayName string) *UsageError {
	return &UsageError{
		Kind:        KindFlagMissingValue,
		Message:     fmt.Sprintf("flag %s requires a value", displayName),
		DisplayName: displayName,
	}
}

func newFlagShouldNotTakeValue(displayName string) *UsageError {
	return &UsageError{
		Kind:        KindFlagShouldNotTakeValue,
		Message:     fmt.Sprintf("flag %s does not take a value", displayName),
		DisplayName: displayName,
	}
}

func newInvalidFlagValue(displayName, token string, suggestions []string) *UsageError {
	msg := fmt.Sprintf("invalid value %q for flag %s", token, displayName)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}
	return &UsageError{
		Kind:        KindInvalidFlagValue,
		Message:     msg,
		DisplayName: displayName,
		Token:       token,
		Suggestions: suggestions,
	}
}

func newInvalidArgumentValue(displayName, token string, suggestions []string) *UsageError {
	msg := fmt.Sprintf("invalid value %q for argument %s", token, displayName)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}
	return &UsageError{
		Kind:        KindInvalidArgumentValue,
		Message:     msg,
		DisplayName: displayName,
		Token:       token,
		Suggestions: suggestions,
	}
}

func newMissingRequiredArgument(displayName string) *UsageError {
	return &UsageError{
		Kind:        KindMissingRequiredArgument,
		Message:     fmt.Sprintf("missing required argument %s", displayName),
		DisplayName: displayName,
	}
}

func newExtraArguments(tokens []string) *UsageError {
	return &UsageError{
		Kind:    KindExtraArguments,
		Message: fmt.Sprintf("unexpected extra arguments: %v", tokens),
		Token:   fmt.Sprint(tokens),
	}
}

func newToolNotFound(fullName []string, suggestions []string) *UsageError {
	msg := fmt.Sprintf("no such tool: %v", fullName)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}
	return &UsageError{
		Kind:        KindToolNotFound,
		Message:     msg,
		FullName:    fullName,
		Suggestions: suggestions,
	}
}

func newFlagGroupConstraintViolated(message string) *UsageError {
	return &UsageError{Kind: KindFlagGroupConstraintViolated, Message: message}
}
