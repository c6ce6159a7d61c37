package flag

import "fmt"

// GroupKind is the cardinality constraint a flag group enforces at the end
// of a parse.
type GroupKind int

const (
	GroupBase GroupKind = iota
	GroupRequired
	GroupExactlyOne
	GroupAtMostOne
	GroupAtLeastOne
)

// Group is a named collection of flags with a cardinality constraint.
// Group index 0 on a tool is always the implicit base group.
type Group struct {
	Kind     GroupKind
	Name     string
	Desc     string
	LongDesc string
	Flags    []*Flag
}

// NewGroup builds a flag group of the given kind.
func NewGroup(kind GroupKind, name, desc, longDesc string) *Group {
	return &Group{Kind: kind, Name: name, Desc: desc, LongDesc: longDesc}
}

// Violation is a single cardinality-constraint failure, ready to be
// surfaced as a FlagGroupConstraintViolated usage error.
type Violation struct {
	Group   *Group
	Message string
	Missing []*Flag
}

// Validate checks this group's cardinality constraint against the set of
// flag keys seen during a parse, returning one Violation per distinct
// failure: the required kind reports one violation per missing flag
// (naming its display-name), every other kind reports at most one
// aggregate violation (cardinality is inherently a single fact about the
// whole group). Returns nil if satisfied.
func (g *Group) Validate(seenKeys map[string]bool) []*Violation {
	var present, missing []*Flag
	for _, f := range g.Flags {
		if seenKeys[f.Key] {
			present = append(present, f)
		} else {
			missing = append(missing, f)
		}
	}
	switch g.Kind {
	case GroupRequired:
		if len(missing) == 0 {
			return nil
		}
		violations := make([]*Violation, len(missing))
		for i, f := range missing {
			violations[i] = &Violation{Group: g, Missing: []*Flag{f}, Message: g.missingMessage(f)}
		}
		return violations
	case GroupExactlyOne:
		if len(present) != 1 {
			return []*Violation{{Group: g, Message: g.countMessage(len(present), "exactly one")}}
		}
	case GroupAtMostOne:
		if len(present) > 1 {
			return []*Violation{{Group: g, Message: g.countMessage(len(present), "at most one")}}
		}
	case GroupAtLeastOne:
		if len(present) < 1 {
			return []*Violation{{Group: g, Message: g.countMessage(len(present), "at least one")}}
		}
	}
	return nil
}

func (g *Group) missingMessage(f *Flag) string {
	return fmt.Sprintf("flag group %s requires %s to be set", g.label(), f.DisplayNameOrKey())
}

func (g *Group) countMessage(count int, want string) string {
	name := g.label()
	if count == 0 {
		return fmt.Sprintf("flag group %s requires %s flag to be provided, but none were provided", name, want)
	}
	return fmt.Sprintf("flag group %s requires %s flag to be provided, but %d were provided", name, want, count)
}

func (g *Group) label() string {
	if g.Name != "" {
		return fmt.Sprintf("%q", g.Name)
	}
	names := make([]string, 0, len(g.Flags))
	for _, f := range g.Flags {
		names = append(names, f.DisplayName)
	}
	return fmt.Sprintf("%v", names)
}
