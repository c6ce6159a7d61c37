// Package loader implements the Loader: priority-ordered, lazy, multi-source
// tool discovery and resolution.
package loader

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/spf13/afero"

	"github.com/compozy/kestrel/core/source"
	"github.com/compozy/kestrel/core/suggest"
	"github.com/compozy/kestrel/core/tool"
	"github.com/compozy/kestrel/core/toolerr"
	"github.com/compozy/kestrel/pkg/config"
)

// defaultExcludes mirrors the autoload discoverer's default ignore set,
// adapted to the loader's own script-file convention.
var defaultExcludes = []string{
	"**/.#*",
	"**/*~",
	"**/*.bak",
	"**/*.tmp",
}

// DefaultSuggestMaxDistance bounds edit-distance suggestions for
// ToolNotFound errors.
const DefaultSuggestMaxDistance = 2

// Loader discovers and resolves tools across a priority-ordered set of
// sources, building each lazily (only the path a lookup actually walks).
type Loader struct {
	mu sync.Mutex

	sources   []Source
	evaluator ScriptEvaluator
	finalized map[string]*tool.Tool

	// naming conventions applied to every DirSource registered after
	// Configure is called; empty fields fall back to DirSource's own
	// built-in defaults (see DirSource.WithNaming).
	indexFileName      string
	preloadFileName    string
	dataDirName        string
	libDirName         string
	suggestMaxDistance int
}

// New builds an empty Loader backed by a GoBuilderEvaluator.
func New() *Loader {
	return &Loader{
		evaluator: NewGoBuilderEvaluator(),
		finalized: make(map[string]*tool.Tool),
	}
}

// Evaluator exposes the loader's script evaluator, so callers can register
// builder closures for filesystem sources before calling AddPath.
func (l *Loader) Evaluator() *GoBuilderEvaluator {
	if ge, ok := l.evaluator.(*GoBuilderEvaluator); ok {
		return ge
	}
	return nil
}

// SetEvaluator overrides the loader's script evaluator.
func (l *Loader) SetEvaluator(e ScriptEvaluator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evaluator = e
}

// Configure applies cfg's loader-relevant settings — the index/preload
// file names, the data/lib directory names, and the suggestion edit-
// distance bound — to every DirSource registered by a subsequent AddPath
// call. Sources already added are unaffected. A nil cfg is a no-op.
func (l *Loader) Configure(cfg *config.Settings) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg == nil {
		return
	}
	l.indexFileName = cfg.IndexFileName
	l.preloadFileName = cfg.PreloadFileName
	l.dataDirName = cfg.DataDirName
	l.libDirName = cfg.LibDirName
	l.suggestMaxDistance = cfg.SuggestionMaxEditDistance
}

// AddPath registers a directory tree as a source, at priority (higher
// wins; ties favor whichever source was added first). excludes is
// combined with the loader's own default ignore patterns. The source's
// naming conventions (index/preload file names, data/lib directory
// names) come from the loader's Configure call, if any.
func (l *Loader) AddPath(fs afero.Fs, root string, priority int, excludes []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	info := source.Root(source.KindDirectory, root, root, priority)
	combined := make([]string, 0, len(defaultExcludes)+len(excludes))
	combined = append(combined, defaultExcludes...)
	combined = append(combined, excludes...)
	src := NewDirSource(fs, root, priority, l.evaluator, info, combined)
	src.WithNaming(l.indexFileName, l.preloadFileName, l.dataDirName, l.libDirName)
	l.insertSource(src)
}

// AddBlock registers a single in-memory tool tree built directly by fn.
func (l *Loader) AddBlock(fullName []string, fn BuilderFunc, priority int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	info := source.Root(source.KindBlock, "", strings.Join(fullName, " "), priority)
	l.insertSource(NewBlockSource(fullName, fn, priority, info))
}

// AddSource registers an arbitrary Source (used by loader/gitsource and by
// tests that supply a fake Source).
func (l *Loader) AddSource(src Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.insertSource(src)
}

// insertSource keeps l.sources sorted by descending priority, stable
// across equal priorities (first-added wins the tie).
func (l *Loader) insertSource(src Source) {
	l.sources = append(l.sources, src)
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() > l.sources[j].Priority()
	})
}

// Lookup resolves words against every source in priority order, returning
// the first (and therefore highest-priority) match along with the words
// left over after the resolved tool's own full name.
func (l *Loader) Lookup(words []string) (*tool.Tool, []string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookupLocked(words, nil)
}

// lookupLocked walks sources tier by tier (a tier being every source that
// shares the same priority). The first tier that resolves anything wins;
// within that tier, every resolving source's tool contributes its
// DefaultData to the first one resolved (first-added keeps precedence on a
// key collision, matching insertSource's tie-break), so same-priority
// sources that define overlapping tools compose instead of one silently
// shadowing the other.
// seen carries the delegation chain followed so far (nil at the top level).
func (l *Loader) lookupLocked(words []string, seen map[string]bool) (*tool.Tool, []string, error) {
	for i := 0; i < len(l.sources); {
		tierPriority := l.sources[i].Priority()
		var matched *tool.Tool
		var remaining []string
		for ; i < len(l.sources) && l.sources[i].Priority() == tierPriority; i++ {
			t, rem, ok, err := l.sources[i].Resolve(l, words)
			if err != nil {
				return nil, nil, toolerr.New(err, toolerr.CodeSourceUnreadable, map[string]any{"words": words})
			}
			if !ok {
				continue
			}
			if matched == nil {
				matched = t
				remaining = rem
				continue
			}
			if err := mergeDefaultData(matched, t); err != nil {
				return nil, nil, toolerr.New(err, toolerr.CodeSourceUnreadable, map[string]any{"words": words})
			}
		}
		if matched == nil {
			continue
		}
		if matched.TruncateLoadPath {
			if err := l.truncateLoadPath(tierPriority); err != nil {
				return nil, nil, err
			}
		}
		resolved, err := l.resolveDelegation(matched, remaining, seen)
		if err != nil {
			return nil, nil, err
		}
		return resolved, remaining, nil
	}
	return nil, nil, nil
}

// truncateLoadPath implements the truncate_load_path! directive
// (spec.md §4.1): once a tool with TruncateLoadPath set wins resolution at
// priority, every source below priority is dropped from further
// consideration. It is an error if a tool below priority was already
// materialized, since that tool's presence can no longer be explained by
// the (now truncated) worklist.
func (l *Loader) truncateLoadPath(priority int) error {
	for _, t := range l.finalized {
		if t.SourceInfo != nil && t.SourceInfo.Priority < priority {
			return toolerr.Newf(
				toolerr.CodeTruncateAfterLoad,
				"truncate_load_path! at priority %d but tool %v was already materialized at lower priority %d",
				priority, t.FullName, t.SourceInfo.Priority,
			)
		}
	}
	kept := make([]Source, 0, len(l.sources))
	for _, src := range l.sources {
		if src.Priority() >= priority {
			kept = append(kept, src)
		}
	}
	l.sources = kept
	return nil
}

// mergeDefaultData folds other's DefaultData into dst's, keeping any key
// dst already set.
func mergeDefaultData(dst, other *tool.Tool) error {
	if len(other.DefaultData) == 0 {
		return nil
	}
	if dst.DefaultData == nil {
		dst.DefaultData = make(map[string]any, len(other.DefaultData))
	}
	return mergo.Merge(&dst.DefaultData, other.DefaultData)
}

// resolveDelegation follows delegate_to chains, detecting cycles.
func (l *Loader) resolveDelegation(t *tool.Tool, remaining []string, seen map[string]bool) (*tool.Tool, error) {
	if !t.IsDelegate() {
		return t, nil
	}
	if seen == nil {
		seen = make(map[string]bool)
	}
	from := key(t.FullName)
	if seen[from] {
		return nil, toolerr.Newf(toolerr.CodeDelegationCycle, "delegation loop detected at %v", t.FullName)
	}
	seen[from] = true

	target, _, err := l.lookupLocked(t.DelegateTarget, seen)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, toolerr.Newf(toolerr.CodeDelegationNotFound, "delegation target %v not found", t.DelegateTarget)
	}
	return l.resolveDelegation(target, remaining, seen)
}

// ToolDefined reports whether fullName resolves to a tool with no leftover
// words (after following any delegation). Runnability is not checked: a
// directory namespace tool counts as defined.
func (l *Loader) ToolDefined(fullName []string) bool {
	t, remaining, err := l.Lookup(fullName)
	return err == nil && t != nil && len(remaining) == 0
}

// ActivateTool resolves fullName and returns its finalized Tool, caching
// the result so repeated activation is idempotent (spec.md §8 "lookup is
// idempotent for a given source configuration"). Guarded by the loader's
// mutex since activation may run a filesystem-backed builder closure.
func (l *Loader) ActivateTool(fullName []string) (*tool.Tool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key(fullName)
	if t, ok := l.finalized[k]; ok {
		return t, nil
	}
	t, remaining, err := l.lookupLocked(fullName, nil)
	if err != nil {
		return nil, err
	}
	if t == nil || len(remaining) != 0 {
		return nil, toolerr.Newf(toolerr.CodeDelegationNotFound, "no tool defined at %v", fullName)
	}
	l.finalized[k] = t
	return t, nil
}

// Reload clears any cached activation for fullName so the next
// ActivateTool call rebuilds it from its source.
func (l *Loader) Reload(fullName []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.finalized, key(fullName))
}

// ListSubtools lists the tool words directly nested under prefix, sorted
// lexicographically, merged (deduplicated) across every source.
func (l *Loader) ListSubtools(prefix []string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := make(map[string]bool)
	for _, src := range l.sources {
		names, err := src.Names(prefix)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			set[n] = true
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// SuggestToolNotFound ranks the nearest sibling subtool names for an
// unresolved trailing word, used by a caller (typically cmd/kestrel) to
// surface parse.UsageError's ToolNotFound suggestions.
func (l *Loader) SuggestToolNotFound(prefix []string, word string) []string {
	names, err := l.ListSubtools(prefix)
	if err != nil {
		return nil
	}
	max := DefaultSuggestMaxDistance
	if l.suggestMaxDistance > 0 {
		max = l.suggestMaxDistance
	}
	return suggest.For(word, names, max)
}

func key(words []string) string {
	return fmt.Sprintf("%v", words)
}
