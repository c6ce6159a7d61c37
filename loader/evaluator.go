package loader

import (
	"sync"

	"github.com/compozy/kestrel/core/tool"
)

// BuilderFunc is a tool definition directive: it receives the
// tool-under-construction (and the owning Loader, so it may register
// nested child tools) and applies add_flag/add_required_arg/etc. calls to
// it. This is the Go-native substitute for an interpreted source-as-string
// script: definitions are registered Go closures, not parsed text (see
// DESIGN.md, "Script format").
type BuilderFunc func(t *tool.Tool, l *Loader) error

// ScriptEvaluator resolves a registered name to the BuilderFunc that
// builds a tool's definition. A DirSource locates candidate script files
// on disk (keyed by full slash-separated path, extension included) and asks
// the evaluator whether a builder is registered for that name; the file's
// on-disk presence is what makes the tool lazily discoverable, while its
// actual defining code lives in the evaluator's registry.
type ScriptEvaluator interface {
	Lookup(name string) (BuilderFunc, bool)
}

// GoBuilderEvaluator is the default ScriptEvaluator: an in-process
// registry of named builder closures, populated at init() time by the
// tools that want to be discoverable from a filesystem source.
type GoBuilderEvaluator struct {
	mu       sync.RWMutex
	builders map[string]BuilderFunc
}

// NewGoBuilderEvaluator builds an empty registry.
func NewGoBuilderEvaluator() *GoBuilderEvaluator {
	return &GoBuilderEvaluator{builders: make(map[string]BuilderFunc)}
}

// RegisterScript registers fn under name, overwriting any prior
// registration under the same name.
func (e *GoBuilderEvaluator) RegisterScript(name string, fn BuilderFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.builders[name] = fn
}

// Lookup implements ScriptEvaluator.
func (e *GoBuilderEvaluator) Lookup(name string) (BuilderFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.builders[name]
	return fn, ok
}
