package loader

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/compozy/kestrel/core/source"
	"github.com/compozy/kestrel/core/tool"
)

// scriptExtension is the on-disk marker extension a directory source
// recognizes as a buildable tool script. The file's content is never
// read; its full slash-separated path, extension included (see relKey),
// is the key the ScriptEvaluator is asked to resolve into a BuilderFunc (see
// DESIGN.md, "Script format").
const scriptExtension = ".tool.go"

// indexScriptName is the file, within a directory, that builds that
// directory's own tool (as opposed to one of its children).
const indexScriptName = "TOOLS" + scriptExtension

// defaultPreloadScriptName is the file, within a directory, evaluated for
// side effects (e.g. shared acceptor/mixin registration) before that
// directory's own index and children are built. A directory named the
// same but without scriptExtension is treated as a preload directory:
// every script file inside it is evaluated, in sorted order, the same way.
const defaultPreloadScriptName = "PRELOAD" + scriptExtension

// Source contributes tools to a Loader at a given priority.
type Source interface {
	Priority() int
	// Resolve attempts to build the tool at words (a prefix of arg words),
	// consuming as many leading words as it can turn into a nested
	// tool path. ok is false if this source has nothing at that path.
	Resolve(l *Loader, words []string) (t *tool.Tool, remaining []string, ok bool, err error)
	// Names lists the child tool words this source defines directly under
	// prefix, sorted ascending.
	Names(prefix []string) ([]string, error)
}

// DirSource discovers tools from a directory tree. Each subdirectory is a
// nested tool namespace; each "<word>.tool.go" file is a leaf tool named
// <word>; an "TOOLS.tool.go" file inside a directory builds that
// directory's own (non-leaf) tool.
type DirSource struct {
	fs        afero.Fs
	root      string
	priority  int
	evaluator ScriptEvaluator
	info      *source.Info
	excludes  []string

	indexName   string
	preloadName string
}

// NewDirSource builds a directory source rooted at root on fs.
func NewDirSource(fs afero.Fs, root string, priority int, evaluator ScriptEvaluator, info *source.Info, excludes []string) *DirSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &DirSource{
		fs:          fs,
		root:        root,
		priority:    priority,
		evaluator:   evaluator,
		info:        info,
		excludes:    excludes,
		indexName:   indexScriptName,
		preloadName: defaultPreloadScriptName,
	}
}

// WithNaming overrides this source's index/preload file names and the
// data/lib directory names recorded on its root source.Info, each only
// when non-empty (an empty argument keeps the built-in default). Returns
// d for chaining.
func (d *DirSource) WithNaming(indexName, preloadName, dataDirName, libDirName string) *DirSource {
	if indexName != "" {
		d.indexName = indexName
	}
	if preloadName != "" {
		d.preloadName = preloadName
	}
	if dataDirName != "" {
		d.info.DataDirName = dataDirName
	}
	if libDirName != "" {
		d.info.LibDirName = libDirName
	}
	return d
}

// preloadDirName is the directory form of the configured preload name:
// the same basename with scriptExtension stripped.
func (d *DirSource) preloadDirName() string {
	return strings.TrimSuffix(d.preloadName, scriptExtension)
}

func (d *DirSource) Priority() int { return d.priority }

func (d *DirSource) Resolve(l *Loader, words []string) (*tool.Tool, []string, bool, error) {
	dir := d.root
	info := d.info
	var built *tool.Tool
	consumed := 0

	if t, ok, err := d.buildAt(l, dir, info, nil, nil); err != nil {
		return nil, nil, false, err
	} else if ok {
		built = t
	}

	for _, w := range words {
		childDir := filepath.Join(dir, w)
		leafPath := filepath.Join(dir, w+scriptExtension)

		if ok, _ := afero.Exists(d.fs, leafPath); ok {
			fn, found := d.evaluator.Lookup(d.relKey(leafPath))
			if !found {
				break
			}
			child := tool.New(append(append([]string(nil), parentNames(built)...), w))
			child.Parent = built
			child.SourceInfo = info.Child(source.KindFile, leafPath, w)
			if err := fn(child, l); err != nil {
				return nil, nil, false, err
			}
			if err := child.FinishDefinition(); err != nil {
				return nil, nil, false, err
			}
			return child, words[consumed+1:], true, nil
		}

		if ok, _ := afero.DirExists(d.fs, childDir); ok {
			childInfo := info.Child(source.KindDirectory, childDir, w)
			childName := append(append([]string(nil), parentNames(built)...), w)
			t, found, err := d.buildAt(l, childDir, childInfo, built, childName)
			if err != nil {
				return nil, nil, false, err
			}
			if !found {
				t = tool.New(childName)
				t.Parent = built
				t.SourceInfo = childInfo
				if err := t.FinishDefinition(); err != nil {
					return nil, nil, false, err
				}
			}
			built = t
			dir = childDir
			info = childInfo
			consumed++
			continue
		}

		break
	}

	if built == nil {
		return nil, nil, false, nil
	}
	return built, words[consumed:], true, nil
}

func (d *DirSource) buildAt(l *Loader, dir string, info *source.Info, parent *tool.Tool, fullName []string) (*tool.Tool, bool, error) {
	preloadPath := filepath.Join(dir, d.preloadName)
	hasPreload, _ := afero.Exists(d.fs, preloadPath)

	indexPath := filepath.Join(dir, d.indexName)
	hasIndex, _ := afero.Exists(d.fs, indexPath)
	var indexFn BuilderFunc
	if hasIndex {
		indexFn, hasIndex = d.evaluator.Lookup(d.relKey(indexPath))
	}

	if !hasPreload && !hasIndex {
		return nil, false, nil
	}

	t := tool.New(fullName)
	t.Parent = parent
	t.SourceInfo = info

	if hasPreload {
		if err := d.runPreload(l, t, preloadPath); err != nil {
			return nil, false, err
		}
	}
	if hasIndex {
		if err := indexFn(t, l); err != nil {
			return nil, false, err
		}
	}
	return t, true, nil
}

// runPreload evaluates the preload step: a single script file is run
// directly against t; a preload directory has every script file inside
// it run against t, in sorted order. Either way, side effects (acceptors,
// completions, mixins, templates, default data) land on t, so children
// built beneath it inherit them via Tool.Parent ancestry.
func (d *DirSource) runPreload(l *Loader, t *tool.Tool, preloadPath string) error {
	if isDir, _ := afero.DirExists(d.fs, preloadPath); isDir {
		entries, err := afero.ReadDir(d.fs, preloadPath)
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), scriptExtension) {
				continue
			}
			p := filepath.Join(preloadPath, e.Name())
			fn, found := d.evaluator.Lookup(d.relKey(p))
			if !found {
				continue
			}
			if err := fn(t, l); err != nil {
				return err
			}
		}
		return nil
	}
	fn, found := d.evaluator.Lookup(d.relKey(preloadPath))
	if !found {
		return nil
	}
	return fn(t, l)
}

func (d *DirSource) Names(prefix []string) ([]string, error) {
	dir := filepath.Join(append([]string{d.root}, prefix...)...)
	entries, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		return nil, nil
	}
	preloadDirName := d.preloadDirName()
	set := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == preloadDirName {
			continue
		}
		if e.IsDir() {
			if d.isExcluded(filepath.Join(dir, name)) {
				continue
			}
			set[name] = true
			continue
		}
		if strings.HasSuffix(name, scriptExtension) && name != d.indexName && name != d.preloadName {
			set[strings.TrimSuffix(name, scriptExtension)] = true
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (d *DirSource) isExcluded(path string) bool {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range d.excludes {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// relKey is the ScriptEvaluator registry key for path: the full path
// (not stripped of its root) so that two distinct sources never collide
// over an identically-named script file in two different trees.
func (d *DirSource) relKey(path string) string {
	return filepath.ToSlash(path)
}

func parentNames(parent *tool.Tool) []string {
	if parent == nil {
		return nil
	}
	return parent.FullName
}

// BlockSource contributes a single in-memory tool tree built directly from
// a registered BuilderFunc, bypassing the filesystem entirely (the "block"
// source kind in spec.md §2).
type BlockSource struct {
	name     []string
	fn       BuilderFunc
	priority int
	info     *source.Info
}

// NewBlockSource builds a block source for fullName, built by fn.
func NewBlockSource(fullName []string, fn BuilderFunc, priority int, info *source.Info) *BlockSource {
	return &BlockSource{name: fullName, fn: fn, priority: priority, info: info}
}

func (b *BlockSource) Priority() int { return b.priority }

func (b *BlockSource) Resolve(l *Loader, words []string) (*tool.Tool, []string, bool, error) {
	if len(words) < len(b.name) {
		return nil, nil, false, nil
	}
	for i, w := range b.name {
		if words[i] != w {
			return nil, nil, false, nil
		}
	}
	t := tool.New(b.name)
	t.SourceInfo = b.info
	if err := b.fn(t, l); err != nil {
		return nil, nil, false, err
	}
	if err := t.FinishDefinition(); err != nil {
		return nil, nil, false, err
	}
	return t, words[len(b.name):], true, nil
}

func (b *BlockSource) Names(prefix []string) ([]string, error) {
	if len(prefix) >= len(b.name) {
		return nil, nil
	}
	for i, w := range prefix {
		if b.name[i] != w {
			return nil, nil
		}
	}
	return []string{b.name[len(prefix)]}, nil
}
