// Package complete implements the Completion: a polymorphic producer of
// completion candidates for a fragment within a prefix context, with
// variants {empty, enum, filesystem, function}.
package complete

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Candidate is a single completion candidate. Partial means "no word break
// should be appended" (e.g., a directory that can be completed further).
type Candidate struct {
	Text    string
	Partial bool
}

// Context carries the information a Completion needs to produce
// candidates: the fragment being completed and the words already
// resolved ahead of it (the "prefix context").
type Context struct {
	Fragment string
	Prefix   []string
	Cwd      string
}

// Completion produces completion candidates for a Context.
type Completion interface {
	Complete(ctx Context) []Candidate
}

// Func adapts a plain function to the Completion interface.
type Func func(ctx Context) []Candidate

func (f Func) Complete(ctx Context) []Candidate { return f(ctx) }

// Empty always yields no candidates.
func Empty() Completion {
	return Func(func(Context) []Candidate { return nil })
}

// PrefixConstraint filters which prefix contexts an Enum completion
// applies to. It returns false to suppress all candidates.
type PrefixConstraint func(prefix []string) bool

type enumCompletion struct {
	values     []string
	constraint PrefixConstraint
}

// Enum yields every value beginning with the fragment. If constraint is
// non-nil and returns false for the given prefix, no candidates are
// produced.
func Enum(constraint PrefixConstraint, values ...string) Completion {
	return enumCompletion{values: values, constraint: constraint}
}

func (e enumCompletion) Complete(ctx Context) []Candidate {
	if e.constraint != nil && !e.constraint(ctx.Prefix) {
		return nil
	}
	var out []Candidate
	for _, v := range e.values {
		if strings.HasPrefix(v, ctx.Fragment) {
			out = append(out, Candidate{Text: v})
		}
	}
	return out
}

type filesystemCompletion struct {
	fs                       afero.Fs
	includeFiles, includeDirs bool
}

// Filesystem yields filesystem entries under the fragment's directory that
// match the fragment's base name as a prefix. Directories are marked
// Partial so a shell does not append a trailing space.
func Filesystem(fs afero.Fs, includeFiles, includeDirs bool) Completion {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return filesystemCompletion{fs: fs, includeFiles: includeFiles, includeDirs: includeDirs}
}

func (f filesystemCompletion) Complete(ctx Context) []Candidate {
	dir := filepath.Dir(ctx.Fragment)
	base := filepath.Base(ctx.Fragment)
	if ctx.Fragment == "" || strings.HasSuffix(ctx.Fragment, "/") {
		dir = ctx.Fragment
		base = ""
	}
	searchDir := dir
	if !filepath.IsAbs(searchDir) && ctx.Cwd != "" {
		searchDir = filepath.Join(ctx.Cwd, dir)
	}
	entries, err := afero.ReadDir(f.fs, searchDir)
	if err != nil {
		return nil
	}
	var out []Candidate
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), base) {
			continue
		}
		if entry.IsDir() {
			if !f.includeDirs {
				continue
			}
			out = append(out, Candidate{Text: joinFragmentDir(dir, entry.Name()), Partial: true})
			continue
		}
		if !f.includeFiles {
			continue
		}
		out = append(out, Candidate{Text: joinFragmentDir(dir, entry.Name())})
	}
	return out
}

func joinFragmentDir(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
