// Package source defines Info, the record identifying where a tool
// definition came from: a filesystem path, an in-memory block, or a remote
// (git) path, with parent linkage for relative resolution.
package source

import "github.com/google/uuid"

// Kind enumerates the shapes a source can take.
type Kind int

const (
	// KindDirectory is a filesystem directory searched for index/child tools.
	KindDirectory Kind = iota
	// KindFile is a single filesystem tool-script file.
	KindFile
	// KindBlock is an in-memory definition supplied as a Go closure.
	KindBlock
	// KindGitDirectory is a directory fetched from a remote git path.
	KindGitDirectory
	// KindGitFile is a single file fetched from a remote git path.
	KindGitFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindBlock:
		return "block"
	case KindGitDirectory:
		return "git-directory"
	case KindGitFile:
		return "git-file"
	default:
		return "unknown"
	}
}

// IsGit reports whether the source was fetched from a remote git path.
func (k Kind) IsGit() bool {
	return k == KindGitDirectory || k == KindGitFile
}

// IsFilesystem reports whether the source has a local path (either native
// or the result of a git checkout).
func (k Kind) IsFilesystem() bool {
	return k == KindDirectory || k == KindFile || k.IsGit()
}

// Info is an immutable record of where a tool definition originated.
type Info struct {
	id   string
	kind Kind

	// Path holds the filesystem path for KindDirectory/KindFile, or the
	// local checkout path for git variants.
	Path string

	// Remote, GitPath, and Commit are populated for git variants.
	Remote  string
	GitPath string
	Commit  string

	// Name is a short, human-readable display string for this source.
	Name string

	// Parent is the source this one was derived from (e.g., a child
	// directory's parent directory, or a git checkout's root). Nil for a
	// root source.
	Parent *Info

	// Priority is the priority under which this source (and any tool it
	// contributes) was registered.
	Priority int

	// ContextDirectory is the resolved working directory tools from this
	// source should run relative to, or "" if unset (inherits from parent).
	ContextDirectory string

	// DataDirName and LibDirName are inherited naming conventions for the
	// data/lib subdirectories a directory source recognizes.
	DataDirName string
	LibDirName  string
}

// Root builds a new root Info (no parent).
func Root(kind Kind, path, name string, priority int) *Info {
	return &Info{
		id:          uuid.NewString(),
		kind:        kind,
		Path:        path,
		Name:        name,
		Priority:    priority,
		DataDirName: ".data",
		LibDirName:  ".lib",
	}
}

// RootGit builds a new root git Info.
func RootGit(kind Kind, remote, gitPath, commit, localPath, name string, priority int) *Info {
	info := Root(kind, localPath, name, priority)
	info.Remote = remote
	info.GitPath = gitPath
	info.Commit = commit
	return info
}

// Child derives a new Info for a nested path (a child file/directory),
// inheriting priority, data/lib dir names, and context directory unless
// overridden.
func (i *Info) Child(kind Kind, path, name string) *Info {
	child := &Info{
		id:               uuid.NewString(),
		kind:             kind,
		Path:             path,
		Name:             name,
		Parent:           i,
		Priority:         i.Priority,
		ContextDirectory: i.ContextDirectory,
		DataDirName:      i.DataDirName,
		LibDirName:       i.LibDirName,
		Remote:           i.Remote,
		GitPath:          i.GitPath,
		Commit:           i.Commit,
	}
	return child
}

// ID returns a stable identity for this source instance.
func (i *Info) ID() string {
	if i == nil {
		return ""
	}
	return i.id
}

// Kind returns the source's kind.
func (i *Info) Kind() Kind {
	if i == nil {
		return KindBlock
	}
	return i.kind
}

// EffectiveContextDirectory walks up the parent chain to find the nearest
// explicit context directory, defaulting to the Path of the nearest
// directory source (a file source's own path is never used).
func (i *Info) EffectiveContextDirectory() string {
	for cur := i; cur != nil; cur = cur.Parent {
		if cur.ContextDirectory != "" {
			return cur.ContextDirectory
		}
		if (cur.kind == KindDirectory || cur.kind == KindGitDirectory) && cur.Path != "" {
			return cur.Path
		}
	}
	return ""
}

// String renders a short description useful for error messages.
func (i *Info) String() string {
	if i == nil {
		return "<no source>"
	}
	if i.Name != "" {
		return i.Name
	}
	if i.kind.IsGit() {
		return i.Remote + ":" + i.GitPath + "@" + i.Commit
	}
	return i.Path
}
