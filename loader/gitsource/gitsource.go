// Package gitsource implements a loader.Source backed by a remote git
// checkout: a (remote, path, commit) triple is fetched once into a local
// cache directory, then served as an ordinary directory source.
package gitsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/compozy/kestrel/core/source"
	"github.com/compozy/kestrel/core/tool"
	"github.com/compozy/kestrel/core/toolerr"
	"github.com/compozy/kestrel/loader"
)

// Fetcher materializes a remote (remote, commit) pair into a local
// directory. The default implementation uses go-git; tests substitute a
// fake.
type Fetcher interface {
	Fetch(remote, commit, dest string) error
}

// goGitFetcher is the default Fetcher, backed by go-git/go-git/v5.
type goGitFetcher struct{}

func (goGitFetcher) Fetch(remote, commit, dest string) error {
	repo, err := git.PlainClone(dest, false, &git.CloneOptions{URL: remote})
	if err != nil && err != git.ErrRepositoryAlreadyExists {
		return err
	}
	if repo == nil {
		repo, err = git.PlainOpen(dest)
		if err != nil {
			return err
		}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(commit)})
}

// FetchLockTimeout bounds how long Source.ensure waits on another process
// (or goroutine) holding the cache lock for the same checkout.
const FetchLockTimeout = 30 * time.Second

// Source is a loader.Source that serves tools out of a remote git checkout,
// fetched lazily and cached under CacheDir.
type Source struct {
	mu sync.Mutex

	remote    string
	gitPath   string
	commit    string
	cacheDir  string
	priority  int
	fetcher   Fetcher
	fs        afero.Fs
	evaluator loader.ScriptEvaluator

	inner loader.Source
}

// New builds a git-backed source for (remote, path-within-repo, commit),
// caching the checkout under cacheDir. fetcher may be nil to use the
// default go-git-backed implementation. evaluator must be the same
// ScriptEvaluator the caller's scripts were registered against (typically
// the owning Loader's own Evaluator()) — a freshly fetched checkout's
// ".tool.go" files cannot be compiled and eval'd at runtime, so their
// builder closures must already be registered under the fetched paths
// before the first lookup reaches this source.
func New(remote, gitPath, commit, cacheDir string, priority int, fetcher Fetcher, evaluator loader.ScriptEvaluator) *Source {
	if fetcher == nil {
		fetcher = goGitFetcher{}
	}
	if evaluator == nil {
		evaluator = loader.NewGoBuilderEvaluator()
	}
	return &Source{
		remote:    remote,
		gitPath:   gitPath,
		commit:    commit,
		cacheDir:  cacheDir,
		priority:  priority,
		fetcher:   fetcher,
		fs:        afero.NewOsFs(),
		evaluator: evaluator,
	}
}

func (s *Source) Priority() int { return s.priority }

// checkoutDir is the on-disk path this (remote, commit) pair is cached
// under: one directory per distinct remote+commit, so distinct commits of
// the same remote never collide.
func (s *Source) checkoutDir() string {
	return filepath.Join(s.cacheDir, sanitize(s.remote), s.commit)
}

// ensure fetches the checkout if it is not already present, guarded by an
// on-disk flock so two processes racing on the same (remote, commit) don't
// corrupt a concurrent clone (spec.md §5's concurrency note, extended to
// the one piece of shared external state this subsystem touches).
func (s *Source) ensure() (*loader.DirSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inner != nil {
		return s.inner.(*loader.DirSource), nil
	}

	dest := s.checkoutDir()
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return nil, toolerr.New(err, toolerr.CodeSourceUnreadable, map[string]any{"cacheDir": s.cacheDir})
	}

	lockPath := dest + ".lock"
	fl := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), FetchLockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		return nil, toolerr.Newf(toolerr.CodeGitFetchFailed, "timed out acquiring git fetch lock for %s@%s", s.remote, s.commit)
	}
	defer fl.Unlock()

	if _, statErr := os.Stat(dest); os.IsNotExist(statErr) {
		if err := s.fetcher.Fetch(s.remote, s.commit, dest); err != nil {
			return nil, toolerr.New(err, toolerr.CodeGitFetchFailed, map[string]any{"remote": s.remote, "commit": s.commit})
		}
	}

	root := filepath.Join(dest, s.gitPath)
	info := source.RootGit(source.KindGitDirectory, s.remote, s.gitPath, s.commit, root, fmt.Sprintf("%s@%s", s.remote, s.commit), s.priority)
	dir := loader.NewDirSource(s.fs, root, s.priority, s.evaluator, info, nil)
	s.inner = dir
	return dir, nil
}

func (s *Source) Resolve(l *loader.Loader, words []string) (*tool.Tool, []string, bool, error) {
	dir, err := s.ensure()
	if err != nil {
		return nil, nil, false, err
	}
	return dir.Resolve(l, words)
}

func (s *Source) Names(prefix []string) ([]string, error) {
	dir, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return dir.Names(prefix)
}

func sanitize(remote string) string {
	out := make([]rune, 0, len(remote))
	for _, r := range remote {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
