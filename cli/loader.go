package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/compozy/kestrel/loader"
	"github.com/compozy/kestrel/loader/gitsource"
	"github.com/compozy/kestrel/pkg/config"
)

// BuildLoader builds the Loader a run of kestrel resolves tools against: a
// directory source rooted at toolsDir, governed by cfg's naming
// conventions and suggestion tuning, plus an optional git-backed source
// when gitSpec is non-empty. The returned Loader starts with an empty
// Evaluator(): a ".tool.go" file under toolsDir is found only once a
// builder closure is registered there under its path (see
// loader.GoBuilderEvaluator); this process cannot compile and eval
// arbitrary ".tool.go" source at run time.
func BuildLoader(cfg *config.Settings, toolsDir, gitSpec string) (*loader.Loader, error) {
	l := loader.New()
	l.Configure(cfg)
	l.AddPath(afero.NewOsFs(), toolsDir, 0, nil)
	if gitSpec != "" {
		src, err := buildGitSource(cfg, gitSpec, l)
		if err != nil {
			return nil, err
		}
		l.AddSource(src)
	}
	return l, nil
}

// buildGitSource parses a "remote@commit[:path]" spec (the --tools-git
// global flag) into a loader/gitsource.Source, registered one tier below
// the local tools directory so a local definition always wins a conflict.
func buildGitSource(cfg *config.Settings, spec string, l *loader.Loader) (loader.Source, error) {
	remote, rest, ok := strings.Cut(spec, "@")
	if !ok {
		return nil, fmt.Errorf("kestrel: invalid --tools-git spec %q, want remote@commit[:path]", spec)
	}
	commit, path, _ := strings.Cut(rest, ":")
	return gitsource.New(remote, path, commit, cfg.GitCacheDir, -1, nil, l.Evaluator()), nil
}
