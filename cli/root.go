// Package cli wires the Loader, Argument Parser, and ambient config/logger
// packages into a single process entrypoint.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/compozy/kestrel/core/tool"
	"github.com/compozy/kestrel/loader"
	"github.com/compozy/kestrel/parse"
	"github.com/compozy/kestrel/pkg/config"
	"github.com/compozy/kestrel/pkg/logger"
)

// RootCmd builds the top-level cobra command. Unlike a conventional cobra
// tree, subcommands are not registered statically: RootCmd disables
// cobra's own flag parsing and hands every remaining argument to a
// loader.Loader + parse.Parser pair, since the whole point of this
// project is that the tool tree is discovered at run time, not declared
// as a fixed set of cobra.Command values.
func RootCmd() *cobra.Command {
	var configFile, toolsDir, toolsGit string
	root := &cobra.Command{
		Use:                "kestrel [tool...] [flags]",
		Short:              "kestrel runs composable, hierarchical command-line tools",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, cf, td, tg := splitGlobalFlags(os.Args[1:])
			if cf != "" {
				configFile = cf
			}
			if td != "" {
				toolsDir = td
			}
			if tg != "" {
				toolsGit = tg
			}
			return runArgs(cmd.Context(), configFile, toolsDir, toolsGit, args)
		},
	}
	root.Flags().StringVar(&configFile, "config", "", "path to a kestrel config file")
	root.Flags().StringVar(&toolsDir, "tools-dir", "tools", "root directory searched for tool definitions")
	root.Flags().StringVar(&toolsGit, "tools-git", "", "remote@commit[:path] git source, searched below --tools-dir")
	return root
}

// splitGlobalFlags pulls --config/--tools-dir/--tools-git out of a raw
// argv, since DisableFlagParsing means cobra never does this for us;
// every other token is left untouched for the Parser to consume.
func splitGlobalFlags(argv []string) (rest []string, configFile, toolsDir, toolsGit string) {
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--config":
			if i+1 < len(argv) {
				configFile = argv[i+1]
				i++
			}
		case "--tools-dir":
			if i+1 < len(argv) {
				toolsDir = argv[i+1]
				i++
			}
		case "--tools-git":
			if i+1 < len(argv) {
				toolsGit = argv[i+1]
				i++
			}
		default:
			rest = append(rest, argv[i])
		}
	}
	return rest, configFile, toolsDir, toolsGit
}

// runArgs loads configuration, builds a Loader rooted at toolsDir,
// resolves args against it, parses the remainder, and runs the resolved
// tool.
func runArgs(ctx context.Context, configFile, toolsDir, toolsGit string, args []string) error {
	cfg, ctx, err := setupConfigAndLogger(ctx, configFile)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)

	l, err := BuildLoader(cfg, toolsDir, toolsGit)
	if err != nil {
		return err
	}

	t, remaining, err := l.Lookup(args)
	if err != nil {
		return fmt.Errorf("kestrel: %w", err)
	}
	if t == nil {
		suggestions := l.SuggestToolNotFound(nil, firstOrEmpty(args))
		return newToolNotFoundError(args, suggestions)
	}

	p := parse.New(t)
	p.Parse(remaining)
	if errs := p.Finish(); len(errs) > 0 {
		return reportUsageErrors(t, errs)
	}

	runCtx := tool.NewContextFromParsed(ctx, t, p.Data(), p.ParsedArgs())
	if t.RunHandler == nil {
		return fmt.Errorf("kestrel: tool %v has no run handler", t.FullName)
	}
	if err := t.RunHandler(runCtx); err != nil {
		log.Error("tool run failed", "tool", t.FullName, "error", err)
		return err
	}
	return nil
}

func setupConfigAndLogger(ctx context.Context, configFile string) (*config.Settings, context.Context, error) {
	mgr := config.NewManager(nil)
	providers := []config.Provider{
		config.NewDefaultProvider(),
		config.NewDotenvProvider(".env"),
		config.NewEnvProvider(),
	}
	if configFile != "" {
		providers = append(providers, config.NewYAMLProvider(configFile))
	}
	cfg, err := mgr.Load(ctx, providers...)
	if err != nil {
		return nil, ctx, fmt.Errorf("kestrel: loading config: %w", err)
	}
	ctx = config.ContextWithManager(ctx, mgr)
	log := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		Output:     os.Stderr,
		JSON:       cfg.LogJSON,
		AddSource:  cfg.LogSource,
		TimeFormat: "15:04:05",
	})
	ctx = logger.ContextWithLogger(ctx, log)
	return cfg, ctx, nil
}

func firstOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newToolNotFoundError(args []string, suggestions []string) error {
	msg := fmt.Sprintf("no such tool: %v", args)
	if len(suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}
	return fmt.Errorf("%s", msg)
}

func reportUsageErrors(t *tool.Tool, usageErrs []*parse.UsageError) error {
	errs := make([]error, len(usageErrs))
	for i, e := range usageErrs {
		errs[i] = e
	}
	if t.UsageErrorHandler != nil {
		ctx := tool.NewContext(context.Background(), t, nil)
		return t.UsageErrorHandler(ctx, errs)
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, "error:", e)
	}
	return errs[0]
}
