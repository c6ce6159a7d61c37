// Package config loads kestrel's process-wide settings from a layered set
// of providers (defaults, environment, an optional YAML file), merged by
// koanf and held behind a Manager for hot-reload.
package config

// Settings is kestrel's full set of tunables: the loader's on-disk
// conventions, the git fetch cache, suggestion tuning, and logging.
type Settings struct {
	// IndexFileName is the script file, within a directory, that builds
	// that directory's own tool (loader.DirSource's "TOOLS.tool.go").
	IndexFileName string `koanf:"index_file_name" validate:"required"`
	// PreloadFileName, if present in a directory, is evaluated before any
	// tool in that directory is resolved (e.g. to register shared
	// acceptors/mixins).
	PreloadFileName string `koanf:"preload_file_name"`
	// DataDirName and LibDirName name the conventional data/lib
	// subdirectories a directory source recognizes alongside tool scripts.
	DataDirName string `koanf:"data_dir_name"`
	LibDirName  string `koanf:"lib_dir_name"`
	// GitCacheDir is where loader/gitsource materializes remote checkouts.
	GitCacheDir string `koanf:"git_cache_dir"`
	// SuggestionMaxEditDistance bounds near-miss suggestions for unknown
	// tool names (loader.Loader.SuggestToolNotFound). Flag and enum-value
	// suggestions in the parser use parse.SuggestMaxDistance instead.
	SuggestionMaxEditDistance int `koanf:"suggestion_max_edit_distance" validate:"min=0"`

	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn error disabled"`
	LogJSON   bool   `koanf:"log_json"`
	LogSource bool   `koanf:"log_source"`
}

// Default returns kestrel's built-in settings, used as the lowest-priority
// layer of every Manager.Load call.
func Default() *Settings {
	return &Settings{
		IndexFileName:             "TOOLS.tool.go",
		PreloadFileName:           "PRELOAD.tool.go",
		DataDirName:               ".data",
		LibDirName:                ".lib",
		GitCacheDir:               defaultGitCacheDir(),
		SuggestionMaxEditDistance: 2,
		LogLevel:                  "info",
		LogJSON:                   false,
		LogSource:                 false,
	}
}
