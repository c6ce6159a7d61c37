package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"gopkg.in/yaml.v3"
)

// Provider is koanf's provider contract: something that can be read into a
// flat key/value map. Manager.Load merges providers in the order given,
// later providers overriding earlier ones.
type Provider interface {
	ReadBytes() ([]byte, error)
	Read() (map[string]any, error)
}

// NewDefaultProvider supplies Default() as the base configuration layer.
func NewDefaultProvider() Provider {
	return structs.Provider(*Default(), "koanf")
}

// NewEnvProvider reads KESTREL_-prefixed environment variables, e.g.
// KESTREL_LOG_LEVEL maps to the "log_level" key.
func NewEnvProvider() Provider {
	return koanfenv.Provider(".", koanfenv.Opt{
		Prefix: "KESTREL_",
		TransformFunc: func(k, v string) (string, any) {
			return envKeyToKoanf(k), v
		},
	})
}

func envKeyToKoanf(k string) string {
	k = k[len("KESTREL_"):]
	out := make([]byte, 0, len(k))
	for _, r := range k {
		if r >= 'A' && r <= 'Z' {
			out = append(out, byte(r-'A'+'a'))
		} else {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// yamlFileProvider is a small koanf.Provider reading a single YAML file, in
// place of a dedicated koanf file/yaml provider package (the teacher's own
// dependency set does not carry one; this is the minimal stdlib-plus-
// yaml.v3 substitute — see DESIGN.md).
type yamlFileProvider struct {
	path string
}

// NewYAMLProvider reads settings from a YAML file at path. A missing file
// reads as empty (not an error), so an optional config file can be passed
// unconditionally.
func NewYAMLProvider(path string) Provider {
	return &yamlFileProvider{path: path}
}

func (p *yamlFileProvider) ReadBytes() ([]byte, error) {
	b, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return b, err
}

func (p *yamlFileProvider) Read() (map[string]any, error) {
	b, err := p.ReadBytes()
	if err != nil || len(b) == 0 {
		return map[string]any{}, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// dotenvProvider overlays KESTREL_-prefixed entries from a .env file, for
// local dev runs that keep overrides out of the shell environment. A
// missing file reads as empty, same as yamlFileProvider, so it can be
// passed unconditionally.
type dotenvProvider struct {
	path string
}

// NewDotenvProvider reads KESTREL_-prefixed entries from a .env file at
// path (the same KEY=VALUE format godotenv.Load applies to the process
// environment), without mutating os.Environ.
func NewDotenvProvider(path string) Provider {
	return &dotenvProvider{path: path}
}

func (p *dotenvProvider) ReadBytes() ([]byte, error) {
	return os.ReadFile(p.path)
}

func (p *dotenvProvider) Read() (map[string]any, error) {
	env, err := godotenv.Read(p.path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for k, v := range env {
		if len(k) > len("KESTREL_") && k[:len("KESTREL_")] == "KESTREL_" {
			out[envKeyToKoanf(k)] = v
		}
	}
	return out, nil
}

func defaultGitCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".kestrel-cache/git"
	}
	return filepath.Join(dir, "kestrel", "git")
}
