// Package config loads the TOML-backed Config struct that parameterizes
// cmd/ctxopt and internal/mcpserver, the way the teacher's
// internal/config/config.go + kdl_config.go load and merge a file-backed
// Config — here with github.com/pelletier/go-toml/v2 in place of KDL
// (see DESIGN.md for why the second config-format dependency was
// dropped) and fields grouped around this system's components instead
// of an indexer's.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level, file-backed configuration for one ctxopt
// process. Zero value is a usable default (see Default()).
type Config struct {
	Version  int      `toml:"version"`
	Project  Project  `toml:"project"`
	Cache    Cache    `toml:"cache"`
	Pipeline Pipeline `toml:"pipeline"`
	Server   Server   `toml:"server"`
	Session  Session  `toml:"session"`
}

// Project identifies the working tree ctxopt is operating against.
type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

// Cache configures the smart cache (§4.H). MaxEntries sets its capacity;
// TTLSeconds is not read (the AST tools use a fixed TTL).
type Cache struct {
	MaxEntries int `toml:"max_entries"`
	TTLSeconds int `toml:"ttl_seconds"`
}

// Pipeline holds pipeline settings (§4.E). No code reads them: the
// stage table is fixed and the diff compressor uses its own 2000-token
// budget.
type Pipeline struct {
	DefaultTokenBudget int `toml:"default_token_budget"`
	MaxStages          int `toml:"max_stages"`
}

// Server holds the MCP stdio surface's identity (§6). It is not read:
// mcpserver.NewServer uses a fixed name and version.
type Server struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Session holds per-session accumulator settings (§4.I). It is not read:
// the command log is capped by the session.MaxCommandLog constant.
type Session struct {
	MaxCommandLog int `toml:"max_command_log"`
}

// Default returns the built-in configuration used when no config file
// is present, mirroring the teacher's Load's all-defaults fallback
// branch.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Version: 1,
		Project: Project{
			Root: cwd,
		},
		Cache: Cache{
			MaxEntries: 256,
			TTLSeconds: 300,
		},
		Pipeline: Pipeline{
			DefaultTokenBudget: 4000,
			MaxStages:          4,
		},
		Server: Server{
			Name:    "ctxopt-mcp-server",
			Version: "0.1.0",
		},
		Session: Session{
			MaxCommandLog: 500,
		},
	}
}

// Load reads and parses the TOML config file at path, layering it over
// Default() so an omitted section keeps its built-in value. A missing
// file is not an error — it returns Default() unchanged, the same as
// the teacher falling through to its default-config branch when no
// .lci.kdl is found.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadWithRoot is Load, but when path is the default config filename it
// is first resolved relative to rootDir — the same root-relative
// lookup the teacher's loadConfigWithOverrides performs before calling
// config.Load.
func LoadWithRoot(path, rootDir string) (*Config, error) {
	if rootDir != "" && path == DefaultFileName {
		path = filepath.Join(rootDir, DefaultFileName)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if rootDir != "" {
		abs, err := filepath.Abs(rootDir)
		if err != nil {
			return nil, fmt.Errorf("config: resolve root %q: %w", rootDir, err)
		}
		cfg.Project.Root = abs
	}
	return cfg, nil
}

// DefaultFileName is the config file cmd/ctxopt looks for in the
// current or --root directory when --config is not given.
const DefaultFileName = ".ctxopt.toml"
