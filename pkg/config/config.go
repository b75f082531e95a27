package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/errors"
)

// appName names the directory under the XDG config home.
const appName = "snaplink"

// Config holds snaplink configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Render    RenderConfig    `toml:"render"`
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Script    ScriptConfig    `toml:"script"`
	Blocks    BlocksConfig    `toml:"blocks"`
	Events    EventsConfig    `toml:"events"`
}

// WorkspaceConfig controls snapping.
type WorkspaceConfig struct {
	SnapRadius           float64 `toml:"snap_radius"`
	ConnectingSnapRadius float64 `toml:"connecting_snap_radius"`
	RTL                  bool    `toml:"rtl"`
}

// RenderConfig controls the reference layout.
type RenderConfig struct {
	FontSize  float64 `toml:"font_size"`
	Padding   float64 `toml:"padding"`
	RowHeight float64 `toml:"row_height"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// ServerConfig controls `snaplink serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// ScriptConfig controls user validator scripts.
type ScriptConfig struct {
	Timeout time.Duration `toml:"timeout"`
}

// BlocksConfig lists extra block definition files loaded after the
// built-in library.
type BlocksConfig struct {
	Definitions []string `toml:"definitions"`
}

// EventsConfig selects event sinks. Every sink with an address is used.
type EventsConfig struct {
	File  string      `toml:"file"`
	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// RedisConfig configures the Redis stream sink.
type RedisConfig struct {
	Addr   string `toml:"addr"`
	DB     int    `toml:"db"`
	Stream string `toml:"stream"`
	MaxLen int64  `toml:"max_len"`
}

// MongoConfig configures the MongoDB sink.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{SnapRadius: 28, ConnectingSnapRadius: 48},
		Render:    RenderConfig{FontSize: 11, Padding: 6, RowHeight: 24},
		Log:       LogConfig{Level: "info"},
		Server:    ServerConfig{Addr: "127.0.0.1:8080"},
		Script:    ScriptConfig{Timeout: 100 * time.Millisecond},
		Events: EventsConfig{
			Redis: RedisConfig{Stream: "snaplink:events"},
			Mongo: MongoConfig{Database: "snaplink", Collection: "events"},
		},
	}
}

// Dir returns the snaplink config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path over the defaults. An empty path
// means [Path]. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. An empty path
// means [Path].
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(Default(), path)
}

// Validate checks values the defaults cannot repair.
func (c *Config) Validate() error {
	if c.Workspace.SnapRadius <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workspace.snap_radius must be positive, got %v", c.Workspace.SnapRadius)
	}
	if c.Workspace.ConnectingSnapRadius < c.Workspace.SnapRadius {
		return errors.New(errors.ErrCodeInvalidInput, "workspace.connecting_snap_radius (%v) is smaller than snap_radius (%v)",
			c.Workspace.ConnectingSnapRadius, c.Workspace.SnapRadius)
	}
	if c.Script.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "script.timeout must not be negative")
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		return err
	}
	return nil
}

// ParseLevel returns the configured log level.
func (l LogConfig) ParseLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(l.Level)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "log.level")
	}
	return lvl, nil
}
