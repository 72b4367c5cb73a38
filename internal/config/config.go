// Package config loads and validates the optional .launcher.yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the launcher configuration file.
const FileName = ".launcher.yaml"

// Default values for the launch sequence.
const (
	DefaultRuntimeName    = "Python"
	DefaultRuntimeCommand = "python"
	DefaultMinVersion     = "3.8"
	DefaultLibrary        = "ffpyplayer"
	DefaultManifest       = "requirements.txt"
	DefaultEntry          = "main.py"
	DefaultMaxOutput      = 64 << 10 // 64 KB
	DefaultHistoryDir     = ".launcher/runs"
	DefaultHistoryCache   = 5
	DefaultLogLevel       = "warn"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config holds the parsed .launcher.yaml configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int              `yaml:"version"`
	RawPause     *bool            `yaml:"pause"`      // nil means pause
	RawMaxOutput int              `yaml:"max_output"` // bytes
	Runtime      RuntimeConfig    `yaml:"runtime"`
	Dependency   DependencyConfig `yaml:"dependency"`
	App          AppConfig        `yaml:"app"`
	History      HistoryConfig    `yaml:"history"`
	Log          LogConfig        `yaml:"log"`
}

// RuntimeConfig describes the runtime that must be on PATH.
type RuntimeConfig struct {
	Name              string   `yaml:"name"`         // shown to the user, e.g. "Python"
	Command           string   `yaml:"command"`      // e.g. "python", "python3", "py"
	VersionArgs       []string `yaml:"version_args"` // default: [--version]
	MinVersion        string   `yaml:"min_version"`  // e.g. "3.8"
	EnforceMinVersion bool     `yaml:"enforce_min_version"`
}

// DependencyConfig describes the presence probe and the installer.
type DependencyConfig struct {
	Libraries []string `yaml:"libraries"` // default: [ffpyplayer]
	Probe     []string `yaml:"probe"`     // library name is appended; default: [pip show]
	Installer []string `yaml:"installer"` // manifest is appended; default: [pip install -r]
	Manifest  string   `yaml:"manifest"`  // default: requirements.txt
}

// AppConfig describes the target application.
type AppConfig struct {
	Entry   string   `yaml:"entry"`   // default: main.py
	Command []string `yaml:"command"` // default: [runtime.command, entry]
}

// HistoryConfig controls where run records are kept.
type HistoryConfig struct {
	Backend string `yaml:"backend"` // json, sqlite or none
	Dir     string `yaml:"dir"`     // relative to the app root
	Cache   int    `yaml:"cache"`   // in-memory LRU capacity
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Pause reports whether the launcher waits for acknowledgment before exiting.
func (c *Config) Pause() bool {
	if c.RawPause != nil {
		return *c.RawPause
	}
	return true
}

// MaxOutputBytes returns the configured probe output cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// RuntimeName returns the display name of the runtime.
func (c *Config) RuntimeName() string {
	if c.Runtime.Name != "" {
		return c.Runtime.Name
	}
	return DefaultRuntimeName
}

// RuntimeCommand returns the runtime executable name.
func (c *Config) RuntimeCommand() string {
	if c.Runtime.Command != "" {
		return c.Runtime.Command
	}
	return DefaultRuntimeCommand
}

// MinVersion returns the minimum runtime version named in messages.
func (c *Config) MinVersion() string {
	if c.Runtime.MinVersion != "" {
		return c.Runtime.MinVersion
	}
	return DefaultMinVersion
}

// RuntimeProbe returns the argv of the version query.
func (c *Config) RuntimeProbe() []string {
	args := c.Runtime.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}
	return append([]string{c.RuntimeCommand()}, args...)
}

// Libraries returns the libraries whose presence is probed.
func (c *Config) Libraries() []string {
	if len(c.Dependency.Libraries) > 0 {
		return c.Dependency.Libraries
	}
	return []string{DefaultLibrary}
}

// DependencyProbe returns the argv that checks whether library is installed.
func (c *Config) DependencyProbe(library string) []string {
	probe := c.Dependency.Probe
	if len(probe) == 0 {
		probe = []string{"pip", "show"}
	}
	argv := make([]string, 0, len(probe)+1)
	argv = append(argv, probe...)
	return append(argv, library)
}

// Manifest returns the dependency manifest file name.
func (c *Config) Manifest() string {
	if c.Dependency.Manifest != "" {
		return c.Dependency.Manifest
	}
	return DefaultManifest
}

// InstallCommand returns the installer argv, ending with the manifest.
func (c *Config) InstallCommand() []string {
	installer := c.Dependency.Installer
	if len(installer) == 0 {
		installer = []string{"pip", "install", "-r"}
	}
	argv := make([]string, 0, len(installer)+1)
	argv = append(argv, installer...)
	return append(argv, c.Manifest())
}

// Entry returns the application entry point.
func (c *Config) Entry() string {
	if c.App.Entry != "" {
		return c.App.Entry
	}
	return DefaultEntry
}

// AppCommand returns the argv that starts the application.
func (c *Config) AppCommand() []string {
	if len(c.App.Command) > 0 {
		return c.App.Command
	}
	return []string{c.RuntimeCommand(), c.Entry()}
}

// HistoryBackend returns the configured history backend, falling back to json.
func (c *Config) HistoryBackend() string {
	if c.History.Backend != "" {
		return c.History.Backend
	}
	return BackendJSON
}

// HistoryDir returns the history directory, resolved against root.
func (c *Config) HistoryDir(root string) string {
	dir := c.History.Dir
	if dir == "" {
		dir = DefaultHistoryDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// HistoryCache returns the in-memory run record cache capacity.
func (c *Config) HistoryCache() int {
	if c.History.Cache > 0 {
		return c.History.Cache
	}
	return DefaultHistoryCache
}

// LogLevel returns the configured log level, falling back to warn.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	switch c.HistoryBackend() {
	case BackendJSON, BackendSQLite, BackendNone:
	default:
		return fmt.Errorf("history.backend %q: want %s, %s or %s", c.History.Backend, BackendJSON, BackendSQLite, BackendNone)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	for _, lib := range c.Dependency.Libraries {
		if lib == "" {
			return fmt.Errorf("dependency.libraries contains an empty name")
		}
	}
	return nil
}

// LoadResult holds the parsed config and the discovered application root.
type LoadResult struct {
	Config  *Config
	AppRoot string // directory containing .launcher.yaml; falls back to workspace
	Path    string // config file path, empty when defaults are used
}

// Load reads .launcher.yaml from the application root.
// The root is discovered by walking upward from workspace looking for the
// config file. If none exists, a default Config is returned and workspace
// becomes the root.
func Load(workspace string) (*LoadResult, error) {
	root, err := findAppRoot(workspace)
	if err != nil {
		abs, absErr := filepath.Abs(workspace)
		if absErr != nil {
			return nil, fmt.Errorf("resolving workspace: %w", absErr)
		}
		return &LoadResult{Config: &Config{}, AppRoot: abs}, nil
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return &LoadResult{Config: cfg, AppRoot: root, Path: path}, nil
}

// findAppRoot walks upward from dir looking for a directory containing FileName.
func findAppRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", FileName)
		}
		dir = parent
	}
}
