// Package config loads the process-wide site configuration.
//
// The configuration is read once at startup and treated as immutable for the
// lifetime of the process. Both YAML and the JSON site-config format are
// accepted since YAML is a superset of JSON.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Config is the site configuration.
type Config struct {
	Source  string        `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Site    SiteConfig    `yaml:"site"`
	Server  ServerConfig  `yaml:"server"`
	CSS     CSSConfig     `yaml:"css,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
	Editor  EditorConfig  `yaml:"editor,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// OutputConfig names the output root and the posts directory beneath it.
type OutputConfig struct {
	Main  string `yaml:"main"`
	Posts string `yaml:"posts"`
}

// SiteConfig describes where the site is published.
type SiteConfig struct {
	Root      string `yaml:"root"`
	Subfolder string `yaml:"subfolder,omitempty"`
	PWA       bool   `yaml:"pwa,omitempty"`
	// GitDates seeds post timestamps from git history instead of file mtimes.
	GitDates bool `yaml:"gitDates,omitempty"`
}

// ServerConfig configures the development server.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	ServeFrom string `yaml:"serveFrom"`
}

// CSSConfig configures stylesheet compilation and pruning.
type CSSConfig struct {
	Compiler  CompilerMode `yaml:"compiler,omitempty"`
	Whitelist []string     `yaml:"whitelist,omitempty"`
}

// WatchConfig configures the edit-time rebuild loop.
type WatchConfig struct {
	Debounce     Duration `yaml:"debounce,omitempty"`
	Ignore       []string `yaml:"ignore,omitempty"`
	RebuildEvery Duration `yaml:"rebuildEvery,omitempty"`
}

// EditorConfig configures the authoring endpoints.
type EditorConfig struct {
	Assets  string `yaml:"assets,omitempty"`
	Staging string `yaml:"staging,omitempty"`
}

// HistoryConfig configures the build-history store. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig configures build notifications. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"natsUrl,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LogConfig selects the log output format.
type LogConfig struct {
	Format LogFormat `yaml:"format,omitempty"`
}

// Duration is a time.Duration that unmarshals from strings like "750ms".
type Duration time.Duration

// UnmarshalYAML accepts Go duration strings and plain integers (milliseconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if ms, err := time.ParseDuration(raw + "ms"); err == nil && value.Tag == "!!int" {
		*d = Duration(ms)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration in Go notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration").WithContext("path", path).Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "decode configuration").Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.AlreadyExistsError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Config{
		Source: "src",
		Output: OutputConfig{Main: "build", Posts: "posts"},
		Site:   SiteConfig{Root: "https://example.com"},
		Server: ServerConfig{Port: 8080, ServeFrom: "build"},
		CSS:    CSSConfig{Compiler: CompilerAuto},
		Watch:  WatchConfig{Debounce: Duration(time.Second)},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration").WithContext("path", path).Build()
	}
	return nil
}
