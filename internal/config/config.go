package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/braint-ru/catalog/internal/errors"
)

// Index profiles.
const (
	// ProfileWatch keeps a short TTL and relies on the change watcher.
	ProfileWatch = "watch"
	// ProfileStatic keeps a long TTL for content that rarely changes. The
	// watcher stays on and the TTL only bounds staleness if an event is missed.
	ProfileStatic = "static"
)

// Project config file names, in lookup order.
var projectConfigNames = []string{"catalog.yaml", "catalog.yml"}

// Config represents the complete catalog configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Content ContentConfig `yaml:"content" json:"content"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ContentConfig locates the content items.
type ContentConfig struct {
	Dir        string `yaml:"dir" json:"dir"`
	Extension  string `yaml:"extension" json:"extension"`
	PathPrefix string `yaml:"path_prefix" json:"path_prefix"`
}

// IndexConfig controls how long a loaded record set stays fresh.
// An explicit TTL wins over the profile; "0" disables age expiry.
type IndexConfig struct {
	Profile string `yaml:"profile" json:"profile"`
	TTL     string `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// SearchConfig configures limits and ranking weights.
type SearchConfig struct {
	DefaultLimit int           `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int           `yaml:"max_limit" json:"max_limit"`
	Weights      WeightsConfig `yaml:"weights" json:"weights"`
}

// WeightsConfig holds per-field ranking weights. Nil means "not set", so a
// file can set a weight to 0 explicitly.
type WeightsConfig struct {
	Title    *float64 `yaml:"title,omitempty" json:"title,omitempty"`
	Aliases  *float64 `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Tags     *float64 `yaml:"tags,omitempty" json:"tags,omitempty"`
	Category *float64 `yaml:"category,omitempty" json:"category,omitempty"`
	ID       *float64 `yaml:"id,omitempty" json:"id,omitempty"`
	Phrase   *float64 `yaml:"phrase,omitempty" json:"phrase,omitempty"`
}

// CacheConfig configures the query result cache.
type CacheConfig struct {
	TTL  string `yaml:"ttl" json:"ttl"`
	Size int    `yaml:"size" json:"size"`
}

// WatchConfig configures the change watcher. Enabled is nil until set by a
// file, the environment or the index profile.
type WatchConfig struct {
	Enabled      *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Debounce     string `yaml:"debounce" json:"debounce"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
	ForcePolling bool   `yaml:"force_polling" json:"force_polling"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	// RateLimit is requests per second across the process; 0 disables.
	RateLimit    float64 `yaml:"rate_limit" json:"rate_limit"`
	RateBurst    int     `yaml:"rate_burst" json:"rate_burst"`
	ReadTimeout  string  `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout string  `yaml:"write_timeout" json:"write_timeout"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
}

// profileDefaults are the TTL and watcher setting each profile implies.
var profileDefaults = map[string]struct {
	ttl   string
	watch bool
}{
	ProfileWatch:  {ttl: "30s", watch: true},
	ProfileStatic: {ttl: "1h", watch: true},
}

// NewConfig creates a new Config with sensible defaults. Index TTL and
// watcher enablement are left unset and resolved from the profile in Load.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Content: ContentConfig{
			Dir:        "public/articles",
			Extension:  ".mdx",
			PathPrefix: "/articles",
		},
		Index: IndexConfig{
			Profile: ProfileWatch,
		},
		Search: SearchConfig{
			DefaultLimit: 5,
			MaxLimit:     50,
			Weights: WeightsConfig{
				Title:    float64Ptr(3),
				Aliases:  float64Ptr(3),
				Tags:     float64Ptr(1),
				Category: float64Ptr(1),
				ID:       float64Ptr(1),
				Phrase:   float64Ptr(2),
			},
		},
		Cache: CacheConfig{
			TTL:  "10m",
			Size: 1000,
		},
		Watch: WatchConfig{
			Debounce:     "200ms",
			PollInterval: "5s",
		},
		Server: ServerConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit:      50,
			RateBurst:      100,
			ReadTimeout:    "10s",
			WriteTimeout:   "10s",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/catalog/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/catalog/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "catalog", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "catalog", "config.yaml")
	}
	return filepath.Join(home, ".config", "catalog", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var cfg Config
	if err := readYAML(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return &cfg, nil
}

// FindProjectConfig returns the project config file inside dir, or "" when
// there is none. catalog.yaml takes precedence over catalog.yml.
func FindProjectConfig(dir string) string {
	for _, name := range projectConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// Load loads configuration for the given working directory. It applies
// configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/catalog/config.yaml)
//  3. Project config (catalog.yaml in dir, or explicitPath when non-empty)
//  4. Environment variables (CATALOG_*)
//
// Settings still unset afterwards are filled from the index profile, and the
// result is validated.
func Load(dir, explicitPath string) (*Config, error) {
	cfg := NewConfig()

	userCfg, err := loadUserConfig()
	if err != nil {
		return nil, cerrors.ConfigError("failed to load user config", err)
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	projectPath := explicitPath
	if projectPath == "" {
		projectPath = FindProjectConfig(dir)
	} else if !fileExists(projectPath) {
		return nil, cerrors.New(cerrors.ErrCodeConfigNotFound, "config file not found",
			fmt.Errorf("%s: %w", projectPath, os.ErrNotExist)).WithDetail("path", projectPath)
	}
	if projectPath != "" {
		var projectCfg Config
		if err := readYAML(projectPath, &projectCfg); err != nil {
			return nil, cerrors.ConfigError("failed to load project config", err).
				WithDetail("path", projectPath)
		}
		cfg.mergeWith(&projectCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, cerrors.ConfigError("invalid environment override", err)
	}

	cfg.applyProfile()

	if err := cfg.Validate(); err != nil {
		return nil, cerrors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// readYAML reads path into out, rejecting unknown keys.
func readYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty file
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Content
	mergeString(&c.Content.Dir, other.Content.Dir)
	mergeString(&c.Content.Extension, other.Content.Extension)
	mergeString(&c.Content.PathPrefix, other.Content.PathPrefix)

	// Index
	mergeString(&c.Index.Profile, other.Index.Profile)
	mergeString(&c.Index.TTL, other.Index.TTL)

	// Search
	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.MaxLimit != 0 {
		c.Search.MaxLimit = other.Search.MaxLimit
	}
	mergeFloat(&c.Search.Weights.Title, other.Search.Weights.Title)
	mergeFloat(&c.Search.Weights.Aliases, other.Search.Weights.Aliases)
	mergeFloat(&c.Search.Weights.Tags, other.Search.Weights.Tags)
	mergeFloat(&c.Search.Weights.Category, other.Search.Weights.Category)
	mergeFloat(&c.Search.Weights.ID, other.Search.Weights.ID)
	mergeFloat(&c.Search.Weights.Phrase, other.Search.Weights.Phrase)

	// Cache
	mergeString(&c.Cache.TTL, other.Cache.TTL)
	if other.Cache.Size != 0 {
		c.Cache.Size = other.Cache.Size
	}

	// Watch
	if other.Watch.Enabled != nil {
		v := *other.Watch.Enabled
		c.Watch.Enabled = &v
	}
	mergeString(&c.Watch.Debounce, other.Watch.Debounce)
	mergeString(&c.Watch.PollInterval, other.Watch.PollInterval)
	if other.Watch.ForcePolling {
		c.Watch.ForcePolling = true
	}

	// Server
	mergeString(&c.Server.Addr, other.Server.Addr)
	if len(other.Server.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = other.Server.AllowedOrigins
	}
	if other.Server.RateLimit != 0 {
		c.Server.RateLimit = other.Server.RateLimit
	}
	if other.Server.RateBurst != 0 {
		c.Server.RateBurst = other.Server.RateBurst
	}
	mergeString(&c.Server.ReadTimeout, other.Server.ReadTimeout)
	mergeString(&c.Server.WriteTimeout, other.Server.WriteTimeout)

	// Logging
	mergeString(&c.Logging.Level, other.Logging.Level)
	mergeString(&c.Logging.Format, other.Logging.Format)
	mergeString(&c.Logging.File, other.Logging.File)
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxBackups != 0 {
		c.Logging.MaxBackups = other.Logging.MaxBackups
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeFloat(dst **float64, v *float64) {
	if v != nil {
		x := *v
		*dst = &x
	}
}

// applyEnvOverrides applies CATALOG_* environment variable overrides.
// Empty variables are ignored.
func (c *Config) applyEnvOverrides() error {
	strVars := map[string]*string{
		"CATALOG_CONTENT_DIR":      &c.Content.Dir,
		"CATALOG_CONTENT_EXT":      &c.Content.Extension,
		"CATALOG_PATH_PREFIX":      &c.Content.PathPrefix,
		"CATALOG_INDEX_PROFILE":    &c.Index.Profile,
		"CATALOG_INDEX_TTL":        &c.Index.TTL,
		"CATALOG_CACHE_TTL":        &c.Cache.TTL,
		"CATALOG_SERVER_ADDR":      &c.Server.Addr,
		"CATALOG_LOG_LEVEL":        &c.Logging.Level,
		"CATALOG_LOG_FORMAT":       &c.Logging.Format,
		"CATALOG_LOG_FILE":         &c.Logging.File,
		"CATALOG_WATCH_DEBOUNCE":   &c.Watch.Debounce,
		"CATALOG_WATCH_POLL_EVERY": &c.Watch.PollInterval,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"CATALOG_DEFAULT_LIMIT": &c.Search.DefaultLimit,
		"CATALOG_MAX_LIMIT":     &c.Search.MaxLimit,
		"CATALOG_CACHE_SIZE":    &c.Cache.Size,
		"CATALOG_RATE_BURST":    &c.Server.RateBurst,
	}
	for name, dst := range intVars {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}

	if v := os.Getenv("CATALOG_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CATALOG_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = f
	}
	if v := os.Getenv("CATALOG_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CATALOG_WATCH: %w", err)
		}
		c.Watch.Enabled = &b
	}
	if v := os.Getenv("CATALOG_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	return nil
}

// applyProfile fills the index TTL and watcher switch from the profile
// when nothing more specific set them.
func (c *Config) applyProfile() {
	p, ok := profileDefaults[strings.ToLower(c.Index.Profile)]
	if !ok {
		return // reported by Validate
	}
	if c.Index.TTL == "" {
		c.Index.TTL = p.ttl
	}
	if c.Watch.Enabled == nil {
		w := p.watch
		c.Watch.Enabled = &w
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Content.Dir == "" {
		return fmt.Errorf("content.dir must not be empty")
	}
	if !strings.HasPrefix(c.Content.Extension, ".") || len(c.Content.Extension) < 2 {
		return fmt.Errorf("content.extension must start with a dot, got %q", c.Content.Extension)
	}

	if _, ok := profileDefaults[strings.ToLower(c.Index.Profile)]; !ok {
		return fmt.Errorf("index.profile must be 'watch' or 'static', got %s", c.Index.Profile)
	}

	durations := []struct {
		name  string
		value string
	}{
		{"index.ttl", c.Index.TTL},
		{"cache.ttl", c.Cache.TTL},
		{"watch.debounce", c.Watch.Debounce},
		{"watch.poll_interval", c.Watch.PollInterval},
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if _, err := parseDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}

	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) must be at least search.default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	for name, w := range c.Search.Weights.fields() {
		if w != nil && *w < 0 {
			return fmt.Errorf("search.weights.%s must be non-negative, got %g", name, *w)
		}
	}

	if c.Cache.Size < 1 {
		return fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be non-negative, got %g", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be positive when rate_limit is set, got %d", c.Server.RateBurst)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %s", c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return fmt.Errorf("logging.max_size_mb and logging.max_backups must be non-negative")
	}
	return nil
}

func (w WeightsConfig) fields() map[string]*float64 {
	return map[string]*float64{
		"title":    w.Title,
		"aliases":  w.Aliases,
		"tags":     w.Tags,
		"category": w.Category,
		"id":       w.ID,
		"phrase":   w.Phrase,
	}
}

// IndexTTL returns the parsed index TTL. Zero means no age expiry.
func (c *Config) IndexTTL() time.Duration { return mustDuration(c.Index.TTL) }

// CacheTTL returns the parsed result cache TTL. Zero means no age expiry.
func (c *Config) CacheTTL() time.Duration { return mustDuration(c.Cache.TTL) }

// WatchEnabled reports whether the change watcher should run.
func (c *Config) WatchEnabled() bool {
	return c.Watch.Enabled != nil && *c.Watch.Enabled
}

// DebounceWindow returns the parsed watcher debounce window.
func (c *Config) DebounceWindow() time.Duration { return mustDuration(c.Watch.Debounce) }

// PollInterval returns the parsed watcher poll interval.
func (c *Config) PollInterval() time.Duration { return mustDuration(c.Watch.PollInterval) }

// ReadTimeout returns the parsed HTTP read timeout.
func (c *Config) ReadTimeout() time.Duration { return mustDuration(c.Server.ReadTimeout) }

// WriteTimeout returns the parsed HTTP write timeout.
func (c *Config) WriteTimeout() time.Duration { return mustDuration(c.Server.WriteTimeout) }

// ContentDir resolves the content directory against base when relative.
func (c *Config) ContentDir(base string) string {
	if filepath.IsAbs(c.Content.Dir) || base == "" {
		return c.Content.Dir
	}
	return filepath.Join(base, c.Content.Dir)
}

// parseDuration accepts Go durations and a bare "0".
func parseDuration(s string) (time.Duration, error) {
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative, got %s", s)
	}
	return d, nil
}

// mustDuration parses a value already checked by Validate.
func mustDuration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func float64Ptr(v float64) *float64 { return &v }
