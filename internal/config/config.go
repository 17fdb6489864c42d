// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for ricky.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/ricky/internal/util"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config is the root configuration for ricky.
type Config struct {
	Version string `toml:"version" json:"version"`

	Backend BackendConfig `toml:"backend" json:"backend"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	Serve   ServeConfig   `toml:"serve" json:"serve"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// BackendConfig controls how the client reaches the chat backend.
type BackendConfig struct {
	// Endpoint is the base URL of the backend API.
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// TimeoutSecs is the timeout for non-streaming requests, in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// ChatConfig holds defaults for new chat sessions.
type ChatConfig struct {
	// Model is the default model name. Empty means adopt the backend default.
	Model string `toml:"model" json:"model"`

	// Temperature is the sampling temperature, 0.0 to 1.0.
	Temperature float64 `toml:"temperature" json:"temperature"`
}

// ServeConfig controls the local API server started by `ricky serve`.
type ServeConfig struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`

	// OllamaURL is the upstream Ollama endpoint the server proxies to.
	OllamaURL string `toml:"ollama_url" json:"ollama_url"`

	// OllamaTimeoutSecs is the upstream request timeout, in seconds.
	OllamaTimeoutSecs int `toml:"ollama_timeout_secs" json:"ollama_timeout_secs"`

	// AllowedOrigins lists origins permitted by the CORS middleware.
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`

	// RateLimitPerSecond is the per-client request rate. RateBurst is the
	// number of requests a client may send in a burst above that rate.
	RateLimitPerSecond float64 `toml:"rate_limit_per_second" json:"rate_limit_per_second"`
	RateBurst          int     `toml:"rate_burst" json:"rate_burst"`
}

// UIConfig controls terminal presentation.
type UIConfig struct {
	// Theme selects the color palette: dark, light, or auto.
	Theme string `toml:"theme" json:"theme"`

	// Markdown enables rendered markdown for assistant replies.
	Markdown bool `toml:"markdown" json:"markdown"`

	// ShowSuggestions shows follow-up suggestions after each reply.
	ShowSuggestions bool `toml:"show_suggestions" json:"show_suggestions"`

	// ShowTimestamps prefixes each turn with its local time.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
}

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = "1"

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			Endpoint:    "http://127.0.0.1:8000",
			TimeoutSecs: 30,
		},
		Chat: ChatConfig{
			Model:       "",
			Temperature: 0.7,
		},
		Serve: ServeConfig{
			Host:              "127.0.0.1",
			Port:              8000,
			OllamaURL:         "http://127.0.0.1:11434",
			OllamaTimeoutSecs: 120,
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			},
			RateLimitPerSecond: 5,
			RateBurst:          10,
		},
		UI: UIConfig{
			Theme:           "dark",
			Markdown:        true,
			ShowSuggestions: true,
			ShowTimestamps:  false,
		},
	}
}

// =============================================================================
// FILE LOCATIONS
// =============================================================================

// ConfigDir returns the ricky configuration directory (~/.ricky).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ricky"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir creates the config directory if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// ensureSecurePermissions tightens config file permissions to owner-only.
func ensureSecurePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm() != 0o600 {
		_ = os.Chmod(path, 0o600)
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config from disk. It tries TOML first, then JSON, and
// falls back to defaults when neither file exists. Environment overrides
// are applied after loading, and the result is validated.
func Load() (*Config, error) {
	cfg, err := loadFromDisk()
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromDisk() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return Default(), nil
	}
	if _, statErr := os.Stat(tomlPath); statErr == nil {
		return LoadFromPath(tomlPath)
	}

	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return Default(), nil
	}
	if _, statErr := os.Stat(jsonPath); statErr == nil {
		return LoadFromPath(jsonPath)
	}

	return Default(), nil
}

// LoadFromPath reads a config file, choosing the decoder by extension.
// Missing fields keep their defaults. The result is not validated; Load
// and the file watcher validate after overrides are applied.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	cfg := Default()
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
		}
	}

	ensureSecurePermissions(path)
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults replaces zero values with defaults so a sparse config
// file never produces an unusable configuration.
func (c *Config) fillDefaults() {
	def := Default()

	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Backend.Endpoint == "" {
		c.Backend.Endpoint = def.Backend.Endpoint
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = def.Backend.TimeoutSecs
	}
	if c.Chat.Temperature == 0 {
		c.Chat.Temperature = def.Chat.Temperature
	}
	if c.Serve.Host == "" {
		c.Serve.Host = def.Serve.Host
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = def.Serve.Port
	}
	if c.Serve.OllamaURL == "" {
		c.Serve.OllamaURL = def.Serve.OllamaURL
	}
	if c.Serve.OllamaTimeoutSecs == 0 {
		c.Serve.OllamaTimeoutSecs = def.Serve.OllamaTimeoutSecs
	}
	if len(c.Serve.AllowedOrigins) == 0 {
		c.Serve.AllowedOrigins = append([]string(nil), def.Serve.AllowedOrigins...)
	}
	if c.Serve.RateLimitPerSecond == 0 {
		c.Serve.RateLimitPerSecond = def.Serve.RateLimitPerSecond
	}
	if c.Serve.RateBurst == 0 {
		c.Serve.RateBurst = def.Serve.RateBurst
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config to the TOML file.
func (c *Config) Save() error {
	return c.SaveTOML()
}

// SaveTOML writes the config as TOML with a header comment.
func (c *Config) SaveTOML() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("# ricky configuration file\n")
	buf.WriteString("# Edit by hand or use: ricky config set <key> <value>\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}

	return util.AtomicWriteFile(path, buf.Bytes(), 0o600)
}

// SaveJSON writes the config as JSON, for tooling that prefers it.
func (c *Config) SaveJSON() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathJSON()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}
	data = append(data, '\n')

	return util.AtomicWriteFile(path, data, 0o600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects all validation failures.
type ValidateErrors struct {
	Errors []*ValidationError
}

func (e *ValidateErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

var validThemes = map[string]bool{
	"dark":  true,
	"light": true,
	"auto":  true,
}

// Validate checks the config and returns all problems at once.
func (c *Config) Validate() error {
	var errs []*ValidationError

	if err := validateURL(c.Backend.Endpoint); err != nil {
		errs = append(errs, &ValidationError{"backend.endpoint", err.Error()})
	}
	if c.Backend.TimeoutSecs <= 0 {
		errs = append(errs, &ValidationError{"backend.timeout_secs", "must be positive"})
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 1 {
		errs = append(errs, &ValidationError{"chat.temperature", "must be between 0.0 and 1.0"})
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		errs = append(errs, &ValidationError{"serve.port", "must be between 1 and 65535"})
	}
	if err := validateURL(c.Serve.OllamaURL); err != nil {
		errs = append(errs, &ValidationError{"serve.ollama_url", err.Error()})
	}
	if c.Serve.OllamaTimeoutSecs <= 0 {
		errs = append(errs, &ValidationError{"serve.ollama_timeout_secs", "must be positive"})
	}
	if c.Serve.RateLimitPerSecond <= 0 {
		errs = append(errs, &ValidationError{"serve.rate_limit_per_second", "must be positive"})
	}
	if c.Serve.RateBurst < 1 {
		errs = append(errs, &ValidationError{"serve.rate_burst", "must be at least 1"})
	}
	if !validThemes[c.UI.Theme] {
		errs = append(errs, &ValidationError{"ui.theme", "must be dark, light, or auto"})
	}

	if len(errs) > 0 {
		return &ValidateErrors{Errors: errs}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies RICKY_* environment variables on top of the
// loaded config. Invalid values are ignored rather than failing startup.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RICKY_ENDPOINT"); v != "" {
		c.Backend.Endpoint = v
	}
	if v := os.Getenv("RICKY_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("RICKY_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Chat.Temperature = f
		}
	}
	if v := os.Getenv("RICKY_HOST"); v != "" {
		c.Serve.Host = v
	}
	if v := os.Getenv("RICKY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Serve.Port = n
		}
	}
	if v := os.Getenv("RICKY_OLLAMA_URL"); v != "" {
		c.Serve.OllamaURL = v
	}
	if v := os.Getenv("RICKY_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("RICKY_MARKDOWN"); v != "" {
		c.UI.Markdown = v == "1" || strings.ToLower(v) == "true"
	}
}

// =============================================================================
// DOT-NOTATION ACCESS
// =============================================================================

// Get returns a config value by dot-notation key, e.g. "chat.temperature".
func (c *Config) Get(key string) (interface{}, error) {
	v := reflect.ValueOf(c).Elem()

	parts := strings.Split(key, ".")
	for _, part := range parts {
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("unknown config key: %s", key)
		}
		field := v.FieldByNameFunc(func(name string) bool {
			return normalizeFieldName(name) == part
		})
		if !field.IsValid() {
			return nil, fmt.Errorf("unknown config key: %s", key)
		}
		v = field
	}

	if v.Kind() == reflect.Struct {
		return nil, fmt.Errorf("%s is a section, not a value", key)
	}
	return v.Interface(), nil
}

// Set assigns a config value by dot-notation key, converting the string
// to the field's type. The config is validated after the change.
func (c *Config) Set(key, value string) error {
	v := reflect.ValueOf(c).Elem()

	parts := strings.Split(key, ".")
	for _, part := range parts {
		if v.Kind() != reflect.Struct {
			return fmt.Errorf("unknown config key: %s", key)
		}
		field := v.FieldByNameFunc(func(name string) bool {
			return normalizeFieldName(name) == part
		})
		if !field.IsValid() {
			return fmt.Errorf("unknown config key: %s", key)
		}
		v = field
	}

	if v.Kind() == reflect.Struct {
		return fmt.Errorf("%s is a section, not a value", key)
	}
	if !v.CanSet() {
		return fmt.Errorf("cannot set config key: %s", key)
	}
	if err := setFieldValue(v, value); err != nil {
		return fmt.Errorf("cannot set %s: %w", key, err)
	}

	return c.Validate()
}

// normalizeFieldName converts a Go field name to its snake_case key form.
func normalizeFieldName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			// Start a new word only at a lower-to-upper boundary, so
			// "OllamaURL" becomes "ollama_url" rather than "ollama_u_r_l".
			if i > 0 && name[i-1] >= 'a' && name[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// setFieldValue converts a string to the field's type and assigns it.
func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		field.SetBool(value == "1" || strings.ToLower(value) == "true")
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", value)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", value)
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported field type %s", field.Type())
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// GetAllKeys returns every settable dot-notation key, sorted.
func (c *Config) GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.ValueOf(c).Elem(), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(v reflect.Value, prefix string, keys *[]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := normalizeFieldName(t.Field(i).Name)
		if prefix != "" {
			name = prefix + "." + name
		}
		if v.Field(i).Kind() == reflect.Struct {
			collectKeys(v.Field(i), name, keys)
		} else {
			*keys = append(*keys, name)
		}
	}
}

// =============================================================================
// UTILITIES
// =============================================================================

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Serve.AllowedOrigins = append([]string(nil), c.Serve.AllowedOrigins...)
	return &clone
}

// String returns the config as indented JSON for display.
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("config{error: %v}", err)
	}
	return string(data)
}

// =============================================================================
// GLOBAL CONFIGURATION
// =============================================================================

var (
	globalConfig *Config
	globalOnce   sync.Once
	globalMu     sync.RWMutex
)

// Global returns the process-wide config, loading it on first use.
// Load failures fall back to defaults so the CLI remains usable.
func Global() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalMu.Lock()
		globalConfig = cfg
		globalMu.Unlock()
	})

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// ReloadGlobal re-reads the config from disk and replaces the global.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the global config.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global config so tests start clean.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
	globalOnce = sync.Once{}
}
