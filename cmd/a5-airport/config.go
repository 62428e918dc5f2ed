package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Library backends.
const (
	libraryFFI  = "ffi"
	libraryMock = "mock"
)

// Config is the a5-airport configuration file.
type Config struct {
	Listen         string      `yaml:"listen"`
	PublicAddress  string      `yaml:"public_address"`
	AdminListen    string      `yaml:"admin_listen"`
	Schema         string      `yaml:"schema"`
	Log            LogConfig   `yaml:"log"`
	Auth           AuthConfig  `yaml:"auth"`
	Cache          CacheConfig `yaml:"cache"`
	MaxMessageSize int         `yaml:"max_message_size"`
	Library        string      `yaml:"library"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type AuthConfig struct {
	Tokens []string `yaml:"tokens"`
}

// CacheConfig sizes the per-cell LRU caches. Zero disables caching.
type CacheConfig struct {
	Size int `yaml:"size"`
}

func defaultConfig() Config {
	return Config{
		Listen:         ":50051",
		AdminListen:    ":9090",
		Schema:         "a5",
		Log:            LogConfig{Level: "info"},
		Cache:          CacheConfig{Size: 4096},
		MaxMessageSize: 16 << 20,
		Library:        libraryFFI,
	}
}

// loadConfig applies defaults, then the file at path (optional), then
// A5_* variables read through getenv.
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("A5_LISTEN", &cfg.Listen)
	str("A5_PUBLIC_ADDRESS", &cfg.PublicAddress)
	str("A5_ADMIN_LISTEN", &cfg.AdminListen)
	str("A5_SCHEMA", &cfg.Schema)
	str("A5_LOG_LEVEL", &cfg.Log.Level)
	str("A5_LIBRARY", &cfg.Library)
	if v := getenv("A5_LOG_CONSOLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid A5_LOG_CONSOLE: %w", err)
		}
		cfg.Log.Console = b
	}
	if v := getenv("A5_AUTH_TOKENS"); v != "" {
		cfg.Auth.Tokens = splitList(v)
	}
	if err := num("A5_CACHE_SIZE", &cfg.Cache.Size); err != nil {
		return err
	}
	return num("A5_MAX_MESSAGE_SIZE", &cfg.MaxMessageSize)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// serveFlags holds the command-line overrides of serve.
type serveFlags struct {
	config         string
	listen         string
	publicAddress  string
	adminListen    string
	schema         string
	logLevel       string
	logConsole     bool
	tokens         []string
	cacheSize      int
	maxMessageSize int
	library        string
}

func (f *serveFlags) register(cmd *cobra.Command) {
	d := defaultConfig()
	fs := cmd.Flags()
	fs.StringVarP(&f.config, "config", "c", "", "Path to YAML config file (env A5_CONFIG)")
	fs.StringVar(&f.listen, "listen", d.Listen, "gRPC listen address")
	fs.StringVar(&f.publicAddress, "public-address", "", "Address advertised in flight endpoints")
	fs.StringVar(&f.adminListen, "admin-listen", d.AdminListen, "Admin HTTP listen address, empty disables it")
	fs.StringVar(&f.schema, "schema", d.Schema, "Schema name the functions are published under")
	fs.StringVar(&f.logLevel, "log-level", d.Log.Level, "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.logConsole, "log-console", false, "Human readable console logs")
	fs.StringSliceVar(&f.tokens, "auth-token", nil, "Accepted bearer token, repeatable")
	fs.IntVar(&f.cacheSize, "cache-size", d.Cache.Size, "Per-cell LRU cache entries, 0 disables caching")
	fs.IntVar(&f.maxMessageSize, "max-message-size", d.MaxMessageSize, "Maximum gRPC message size in bytes")
	fs.StringVar(&f.library, "library", d.Library, "A5 backend: ffi or mock")
}

// resolve builds the effective config: flag > env > file > default.
func (f *serveFlags) resolve(cmd *cobra.Command, getenv func(string) string) (Config, error) {
	path := f.config
	if !cmd.Flags().Changed("config") {
		path = getenv("A5_CONFIG")
	}
	cfg, err := loadConfig(path, getenv)
	if err != nil {
		return Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("listen") {
		cfg.Listen = f.listen
	}
	if changed("public-address") {
		cfg.PublicAddress = f.publicAddress
	}
	if changed("admin-listen") {
		cfg.AdminListen = f.adminListen
	}
	if changed("schema") {
		cfg.Schema = f.schema
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-console") {
		cfg.Log.Console = f.logConsole
	}
	if changed("auth-token") {
		cfg.Auth.Tokens = f.tokens
	}
	if changed("cache-size") {
		cfg.Cache.Size = f.cacheSize
	}
	if changed("max-message-size") {
		cfg.MaxMessageSize = f.maxMessageSize
	}
	if changed("library") {
		cfg.Library = f.library
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Schema == "" {
		return fmt.Errorf("schema name is required")
	}
	if c.Library != libraryFFI && c.Library != libraryMock {
		return fmt.Errorf("unsupported library %q: use %q or %q", c.Library, libraryFFI, libraryMock)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.Cache.Size)
	}
	if c.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must not be negative, got %d", c.MaxMessageSize)
	}
	return nil
}

// tokenIdentities names each configured token by its position.
func (c AuthConfig) tokenIdentities() map[string]string {
	out := make(map[string]string, len(c.Tokens))
	for i, tok := range c.Tokens {
		out[tok] = fmt.Sprintf("client-%d", i+1)
	}
	return out
}
