// Package config loads the host configuration: an optional YAML file, then
// AURAFLOW_* environment variables (after .env), then validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/pkg/adapters/workshop"
	"github.com/aretw0/auraflow/pkg/persistence/middleware"
	"github.com/aretw0/auraflow/pkg/watch"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "AURAFLOW_"

// Source kinds.
const (
	SourceFile  = "file"
	SourceRedis = "redis"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Watch modes.
const (
	WatchPoll = "poll"
	WatchPush = "push"
	WatchOff  = "off"
)

// Config is the complete host configuration.
type Config struct {
	Workflow WorkflowConfig  `yaml:"workflow"`
	Store    StoreConfig     `yaml:"store"`
	Workshop workshop.Config `yaml:"workshop"`
	Delays   DelaysConfig    `yaml:"delays"`
	Watch    WatchConfig     `yaml:"watch"`
	HTTP     HTTPConfig      `yaml:"http"`
	Log      LogConfig       `yaml:"log"`
}

// WorkflowConfig says where the published workflow comes from.
type WorkflowConfig struct {
	Source string `yaml:"source"`
	// Path is the workflow document for the file source.
	Path string `yaml:"path"`
	// Addr, Password, DB and Prefix address the editor's Redis keys.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// StoreConfig selects and tunes the conversation store.
type StoreConfig struct {
	Kind     string        `yaml:"kind"`
	Path     string        `yaml:"path"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	DSN      string        `yaml:"dsn"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock enables the Redis distributed lock for multi-replica hosts.
	Lock bool `yaml:"lock"`

	// EncryptionKey is a base64 AES-256 key; FallbackKeys are retired keys
	// still accepted for reading.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`

	PII         bool     `yaml:"pii"`
	PIIPatterns []string `yaml:"pii_patterns"`
}

// DelaysConfig holds the auto-advance pauses.
type DelaysConfig struct {
	Message   time.Duration `yaml:"message"`
	Handoff   time.Duration `yaml:"handoff"`
	Terminate time.Duration `yaml:"terminate"`
}

// WatchConfig controls how new versions are detected.
type WatchConfig struct {
	Mode     string `yaml:"mode"`
	Schedule string `yaml:"schedule"`
}

// HTTPConfig configures the chat API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Workflow: WorkflowConfig{Source: SourceFile, Path: "flow.json", Addr: "localhost:6379"},
		Store:    StoreConfig{Kind: StoreMemory, Path: ".auraflow/sessions", Addr: "localhost:6379"},
		Workshop: workshop.DefaultConfig(),
		Delays: DelaysConfig{
			Message:   1500 * time.Millisecond,
			Handoff:   1500 * time.Millisecond,
			Terminate: 2000 * time.Millisecond,
		},
		Watch: WatchConfig{Mode: WatchPoll, Schedule: watch.DefaultSpec},
		HTTP:  HTTPConfig{Addr: ":8080"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path (skipped when empty), applies the environment and validates.
// envFiles are loaded first without overriding variables already set; missing
// files are ignored. With no envFiles, ".env" is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.setString("WORKFLOW_SOURCE", &c.Workflow.Source)
	env.setString("WORKFLOW_PATH", &c.Workflow.Path)
	env.setString("WORKFLOW_REDIS_ADDR", &c.Workflow.Addr)
	env.setString("WORKFLOW_REDIS_PASSWORD", &c.Workflow.Password)
	env.setInt("WORKFLOW_REDIS_DB", &c.Workflow.DB)
	env.setString("WORKFLOW_REDIS_PREFIX", &c.Workflow.Prefix)

	env.setString("STORE", &c.Store.Kind)
	env.setString("STORE_PATH", &c.Store.Path)
	env.setString("REDIS_ADDR", &c.Store.Addr)
	env.setString("REDIS_PASSWORD", &c.Store.Password)
	env.setInt("REDIS_DB", &c.Store.DB)
	env.setString("POSTGRES_DSN", &c.Store.DSN)
	env.setString("STORE_PREFIX", &c.Store.Prefix)
	env.setDuration("STORE_TTL", &c.Store.TTL)
	env.setBool("STORE_LOCK", &c.Store.Lock)
	env.setString("ENCRYPTION_KEY", &c.Store.EncryptionKey)
	env.setList("ENCRYPTION_FALLBACK_KEYS", &c.Store.FallbackKeys)
	env.setBool("PII", &c.Store.PII)

	env.setString("WORKSHOP_URL", &c.Workshop.BaseURL)
	env.setDuration("WORKSHOP_TIMEOUT", &c.Workshop.Timeout)
	env.setInt("WORKSHOP_RETRIES", &c.Workshop.MaxRetries)

	env.setDuration("DELAY_MESSAGE", &c.Delays.Message)
	env.setDuration("DELAY_HANDOFF", &c.Delays.Handoff)
	env.setDuration("DELAY_TERMINATE", &c.Delays.Terminate)

	env.setString("WATCH", &c.Watch.Mode)
	env.setString("WATCH_SCHEDULE", &c.Watch.Schedule)

	env.setString("HTTP_ADDR", &c.HTTP.Addr)
	env.setString("LOG_LEVEL", &c.Log.Level)

	return errors.Join(env.errs...)
}

// Validate rejects unknown kinds and malformed values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Workflow.Source {
	case SourceFile:
		if c.Workflow.Path == "" {
			errs = append(errs, errors.New("workflow.path is required for the file source"))
		}
	case SourceRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown workflow source %q", c.Workflow.Source))
	}

	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	case StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	if c.Store.TTL < 0 {
		errs = append(errs, errors.New("store.ttl must not be negative"))
	}
	if c.Store.Lock && c.Store.Kind != StoreRedis {
		errs = append(errs, errors.New("store.lock requires the redis store"))
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption_key: %w", err))
		}
	} else if len(c.Store.FallbackKeys) > 0 {
		errs = append(errs, errors.New("store.fallback_keys need an encryption_key"))
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			errs = append(errs, fmt.Errorf("store.fallback_keys[%d]: %w", i, err))
		}
	}
	if err := middleware.CompilePatterns(c.Store.PIIPatterns); err != nil {
		errs = append(errs, fmt.Errorf("store.pii_patterns: %w", err))
	}

	if c.Delays.Message < 0 || c.Delays.Handoff < 0 || c.Delays.Terminate < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}

	switch c.Watch.Mode {
	case WatchPoll:
		if _, err := watch.ParseSpec(c.Watch.Schedule); err != nil {
			errs = append(errs, err)
		}
	case WatchPush, WatchOff:
	default:
		errs = append(errs, fmt.Errorf("unknown watch mode %q", c.Watch.Mode))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EncryptionConfig returns the decoded keys, or nil when encryption is off.
// Call it on a validated Config.
func (c *Config) EncryptionConfig() *middleware.EncryptionConfig {
	if c.Store.EncryptionKey == "" {
		return nil
	}
	active, _ := middleware.ParseKey(c.Store.EncryptionKey)
	out := &middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range c.Store.FallbackKeys {
		key, _ := middleware.ParseKey(k)
		out.FallbackKeys = append(out.FallbackKeys, key)
	}
	return out
}

// PIIPatterns returns the configured patterns, or the defaults.
func (c *Config) PIIPatterns() []string {
	if len(c.Store.PIIPatterns) > 0 {
		return c.Store.PIIPatterns
	}
	return middleware.DefaultPIIPatterns
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) setString(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) setInt(key string, dst *int) {
	if v, ok := r.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = n
	}
}

func (r *envReader) setBool(key string, dst *bool) {
	if v, ok := r.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = b
	}
}

func (r *envReader) setDuration(key string, dst *time.Duration) {
	if v, ok := r.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = d
	}
}

func (r *envReader) setList(key string, dst *[]string) {
	if v, ok := r.get(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
