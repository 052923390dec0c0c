// Package config handles YAML config file loading for the actorhost
// host process.
package config

import (
	"fmt"
	"time"

	"github.com/latticerun/actorhost/bus"
	eventsredis "github.com/latticerun/actorhost/events/redis"
	eventswebhook "github.com/latticerun/actorhost/events/webhook"
	"github.com/latticerun/actorhost/objectstore"
	"github.com/latticerun/actorhost/trace"
)

// Config represents an actorhost.yaml configuration file, the only
// source of host settings for `actorhost run` (its one flag is
// --config). Validate lists the fields that must be set.
type Config struct {
	HostID         string         `yaml:"host_id"`
	LatticePrefix  string         `yaml:"lattice_prefix"`
	Bus            BusConfig      `yaml:"bus"`
	ObjectStore    ObjectStoreCfg `yaml:"object_store"`
	Policy         PolicyConfig   `yaml:"policy"`
	TrustedIssuers []string       `yaml:"trusted_issuers"`
	Trace          TraceConfig    `yaml:"trace"`
	Log            LogConfig      `yaml:"log"`
	Actors         []ActorConfig  `yaml:"actors"`
	Sinks          SinksConfig    `yaml:"sinks"`
}

// SinksConfig configures the optional event fan-out destinations an
// operator may mirror lifecycle/invocation-result events to, in
// addition to the lattice bus publish every event always performs.
type SinksConfig struct {
	Webhook *WebhookSinkConfig `yaml:"webhook,omitempty"`
	Redis   *RedisSinkConfig   `yaml:"redis,omitempty"`
	Lode    *LodeSinkConfig    `yaml:"lode,omitempty"`
}

// LodeSinkConfig mirrors lode.Config for YAML decoding, plus the
// filesystem root the Lode dataset is rooted at. Mirrors every
// published cloud event into Hive-partitioned storage.
type LodeSinkConfig struct {
	Dataset string `yaml:"dataset"`
	Path    string `yaml:"path"`
}

// WebhookSinkConfig mirrors events/webhook.Config for YAML decoding.
type WebhookSinkConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Timeout Duration          `yaml:"timeout"`
	Retries int               `yaml:"retries"`
}

// ToSinkConfig converts to events/webhook.Config, applying package
// defaults for zero values.
func (w WebhookSinkConfig) ToSinkConfig() eventswebhook.Config {
	cfg := eventswebhook.Config{URL: w.URL, Headers: w.Headers, Timeout: w.Timeout.Duration, Retries: w.Retries}
	if cfg.Timeout == 0 {
		cfg.Timeout = eventswebhook.DefaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = eventswebhook.DefaultRetries
	}
	return cfg
}

// RedisSinkConfig mirrors events/redis.Config for YAML decoding.
type RedisSinkConfig struct {
	URL     string   `yaml:"url"`
	Channel string   `yaml:"channel"`
	Timeout Duration `yaml:"timeout"`
	Retries int      `yaml:"retries"`
}

// ToSinkConfig converts to events/redis.Config, applying package
// defaults for zero values.
func (r RedisSinkConfig) ToSinkConfig() eventsredis.Config {
	cfg := eventsredis.Config{URL: r.URL, Channel: r.Channel, Timeout: r.Timeout.Duration, Retries: r.Retries}
	if cfg.Channel == "" {
		cfg.Channel = eventsredis.DefaultChannel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = eventsredis.DefaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = eventsredis.DefaultRetries
	}
	return cfg
}

// ActorConfig bootstraps one ActorInstance at host startup.
type ActorConfig struct {
	BytesPath   string            `yaml:"bytes_path"`
	ClaimsPath  string            `yaml:"claims_path"`
	ImageRef    string            `yaml:"image_ref"`
	Annotations map[string]string `yaml:"annotations"`
}

// BusConfig selects and configures the lattice bus transport.
type BusConfig struct {
	Backend string      `yaml:"backend"` // redis
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig mirrors bus.RedisConfig for YAML decoding.
type RedisConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
	Retries int      `yaml:"retries"`
}

// ToBusConfig converts the YAML config into bus.RedisConfig, applying
// the package defaults for zero values.
func (r RedisConfig) ToBusConfig() bus.RedisConfig {
	cfg := bus.RedisConfig{URL: r.URL, Timeout: r.Timeout.Duration, Retries: r.Retries}
	if cfg.Timeout == 0 {
		cfg.Timeout = bus.DefaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = bus.DefaultRetries
	}
	return cfg
}

// ObjectStoreCfg selects and configures the chunk object store.
type ObjectStoreCfg struct {
	Backend string         `yaml:"backend"` // memory, s3
	S3      S3Config       `yaml:"s3"`
	Archive *ArchiveConfig `yaml:"archive,omitempty"`
}

// S3Config mirrors objectstore.S3Config for YAML decoding.
type S3Config struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// ToObjectStoreConfig converts to objectstore.S3Config.
func (s S3Config) ToObjectStoreConfig() objectstore.S3Config {
	return objectstore.S3Config{
		Bucket:       s.Bucket,
		Prefix:       s.Prefix,
		Region:       s.Region,
		Endpoint:     s.Endpoint,
		UsePathStyle: s.S3PathStyle,
	}
}

// ArchiveConfig mirrors objectstore.ArchiveConfig for YAML decoding,
// plus the filesystem root the Lode dataset is rooted at.
type ArchiveConfig struct {
	Dataset string `yaml:"dataset"`
	Path    string `yaml:"path"`
}

// PolicyConfig selects and configures the policy evaluator.
type PolicyConfig struct {
	Backend    string `yaml:"backend"` // open, lua
	ScriptPath string `yaml:"script_path"`
}

// TraceConfig mirrors trace.Config for YAML decoding.
type TraceConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// ToTraceConfig converts to trace.Config, defaulting ServiceName.
func (t TraceConfig) ToTraceConfig() trace.Config {
	name := t.ServiceName
	if name == "" {
		name = "actorhost"
	}
	return trace.Config{
		Enabled:     t.Enabled,
		Exporter:    t.Exporter,
		Endpoint:    t.Endpoint,
		ServiceName: name,
		SampleRate:  t.SampleRate,
	}
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks that the configuration is internally consistent
// enough to build a host from.
func (c *Config) Validate() error {
	if c.HostID == "" {
		return fmt.Errorf("config: host_id is required")
	}
	if c.LatticePrefix == "" {
		return fmt.Errorf("config: lattice_prefix is required")
	}
	switch c.Bus.Backend {
	case "", "redis":
		if c.Bus.Redis.URL == "" {
			return fmt.Errorf("config: bus.redis.url is required for backend %q", c.Bus.Backend)
		}
	default:
		return fmt.Errorf("config: unknown bus backend %q", c.Bus.Backend)
	}
	switch c.ObjectStore.Backend {
	case "", "memory":
	case "s3":
		if err := c.ObjectStore.S3.ToObjectStoreConfig().Validate(); err != nil {
			return fmt.Errorf("config: object_store.s3: %w", err)
		}
	default:
		return fmt.Errorf("config: unknown object_store backend %q", c.ObjectStore.Backend)
	}
	switch c.Policy.Backend {
	case "", "open":
	case "lua":
		if c.Policy.ScriptPath == "" {
			return fmt.Errorf("config: policy.script_path is required for backend %q", c.Policy.Backend)
		}
	default:
		return fmt.Errorf("config: unknown policy backend %q", c.Policy.Backend)
	}
	if c.Sinks.Webhook != nil && c.Sinks.Webhook.URL == "" {
		return fmt.Errorf("config: sinks.webhook.url is required when sinks.webhook is set")
	}
	if c.Sinks.Redis != nil && c.Sinks.Redis.URL == "" {
		return fmt.Errorf("config: sinks.redis.url is required when sinks.redis is set")
	}
	if c.Sinks.Lode != nil && c.Sinks.Lode.Path == "" {
		return fmt.Errorf("config: sinks.lode.path is required when sinks.lode is set")
	}
	for i, a := range c.Actors {
		if a.BytesPath == "" {
			return fmt.Errorf("config: actors[%d].bytes_path is required", i)
		}
		if a.ClaimsPath == "" {
			return fmt.Errorf("config: actors[%d].claims_path is required", i)
		}
	}
	return nil
}
