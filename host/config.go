package host

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/hostfuncs"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of a development host.
//
//	module: ./build/swap.wasm
//	codec: cbor
//	max_request_size: 1048576
//	http:
//	  timeout: 30s
//	  max_body_size: 10485760
//	  follow_redirects: true
//	  allowed:
//	    - hosts: ["api.mainnet-beta.solana.com", "*.supabase.co"]
//	      ports: ["443"]
type Config struct {
	Module         string     `yaml:"module" json:"module" validate:"required"`
	Codec          string     `yaml:"codec" json:"codec" validate:"omitempty,oneof=cbor msgpack"`
	LogLevel       string     `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	MaxRequestSize uint32     `yaml:"max_request_size" json:"max_request_size" validate:"omitempty,min=64"`
	MemoryPages    uint32     `yaml:"memory_pages" json:"memory_pages" validate:"omitempty,max=65536"`
	HTTP           HTTPConfig `yaml:"http" json:"http"`
}

// HTTPConfig configures the reference HTTP capabilities.
type HTTPConfig struct {
	FollowRedirects *bool         `yaml:"follow_redirects" json:"follow_redirects"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" validate:"omitempty,min=1ms"`
	MaxBodySize     int           `yaml:"max_body_size" json:"max_body_size" validate:"omitempty,min=1"`
	MaxRedirects    *int          `yaml:"max_redirects" json:"max_redirects" validate:"omitempty,min=0,max=100"` // 0 disables redirects

	// Allowed restricts outbound requests. Empty allows every destination.
	Allowed []hostfuncs.NetworkRule `yaml:"allowed" json:"allowed" validate:"omitempty,dive"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates YAML config bytes. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := envelope.Validator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// CodecValue returns the configured envelope codec.
func (c *Config) CodecValue() (envelope.Codec, error) {
	return envelope.Lookup(c.Codec)
}

// Level returns the configured log level, Info by default.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// HTTPOptions translates the HTTP section. Denials are logged to logger.
func (c *Config) HTTPOptions(logger *slog.Logger) ([]hostfuncs.HTTPOption, error) {
	var opts []hostfuncs.HTTPOption
	if c.HTTP.Timeout > 0 {
		opts = append(opts, hostfuncs.WithHTTPRequestTimeout(c.HTTP.Timeout))
	}
	if c.HTTP.MaxBodySize > 0 {
		opts = append(opts, hostfuncs.WithHTTPMaxBodySize(c.HTTP.MaxBodySize))
	}
	if c.HTTP.MaxRedirects != nil {
		opts = append(opts, hostfuncs.WithHTTPMaxRedirects(*c.HTTP.MaxRedirects))
	}
	if c.HTTP.FollowRedirects != nil {
		opts = append(opts, hostfuncs.WithHTTPFollowRedirects(*c.HTTP.FollowRedirects))
	}
	if len(c.HTTP.Allowed) > 0 {
		policy, err := hostfuncs.NewNetworkPolicy(c.HTTP.Allowed,
			hostfuncs.WithDenialHandler(&hostfuncs.LogDenialHandler{Logger: logger}))
		if err != nil {
			return nil, fmt.Errorf("http.allowed: %w", err)
		}
		opts = append(opts, hostfuncs.WithHTTPNetworkPolicy(policy))
	}
	return opts, nil
}

// Options builds executor options: a registry with the reference HTTP
// bundle behind panic recovery, size limiting and logging middleware.
func (c *Config) Options(logger *slog.Logger) ([]Option, error) {
	codec, err := c.CodecValue()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpOpts, err := c.HTTPOptions(logger)
	if err != nil {
		return nil, err
	}

	limit := c.MaxRequestSize
	if limit == 0 {
		limit = hostfuncs.DefaultMaxRequestSize
	}

	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithCodec(codec),
		hostfuncs.WithMiddleware(
			hostfuncs.PanicRecoveryMiddleware(),
			hostfuncs.LoggingMiddleware(logger),
		),
		hostfuncs.WithBundle(hostfuncs.HTTPBundle(httpOpts...)),
	)
	if err != nil {
		return nil, err
	}

	return []Option{
		WithHostFunctions(registry),
		WithLogger(logger),
		WithCodec(codec),
		WithMemoryLimitPages(c.MemoryPages),
		WithAdapterOptions(WithMaxRequestSize(limit)),
	}, nil
}
