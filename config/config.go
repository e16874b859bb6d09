// SPDX-License-Identifier: EPL-2.0

// Package config loads audpool settings from defaults, an optional YAML file
// and AUDPOOL_ environment variables, in increasing priority.
//
// Nested keys map to environment variables by upper-casing them and replacing
// dots with underscores: pool.max_size is read from AUDPOOL_POOL_MAX_SIZE.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/ik5/audpool/detect"
	"github.com/ik5/audpool/playback"
	"github.com/ik5/audpool/pool"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUDPOOL"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Pool         Pool         `mapstructure:"pool"`
	Variance     Variance     `mapstructure:"variance"`
	DynamicStart DynamicStart `mapstructure:"dynamic_start"`
	Log          Log          `mapstructure:"log"`
	Library      Library      `mapstructure:"library"`
	Output       Output       `mapstructure:"output"`
}

// Pool sizes the player pool.
type Pool struct {
	InitialSize int  `mapstructure:"initial_size"`
	StartActive bool `mapstructure:"start_active"`
	Expand      bool `mapstructure:"expand"`
	MaxSize     int  `mapstructure:"max_size"` // 0 = unbounded when Expand is set
}

// Variance adds a random offset in [-v, v] to every picked volume and pitch.
type Variance struct {
	Volume float64 `mapstructure:"volume"`
	Pitch  float64 `mapstructure:"pitch"`
}

type DynamicStart struct {
	Enabled       bool    `mapstructure:"enabled"`
	Threshold     float64 `mapstructure:"threshold"`
	OffsetSamples int     `mapstructure:"offset_samples"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Library struct {
	Path string `mapstructure:"path"`
}

type Output struct {
	SampleRate   int `mapstructure:"sample_rate"`
	BufferMillis int `mapstructure:"buffer_millis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pool.initial_size", 8)
	v.SetDefault("pool.start_active", false)
	v.SetDefault("pool.expand", false)
	v.SetDefault("pool.max_size", 0)

	v.SetDefault("variance.volume", 0.0)
	v.SetDefault("variance.pitch", 0.0)

	v.SetDefault("dynamic_start.enabled", false)
	v.SetDefault("dynamic_start.threshold", detect.DefaultThreshold)
	v.SetDefault("dynamic_start.offset_samples", 0)

	v.SetDefault("log.level", log.WarnLevel.String())

	v.SetDefault("library.path", "")

	v.SetDefault("output.sample_rate", 48000)
	v.SetDefault("output.buffer_millis", 100)
}

// Default returns the built-in settings, ignoring the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

// Load reads path, when non-empty, over the defaults and applies environment
// overrides. The result is validated.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Pool.InitialSize < 0:
		return fmt.Errorf("%w: pool.initial_size must not be negative", ErrInvalid)
	case c.Pool.MaxSize < 0:
		return fmt.Errorf("%w: pool.max_size must not be negative", ErrInvalid)
	case c.Pool.MaxSize > 0 && c.Pool.MaxSize < c.Pool.InitialSize:
		return fmt.Errorf("%w: pool.max_size %d is below pool.initial_size %d",
			ErrInvalid, c.Pool.MaxSize, c.Pool.InitialSize)
	case c.Variance.Volume < 0 || c.Variance.Pitch < 0:
		return fmt.Errorf("%w: variance must not be negative", ErrInvalid)
	case c.DynamicStart.Threshold < 0:
		return fmt.Errorf("%w: dynamic_start.threshold must not be negative", ErrInvalid)
	case c.DynamicStart.OffsetSamples < 0:
		return fmt.Errorf("%w: dynamic_start.offset_samples must not be negative", ErrInvalid)
	case c.Output.SampleRate <= 0:
		return fmt.Errorf("%w: output.sample_rate must be positive", ErrInvalid)
	case c.Output.BufferMillis <= 0:
		return fmt.Errorf("%w: output.buffer_millis must be positive", ErrInvalid)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	return nil
}

// PoolConfig converts the pool section.
func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		InitialSize: c.Pool.InitialSize,
		StartActive: c.Pool.StartActive,
		Expand:      c.Pool.Expand,
		MaxSize:     c.Pool.MaxSize,
	}
}

// PlaybackDefaults converts the variance and dynamic start sections.
func (c *Config) PlaybackDefaults() playback.Defaults {
	return playback.Defaults{
		VolumeVariance: c.Variance.Volume,
		PitchVariance:  c.Variance.Pitch,
		DynamicStart:   c.DynamicStart.Enabled,
	}
}

// DetectOptions converts the dynamic start section.
func (c *Config) DetectOptions() detect.Options {
	return detect.Options{
		Threshold:     c.DynamicStart.Threshold,
		OffsetSamples: c.DynamicStart.OffsetSamples,
	}
}

// Buffer is the output buffer length.
func (c *Config) Buffer() time.Duration {
	return time.Duration(c.Output.BufferMillis) * time.Millisecond
}
