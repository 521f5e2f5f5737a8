// Package config handles configuration loading and validation for the
// entropy engine.
package config

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConditioningMode selects the final conditioning step applied to pool output.
type ConditioningMode string

const (
	// ConditioningRaw emits buffer bytes unconditioned (research use only).
	ConditioningRaw ConditioningMode = "raw"
	// ConditioningVonNeumann applies Von Neumann debiasing before output.
	ConditioningVonNeumann ConditioningMode = "vonneumann"
	// ConditioningSHA256 applies the keyed-hash extractor. This is the
	// pool's default and only mode for get_random_bytes.
	ConditioningSHA256 ConditioningMode = "sha256"
)

// Options holds the engine configuration, matching the fields named in
// the pool construction contract. Load decodes every field and Validate
// checks them, but entropy.Open applies only Parallel (read by
// Engine.Collect). The other fields are not passed to the pool: it seeds
// its conditioner from the system CSPRNG alone, asks each source for 200
// bytes per round, caps its raw buffer at 16 MiB, and conditions
// RandomBytes with sha256 regardless of Conditioning.
type Options struct {
	// Seed is initial material mixed into the conditioner state alongside
	// fresh system CSPRNG bytes. Optional; nil means CSPRNG-only.
	Seed []byte `toml:"-"`

	// SeedHex is the TOML-representable form of Seed (hex-encoded).
	SeedHex string `toml:"seed_hex"`

	// Parallel selects parallel (fan-out) vs sequential source collection.
	Parallel bool `toml:"parallel"`

	// TimeoutSeconds is the wall-clock deadline for CollectAll when
	// Parallel is true.
	TimeoutSeconds float64 `toml:"timeout_seconds"`

	// DefaultSampleSize is the hint passed to sources' Sample when the
	// caller does not request a specific size.
	DefaultSampleSize int `toml:"default_sample_size"`

	// Conditioning selects the pool's default conditioning mode for
	// GetBytes.
	Conditioning ConditioningMode `toml:"conditioning"`

	// BufferCapBytes is the soft cap for the pool's internal raw buffer.
	BufferCapBytes int `toml:"buffer_cap_bytes"`

	// LogPath is the path to the engine's log file, empty for stderr only.
	LogPath string `toml:"log_path"`

	// AllowedCapabilities restricts which capability tokens sources may
	// rely on being true; empty means no restriction.
	AllowedCapabilities []string `toml:"allowed_capabilities"`
}

// Defaults returns an Options populated with the values named in the
// engine's construction contract.
func Defaults() *Options {
	return &Options{
		Parallel:          true,
		TimeoutSeconds:    10,
		DefaultSampleSize: 200,
		Conditioning:      ConditioningSHA256,
		BufferCapBytes:    16 * 1024 * 1024,
		LogPath:           filepath.Join(dataDir(), "entropic.log"),
	}
}

func dataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".entropic")
}

// Path returns the default configuration file path.
func Path() string {
	return filepath.Join(dataDir(), "config.toml")
}

// Load reads configuration from the specified path. If the file doesn't
// exist, returns Defaults().
func Load(path string) (*Options, error) {
	opts := Defaults()

	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), opts); err != nil {
		return nil, err
	}

	if opts.SeedHex != "" {
		seed, err := hex.DecodeString(opts.SeedHex)
		if err != nil {
			return nil, err
		}
		opts.Seed = seed
	}

	return opts, nil
}

// Validate checks the configuration for errors.
func (o *Options) Validate() error {
	if o.TimeoutSeconds <= 0 {
		return errors.New("config: timeout_seconds must be positive")
	}

	if o.DefaultSampleSize < 1 {
		return errors.New("config: default_sample_size must be at least 1")
	}

	switch o.Conditioning {
	case ConditioningRaw, ConditioningVonNeumann, ConditioningSHA256:
	default:
		return errors.New("config: conditioning must be one of raw, vonneumann, sha256")
	}

	if o.BufferCapBytes < 1 {
		return errors.New("config: buffer_cap_bytes must be positive")
	}

	return nil
}

// EnsureDirectories creates the directories the engine needs on disk.
func (o *Options) EnsureDirectories() error {
	dir := filepath.Dir(o.LogPath)
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0700)
}

// DataDir returns the base directory the engine uses for its own state.
func DataDir() string {
	return dataDir()
}
