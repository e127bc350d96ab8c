package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "y0l0.yaml"
	defaultEnvFile    = ".env"
	envPrefix         = "Y0L0_"
)

// Config holds codec and CLI settings. Values come from defaults, then
// the YAML file, then the environment (optionally seeded from .env).
type Config struct {
	VerifyChecksums       bool   `yaml:"verify_checksums"`
	TolerateUnknownChunks bool   `yaml:"tolerate_unknown_chunks"`
	MaxChunkSize          uint32 `yaml:"max_chunk_size"`
	CompressionLevel      int    `yaml:"compression_level"`
	MaxDataChunkSize      int    `yaml:"max_data_chunk_size"`
	DevMode               bool   `yaml:"dev_mode"`
	LogFile               string `yaml:"log_file"`
}

func DefaultConfig() Config {
	return Config{
		VerifyChecksums:  true,
		MaxChunkSize:     DefaultMaxChunkSize,
		CompressionLevel: DefaultCompressionLevel,
	}
}

// LoadConfig reads path if it exists, then applies .env and Y0L0_*
// environment overrides. A missing file or .env is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading %s: %w", defaultEnvFile, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.VerifyChecksums = envBool("VERIFY_CHECKSUMS", c.VerifyChecksums)
	c.TolerateUnknownChunks = envBool("TOLERATE_UNKNOWN_CHUNKS", c.TolerateUnknownChunks)
	if n := envInt("MAX_CHUNK_SIZE", int64(c.MaxChunkSize)); n != int64(c.MaxChunkSize) {
		if n < 1 || n > DefaultMaxChunkSize {
			return fmt.Errorf("%sMAX_CHUNK_SIZE %d out of range [1, %d]", envPrefix, n, DefaultMaxChunkSize)
		}
		c.MaxChunkSize = uint32(n)
	}
	c.CompressionLevel = int(envInt("COMPRESSION_LEVEL", int64(c.CompressionLevel)))
	c.MaxDataChunkSize = int(envInt("MAX_DATA_CHUNK_SIZE", int64(c.MaxDataChunkSize)))
	c.DevMode = envBool("DEV_MODE", c.DevMode)
	c.LogFile = envString("LOG_FILE", c.LogFile)
	return nil
}

func (c Config) Validate() error {
	if !validCompressionLevel(c.CompressionLevel) {
		return fmt.Errorf("compression_level %d out of range [%d, %d]",
			c.CompressionLevel, minCompressionLevel, maxCompressionLevel)
	}
	if c.MaxDataChunkSize < 0 {
		return fmt.Errorf("max_data_chunk_size must not be negative, got %d", c.MaxDataChunkSize)
	}
	if c.MaxChunkSize == 0 || c.MaxChunkSize > DefaultMaxChunkSize {
		return fmt.Errorf("max_chunk_size %d out of range [1, %d]", c.MaxChunkSize, DefaultMaxChunkSize)
	}
	return nil
}

func (c Config) DecoderOptions(log *zap.Logger) DecoderOptions {
	opts := DecoderOptions{
		Verify:          VerifyCRC,
		TolerateUnknown: c.TolerateUnknownChunks,
		MaxChunkSize:    c.MaxChunkSize,
		Logger:          log,
	}
	if !c.VerifyChecksums {
		opts.Verify = SkipVerification
	}
	return opts
}

func (c Config) EncoderOptions(log *zap.Logger) EncoderOptions {
	return EncoderOptions{
		Checksum:         CRC32,
		Level:            c.CompressionLevel,
		MaxDataChunkSize: c.MaxDataChunkSize,
		Logger:           log,
	}
}

func envString(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

// envInt ignores values that do not parse.
func envInt(key string, def int64) int64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envPrefix + key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
}
