package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "whisper-scribe/internal/app/errors"
)

const (
	// MiB is the unit the remote API expresses its size ceiling in.
	MiB = 1024 * 1024

	DefaultFileLimitBytes   = 25 * MiB
	DefaultChunkBudgetBytes = 24 * MiB
	DefaultMaxUploadBytes   = 200 * MiB
	DefaultRatePerMinute    = 0.006
)

// Config is the merged runtime configuration. Values come from Default(),
// then an optional YAML file, then the process environment.
type Config struct {
	Env      string        `yaml:"env" env:"SCRIBE_ENV" validate:"oneof=development production"`
	LogLevel string        `yaml:"log_level" env:"SCRIBE_LOG_LEVEL"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Audio    AudioConfig   `yaml:"audio"`
	Server   ServerConfig  `yaml:"server"`
	History  HistoryConfig `yaml:"history"`
	Storage  StorageConfig `yaml:"storage"`
}

// OpenAIConfig configures the remote transcription API.
type OpenAIConfig struct {
	// APIKey is only ever read from the environment.
	APIKey         string        `yaml:"-" env:"OPENAI_API_KEY"`
	BaseURL        string        `yaml:"base_url" env:"OPENAI_BASE_URL" validate:"omitempty,url"`
	Model          string        `yaml:"model" env:"SCRIBE_MODEL" validate:"required"`
	Language       string        `yaml:"language" env:"SCRIBE_LANGUAGE"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SCRIBE_REQUEST_TIMEOUT" validate:"gt=0"`
}

// AudioConfig holds the chunking limits and the ffmpeg toolchain location.
type AudioConfig struct {
	FFmpegPath       string  `yaml:"ffmpeg_path" env:"SCRIBE_FFMPEG_PATH" validate:"required"`
	FFprobePath      string  `yaml:"ffprobe_path" env:"SCRIBE_FFPROBE_PATH" validate:"required"`
	FileLimitBytes   int64   `yaml:"file_limit_bytes" env:"SCRIBE_FILE_LIMIT_BYTES" validate:"gt=0"`
	ChunkBudgetBytes int64   `yaml:"chunk_budget_bytes" env:"SCRIBE_CHUNK_BUDGET_BYTES" validate:"gt=0,ltefield=FileLimitBytes"`
	RatePerMinute    float64 `yaml:"rate_per_minute" env:"SCRIBE_RATE_PER_MINUTE" validate:"gt=0"`
	ScratchRoot      string  `yaml:"scratch_root" env:"SCRIBE_SCRATCH_ROOT"`
	MaxUploadBytes   int64   `yaml:"max_upload_bytes" env:"SCRIBE_MAX_UPLOAD_BYTES" validate:"gt=0"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Host         string        `yaml:"host" env:"SCRIBE_HOST"`
	Port         string        `yaml:"port" env:"SCRIBE_PORT" validate:"required,numeric"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SCRIBE_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SCRIBE_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SCRIBE_IDLE_TIMEOUT"`
}

// HistoryConfig enables the transcription history store. Empty driver disables it.
type HistoryConfig struct {
	Driver string `yaml:"driver" env:"SCRIBE_HISTORY_DRIVER" validate:"omitempty,oneof=sqlite3 postgres"`
	DSN    string `yaml:"dsn" env:"SCRIBE_HISTORY_DSN" validate:"required_with=Driver"`
}

// StorageConfig enables artifact upload to an S3 compatible bucket. Empty
// endpoint disables it.
type StorageConfig struct {
	Endpoint  string        `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string        `yaml:"-" env:"MINIO_ACCESS_KEY" validate:"required_with=Endpoint"`
	SecretKey string        `yaml:"-" env:"MINIO_SECRET_KEY" validate:"required_with=Endpoint"`
	Bucket    string        `yaml:"bucket" env:"MINIO_BUCKET" validate:"required_with=Endpoint"`
	UseSSL    bool          `yaml:"use_ssl" env:"MINIO_USE_SSL"`
	URLExpiry time.Duration `yaml:"url_expiry" env:"MINIO_URL_EXPIRY"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Env: "production",
		OpenAI: OpenAIConfig{
			Model:          "whisper-1",
			RequestTimeout: 10 * time.Minute,
		},
		Audio: AudioConfig{
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
			FileLimitBytes:   DefaultFileLimitBytes,
			ChunkBudgetBytes: DefaultChunkBudgetBytes,
			RatePerMinute:    DefaultRatePerMinute,
			MaxUploadBytes:   DefaultMaxUploadBytes,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  2 * time.Minute,
		},
		Storage: StorageConfig{
			URLExpiry: time.Hour,
		},
	}
}

// LoadEnv loads environment variables from the first .env file found.
// A missing file is not an error: variables might be set system-wide.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}

	return nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the file
// keep their current value.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Load is the main entry point for configuration loading. It fails fast with
// ErrMissingCredential when no API key is available.
func Load(configPath string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if configPath != "" {
		if err := LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}

	cfg.OpenAI.APIKey = strings.TrimSpace(cfg.OpenAI.APIKey)
	if cfg.OpenAI.APIKey == "" {
		return nil, apperrors.WithKind(apperrors.ErrMissingCredential, apperrors.RequiredField("OPENAI_API_KEY"), "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of the merged configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the development environment is selected.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// HistoryEnabled reports whether a history store is configured.
func (c *Config) HistoryEnabled() bool {
	return c.History.Driver != ""
}

// StorageEnabled reports whether artifact upload is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}
