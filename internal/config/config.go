// Package config loads SQLDesk settings from an optional YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. CLI flags are applied on top by cmd/sqldesk.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/sqldesk/internal/assistant"
	"github.com/koustreak/sqldesk/internal/builder"
	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/errs"
	"github.com/koustreak/sqldesk/internal/filestore"
	"github.com/koustreak/sqldesk/internal/history"
	"github.com/koustreak/sqldesk/internal/logger"
	"github.com/koustreak/sqldesk/internal/schemacache"
)

type Config struct {
	Server    Server                  `yaml:"server"`
	Log       logger.Config           `yaml:"log"`
	Database  database.PoolConfig     `yaml:"database"`
	Assistant assistant.Config        `yaml:"assistant"`
	FileStore filestore.Config        `yaml:"filestore"`
	Cache     schemacache.Config      `yaml:"cache"`
	History   History                 `yaml:"history"`
	Builder   builder.WorkspaceConfig `yaml:"builder"`
}

type Server struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxUploadBytes caps /api/import request bodies.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" validate:"gt=0"`
}

type History struct {
	Capacity int `yaml:"capacity" validate:"gte=0"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":3000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  64 << 20,
		},
		Log:       *logger.DefaultConfig(),
		Database:  *database.DefaultPoolConfig(),
		Assistant: assistant.DefaultConfig(),
		FileStore: filestore.Config{Provider: filestore.ProviderMemory, Bucket: filestore.DefaultBucket},
		Cache:     schemacache.DefaultConfig(),
		History:   History{Capacity: history.DefaultCapacity},
		Builder:   builder.DefaultWorkspaceConfig(),
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file "+path, err)
		}
		if err := decode(bytes.NewReader(raw), cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config file "+path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays the environment variables SQLDesk understands.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("SQLDESK_ADDR", &cfg.Server.Addr)
	str("SQLDESK_LOG_LEVEL", &cfg.Log.Level)
	str("SQLDESK_LOG_FORMAT", &cfg.Log.Format)
	str("GEMINI_API_KEY", &cfg.Assistant.APIKey)
	str("GEMINI_MODEL", &cfg.Assistant.Model)

	if v, ok := lookup("SQLDESK_MINIO_ENDPOINT"); ok && v != "" {
		cfg.FileStore.Provider = filestore.ProviderMinIO
		cfg.FileStore.Endpoint = v
	}
	str("SQLDESK_MINIO_ACCESS_KEY", &cfg.FileStore.AccessKey)
	str("SQLDESK_MINIO_SECRET_KEY", &cfg.FileStore.SecretKey)
	str("SQLDESK_MINIO_BUCKET", &cfg.FileStore.Bucket)

	if v, ok := lookup("SQLDESK_MINIO_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "SQLDESK_MINIO_USE_SSL must be a boolean", err)
		}
		cfg.FileStore.UseSSL = b
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errs.Wrap(errs.ErrKindInvalidInput,
				fmt.Sprintf("invalid config: %s failed %q", fe.Namespace(), fe.Tag()), err)
		}
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid config", err)
	}
	return nil
}
