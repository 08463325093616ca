package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/unalkalkan/s3provider/internal/logging"
	"github.com/unalkalkan/s3provider/pkg/storage"
	"github.com/unalkalkan/s3provider/pkg/types"
)

const envPrefix = "S3P_"

// Load reads and parses the configuration file
// It also supports environment variable overrides with S3P_ prefix
func Load(configPath string) (*types.Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML on top of the defaults
	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid and fills provider defaults
func Validate(cfg *types.Config) error {
	// Validate server config
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadSize <= 0 {
		cfg.Server.MaxUploadSize = 100 << 20 // default
	}

	// Validate provider config
	cfg.Provider = storage.WithDefaults(cfg.Provider)
	if err := storage.ValidateConfig(cfg.Provider); err != nil {
		return err
	}
	if _, err := storage.ParamsFromMap(cfg.Provider.Params); err != nil {
		return err
	}

	// Validate log config
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
// Environment variables should be prefixed with S3P_
func applyEnvOverrides(cfg *types.Config) error {
	// Server overrides
	if val := getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := getenv("SERVER_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %sSERVER_PORT: %w", envPrefix, err)
		}
		cfg.Server.Port = port
	}

	// Provider overrides
	p := &cfg.Provider
	if val := getenv("BUCKET"); val != "" {
		p.Bucket = val
	}
	if val := getenv("REGION"); val != "" {
		p.Region = val
	}
	if val := getenv("FOLDER"); val != "" {
		p.Folder = val
	}
	if val := getenv("BASE_URL"); val != "" {
		p.BaseURL = val
	}
	if val := getenv("ENDPOINT"); val != "" {
		p.Endpoint = val
	}
	if val := getenv("FORCE_PATH_STYLE"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %sFORCE_PATH_STYLE: %w", envPrefix, err)
		}
		p.ForcePathStyle = b
	}
	if val := getenv("ACCESS_KEY_ID"); val != "" {
		p.Credentials.AccessKeyID = val
	}
	if val := getenv("SECRET_ACCESS_KEY"); val != "" {
		p.Credentials.SecretAccessKey = val
	}

	// Log overrides
	if val := getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}

	return nil
}

func getenv(name string) string {
	return os.Getenv(envPrefix + name)
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			ReadTimeout:   60,
			WriteTimeout:  60,
			MaxUploadSize: 100 << 20,
		},
		Provider: types.ProviderConfig{
			Region: storage.DefaultRegion,
			ACL:    storage.DefaultACL,
			Upload: types.UploadOpts{
				Concurrency: storage.DefaultConcurrency,
			},
		},
		Log: types.LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
