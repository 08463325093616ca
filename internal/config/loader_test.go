package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unalkalkan/s3provider/pkg/types"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
server:
  host: "localhost"
  port: 9090
  read_timeout: 10
  write_timeout: 10

provider:
  bucket: "media"
  folder: "uploads"
  base_url: "https://cdn.example.com"
  endpoint: "http://localhost:9000"
  force_path_style: true
  credentials:
    access_key_id: "AKID"
    secret_access_key: "SECRET"
  params:
    CacheControl: "max-age=31536000"
  client_options:
    retry_max_attempts: "2"

log:
  level: "debug"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Load configuration
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Provider.Bucket != "media" {
		t.Errorf("Expected bucket 'media', got '%s'", cfg.Provider.Bucket)
	}
	if !cfg.Provider.ForcePathStyle {
		t.Error("Expected force_path_style to be true")
	}
	if cfg.Provider.Credentials.SecretAccessKey != "SECRET" {
		t.Error("Expected secret access key to be loaded")
	}
	if cfg.Provider.Params["CacheControl"] != "max-age=31536000" {
		t.Errorf("Expected CacheControl param, got %v", cfg.Provider.Params)
	}
	if cfg.Provider.ClientOptions["retry_max_attempts"] != "2" {
		t.Errorf("Expected retry_max_attempts client option, got %v", cfg.Provider.ClientOptions)
	}

	// Defaults survive a partial file
	if cfg.Provider.Region != "us-east-1" {
		t.Errorf("Expected default region 'us-east-1', got '%s'", cfg.Provider.Region)
	}
	if cfg.Provider.ACL != "public-read" {
		t.Errorf("Expected default ACL 'public-read', got '%s'", cfg.Provider.ACL)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected default log format 'json', got '%s'", cfg.Log.Format)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *types.Config {
		cfg := GetDefault()
		cfg.Provider.Bucket = "media"
		cfg.Provider.Credentials = types.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*types.Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *types.Config) {},
			wantErr: false,
		},
		{
			name: "invalid port",
			modify: func(c *types.Config) {
				c.Server.Port = 0
			},
			wantErr: true,
		},
		{
			name: "missing bucket",
			modify: func(c *types.Config) {
				c.Provider.Bucket = ""
			},
			wantErr: true,
		},
		{
			name: "missing credentials",
			modify: func(c *types.Config) {
				c.Provider.Credentials = types.Credentials{}
			},
			wantErr: true,
		},
		{
			name: "unknown request param",
			modify: func(c *types.Config) {
				c.Provider.Params = map[string]string{"Key": "fixed"}
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *types.Config) {
				c.Log.Level = "chatty"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := GetDefault()
	cfg.Provider = types.ProviderConfig{
		Bucket:      "media",
		Folder:      "/img/",
		Credentials: types.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"},
	}
	cfg.Server.MaxUploadSize = 0

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Provider.Region != "us-east-1" {
		t.Errorf("Expected default region, got '%s'", cfg.Provider.Region)
	}
	if cfg.Provider.Folder != "img" {
		t.Errorf("Expected trimmed folder 'img', got '%s'", cfg.Provider.Folder)
	}
	if cfg.Server.MaxUploadSize != 100<<20 {
		t.Errorf("Expected default max upload size, got %d", cfg.Server.MaxUploadSize)
	}
}

func TestEnvOverrides(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
server:
  host: "localhost"
  port: 8080
provider:
  bucket: "media"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Set environment variables
	t.Setenv("S3P_SERVER_PORT", "9999")
	t.Setenv("S3P_BUCKET", "override")
	t.Setenv("S3P_FORCE_PATH_STYLE", "true")
	t.Setenv("S3P_ACCESS_KEY_ID", "env-id")
	t.Setenv("S3P_SECRET_ACCESS_KEY", "env-secret")

	// Load configuration
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify environment overrides were applied
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env override, got %d", cfg.Server.Port)
	}
	if cfg.Provider.Bucket != "override" {
		t.Errorf("Expected bucket 'override' from env override, got '%s'", cfg.Provider.Bucket)
	}
	if !cfg.Provider.ForcePathStyle {
		t.Error("Expected force_path_style from env override")
	}
	if cfg.Provider.Credentials.AccessKeyID != "env-id" {
		t.Errorf("Expected access key id from env override, got '%s'", cfg.Provider.Credentials.AccessKeyID)
	}
}

func TestEnvOverridesInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")
	if err := os.WriteFile(configPath, []byte("provider:\n  bucket: media\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("S3P_SERVER_PORT", "eighty")
	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for non-numeric port override")
	}
}

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()
	if cfg == nil {
		t.Fatal("GetDefault() returned nil")
	}
	if cfg.Server.Port <= 0 {
		t.Error("Default config has invalid port")
	}
	if cfg.Provider.Region == "" {
		t.Error("Default config has empty region")
	}
}
