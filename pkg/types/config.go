package types

// Config represents the overall application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host          string `yaml:"host" json:"host"`
	Port          int    `yaml:"port" json:"port"`
	ReadTimeout   int    `yaml:"read_timeout" json:"read_timeout"`       // seconds
	WriteTimeout  int    `yaml:"write_timeout" json:"write_timeout"`     // seconds
	MaxUploadSize int64  `yaml:"max_upload_size" json:"max_upload_size"` // bytes
}

// ProviderConfig configures the S3 upload provider.
// It is copied when the provider is created and never changed afterwards.
type ProviderConfig struct {
	Bucket         string            `yaml:"bucket" json:"bucket"`
	Folder         string            `yaml:"folder" json:"folder"`
	BaseURL        string            `yaml:"base_url" json:"base_url"`
	Region         string            `yaml:"region" json:"region"`
	Endpoint       string            `yaml:"endpoint" json:"endpoint"`
	ForcePathStyle bool              `yaml:"force_path_style" json:"force_path_style"`
	ACL            string            `yaml:"acl" json:"acl"`
	Credentials    Credentials       `yaml:"credentials" json:"-"`
	Upload         UploadOpts        `yaml:"upload" json:"upload"`
	Params         map[string]string `yaml:"params" json:"params"`                 // default request params for every upload
	ClientOptions  map[string]string `yaml:"client_options" json:"client_options"` // passed through to the S3 client
}

// Credentials holds static backend credentials
type Credentials struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// UploadOpts tunes the multipart uploader
type UploadOpts struct {
	PartSizeMB        int64 `yaml:"part_size_mb" json:"part_size_mb"`
	Concurrency       int   `yaml:"concurrency" json:"concurrency"`
	LeavePartsOnError bool  `yaml:"leave_parts_on_error" json:"leave_parts_on_error"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console
}
