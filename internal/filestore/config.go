package filestore

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMemory Provider = "memory"
	ProviderMinIO  Provider = "minio"
)

// Config holds all settings needed to connect to a file storage backend.
type Config struct {
	// Provider is the storage backend. Empty means ProviderMemory.
	Provider Provider `yaml:"provider" validate:"omitempty,oneof=memory minio"`

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string `yaml:"endpoint" validate:"required_if=Provider minio"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string `yaml:"region"`

	// Bucket holds every object SQLDesk writes. It is created on startup
	// when missing.
	Bucket string `yaml:"bucket"`
}

// DefaultBucket is used when Config.Bucket is empty.
const DefaultBucket = "sqldesk"

// DefaultConfig returns a sensible local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    DefaultBucket,
	}
}

// BucketName returns Bucket or DefaultBucket.
func (c *Config) BucketName() string {
	if c.Bucket == "" {
		return DefaultBucket
	}
	return c.Bucket
}
