package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Documents DocumentsConfig `yaml:"documents"`
	Blob      BlobConfig      `yaml:"blob"`
	Session   SessionConfig   `yaml:"session"`
	Identity  IdentityConfig  `yaml:"identity"`
	Auth      AuthConfig      `yaml:"auth"`
	Health    HealthConfig    `yaml:"health"`
	Log       LogConfig       `yaml:"log"`
}

// Document backend drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Blob backend drivers.
const (
	BlobDriverMinio  = "minio"
	BlobDriverS3     = "s3"
	BlobDriverMemory = "memory"
)

// DocumentsConfig selects and configures the document backend.
type DocumentsConfig struct {
	Driver          string        `yaml:"driver"             env:"DOCUMENTS_DRIVER"             env-default:"postgres"`
	DSN             string        `yaml:"dsn"                env:"DOCUMENTS_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DOCUMENTS_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DOCUMENTS_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DOCUMENTS_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DOCUMENTS_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DOCUMENTS_AUTO_MIGRATE"       env-default:"true"`
}

// BlobConfig selects and configures the blob backend.
type BlobConfig struct {
	Driver    string        `yaml:"driver"     env:"BLOB_DRIVER"     env-default:"minio"`
	Endpoint  string        `yaml:"endpoint"   env:"BLOB_ENDPOINT"`
	Region    string        `yaml:"region"     env:"BLOB_REGION"     env-default:"us-east-1"`
	Bucket    string        `yaml:"bucket"     env:"BLOB_BUCKET"     env-default:"promptboard"`
	AccessKey string        `yaml:"access_key" env:"BLOB_ACCESS_KEY"`
	SecretKey string        `yaml:"secret_key" env:"BLOB_SECRET_KEY"`
	UseSSL    bool          `yaml:"use_ssl"    env:"BLOB_USE_SSL"    env-default:"false"`
	URLExpiry time.Duration `yaml:"url_expiry" env:"BLOB_URL_EXPIRY" env-default:"168h"`
	// PublicURL prefixes download URLs of the memory driver.
	PublicURL string `yaml:"public_url" env:"BLOB_PUBLIC_URL" env-default:"http://localhost:8081/blobs"`
}

// SessionConfig holds session token and session store settings.
type SessionConfig struct {
	RedisURL string        `yaml:"redis_url" env:"SESSION_REDIS_URL" env-default:"redis://localhost:6379/0"`
	Secret   string        `yaml:"secret"    env:"SESSION_SECRET"    env-required:"true"`
	Issuer   string        `yaml:"issuer"    env:"SESSION_ISSUER"    env-default:"promptboard"`
	TTL      time.Duration `yaml:"ttl"       env:"SESSION_TTL"       env-default:"720h"`
}

// IdentityConfig holds anonymous identity settings.
type IdentityConfig struct {
	LookupURL      string        `yaml:"lookup_url"      env:"IDENTITY_LOOKUP_URL"      env-default:"https://www.cloudflare.com/cdn-cgi/trace"`
	FingerprintKey string        `yaml:"fingerprint_key" env:"IDENTITY_FINGERPRINT_KEY" env-required:"true"`
	Timeout        time.Duration `yaml:"timeout"         env:"IDENTITY_TIMEOUT"         env-default:"5s"`
}

// AuthConfig holds OAuth settings.
type AuthConfig struct {
	GoogleClientID     string `yaml:"google_client_id"     env:"AUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `yaml:"google_client_secret" env:"AUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `yaml:"google_redirect_uri"  env:"AUTH_GOOGLE_REDIRECT_URI"`
}

// HealthConfig holds the probe server settings.
type HealthConfig struct {
	Addr            string        `yaml:"addr"             env:"HEALTH_ADDR"             env-default:":8081"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HEALTH_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// HasGoogleOAuth reports whether Google sign-in is configured.
func (c AuthConfig) HasGoogleOAuth() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
