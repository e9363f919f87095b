// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	appValidation "github.com/allisson/kms-envelope/internal/validation"
)

// Key provider backends.
const (
	// ProviderAWSKMS calls AWS KMS GenerateDataKey directly.
	ProviderAWSKMS = "awskms"
	// ProviderKeeper wraps a local data key with a gocloud.dev/secrets keeper URL.
	ProviderKeeper = "keeper"
)

// Config holds all application configuration.
type Config struct {
	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// KMSProvider selects the key provider backend ("awskms" or "keeper").
	KMSProvider string
	// KMSKeyARN is the default master key: a KMS key id, key ARN or alias for
	// awskms, a keeper URL for keeper.
	KMSKeyARN string
	// KMSRegion overrides the AWS region of the default credential chain.
	KMSRegion string
	// KMSEndpoint overrides the AWS KMS endpoint URL.
	KMSEndpoint string
	// KMSTimeout bounds the data key request.
	KMSTimeout time.Duration

	// OutputSuffix is appended to the plaintext name to name the ciphertext.
	OutputSuffix string
	// OutputBucketURL is a gocloud.dev/blob bucket URL. Empty writes next to the plaintext.
	OutputBucketURL string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsTextfile is where metrics are written on exit, for the node_exporter
	// textfile collector. Empty disables the export.
	MetricsTextfile string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// KMS configuration
		KMSProvider: env.GetString("KMS_PROVIDER", ProviderAWSKMS),
		KMSKeyARN:   env.GetString("KMS_KEY_ARN", ""),
		KMSRegion:   env.GetString("KMS_REGION", ""),
		KMSEndpoint: env.GetString("KMS_ENDPOINT", ""),
		KMSTimeout:  env.GetDuration("KMS_TIMEOUT_SECONDS", 30, time.Second),

		// Output
		OutputSuffix:    env.GetString("OUTPUT_SUFFIX", ".enc"),
		OutputBucketURL: env.GetString("OUTPUT_BUCKET_URL", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "envelope"),
		MetricsTextfile:  env.GetString("METRICS_TEXTFILE", ""),
	}
}

// Validate checks the configuration values that the application cannot run without.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.KMSProvider,
			validation.Required,
			validation.In(ProviderAWSKMS, ProviderKeeper).Error("must be awskms or keeper"),
		),
		validation.Field(&c.KMSTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.OutputSuffix, validation.Required),
		validation.Field(&c.OutputBucketURL, appValidation.CloudURL),
		validation.Field(&c.MetricsNamespace, validation.When(c.MetricsEnabled, validation.Required)),
	)
	return appValidation.WrapValidationError(err)
}

// KeyIDRule returns the validation rule for master key identifiers of the
// configured provider.
func (c *Config) KeyIDRule() validation.Rule {
	if c.KMSProvider == ProviderKeeper {
		return appValidation.CloudURL
	}
	return appValidation.KMSKeyID
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
