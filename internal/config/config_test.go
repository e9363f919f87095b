package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/allisson/kms-envelope/internal/errors"
	appValidation "github.com/allisson/kms-envelope/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, ProviderAWSKMS, cfg.KMSProvider)
				assert.Empty(t, cfg.KMSKeyARN)
				assert.Empty(t, cfg.KMSRegion)
				assert.Empty(t, cfg.KMSEndpoint)
				assert.Equal(t, 30*time.Second, cfg.KMSTimeout)
				assert.Equal(t, ".enc", cfg.OutputSuffix)
				assert.Empty(t, cfg.OutputBucketURL)
				assert.False(t, cfg.MetricsEnabled)
				assert.Equal(t, "envelope", cfg.MetricsNamespace)
				assert.Empty(t, cfg.MetricsTextfile)
			},
		},
		{
			name: "load custom kms configuration",
			envVars: map[string]string{
				"KMS_PROVIDER":        "keeper",
				"KMS_KEY_ARN":         "awskms:///alias/vendor-files?region=eu-west-1",
				"KMS_REGION":          "eu-west-1",
				"KMS_ENDPOINT":        "http://localhost:4566",
				"KMS_TIMEOUT_SECONDS": "5",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ProviderKeeper, cfg.KMSProvider)
				assert.Equal(t, "awskms:///alias/vendor-files?region=eu-west-1", cfg.KMSKeyARN)
				assert.Equal(t, "eu-west-1", cfg.KMSRegion)
				assert.Equal(t, "http://localhost:4566", cfg.KMSEndpoint)
				assert.Equal(t, 5*time.Second, cfg.KMSTimeout)
			},
		},
		{
			name: "load custom output configuration",
			envVars: map[string]string{
				"OUTPUT_SUFFIX":     ".cse",
				"OUTPUT_BUCKET_URL": "s3://vendor-drop",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".cse", cfg.OutputSuffix)
				assert.Equal(t, "s3://vendor-drop", cfg.OutputBucketURL)
			},
		},
		{
			name: "load custom metrics configuration",
			envVars: map[string]string{
				"METRICS_ENABLED":   "true",
				"METRICS_NAMESPACE": "files",
				"METRICS_TEXTFILE":  "/var/lib/node_exporter/envelope.prom",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "files", cfg.MetricsNamespace)
				assert.Equal(t, "/var/lib/node_exporter/envelope.prom", cfg.MetricsTextfile)
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg := Load()

			tt.validate(t, cfg)
		})
	}
}

func validConfig() *Config {
	return &Config{
		LogLevel:         "info",
		KMSProvider:      ProviderAWSKMS,
		KMSTimeout:       30 * time.Second,
		OutputSuffix:     ".enc",
		MetricsNamespace: "envelope",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		shouldErr bool
		errMsg    string
	}{
		{name: "defaults are valid", mutate: func(cfg *Config) {}},
		{name: "keeper provider", mutate: func(cfg *Config) { cfg.KMSProvider = ProviderKeeper }},
		{name: "bucket url", mutate: func(cfg *Config) { cfg.OutputBucketURL = "gs://vendor-drop" }},
		{
			name:      "unknown provider",
			mutate:    func(cfg *Config) { cfg.KMSProvider = "vault" },
			shouldErr: true,
			errMsg:    "must be awskms or keeper",
		},
		{
			name:      "unknown log level",
			mutate:    func(cfg *Config) { cfg.LogLevel = "trace" },
			shouldErr: true,
		},
		{
			name:      "zero timeout",
			mutate:    func(cfg *Config) { cfg.KMSTimeout = 0 },
			shouldErr: true,
		},
		{
			name:      "timeout below one second",
			mutate:    func(cfg *Config) { cfg.KMSTimeout = 500 * time.Millisecond },
			shouldErr: true,
		},
		{
			name:      "empty suffix",
			mutate:    func(cfg *Config) { cfg.OutputSuffix = "" },
			shouldErr: true,
		},
		{
			name:      "bucket without scheme",
			mutate:    func(cfg *Config) { cfg.OutputBucketURL = "vendor-drop" },
			shouldErr: true,
		},
		{
			name: "metrics without namespace",
			mutate: func(cfg *Config) {
				cfg.MetricsEnabled = true
				cfg.MetricsNamespace = ""
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.shouldErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_KeyIDRule(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, appValidation.KMSKeyID, cfg.KeyIDRule())

	cfg.KMSProvider = ProviderKeeper
	assert.Equal(t, appValidation.CloudURL, cfg.KeyIDRule())
}
