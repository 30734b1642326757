package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/file"
)

// PlaceholderSecretKey is the value shipped in example configuration. It is
// rejected before any network call is made.
const PlaceholderSecretKey = "sk_live_YOUR_SECRET_KEY_HERE"

// SecretKeyEnvVar overrides the configured secret key file when set.
const SecretKeyEnvVar = "STRIPE_SECRET_KEY"

// DefaultReaderType is the Terminal reader type registered when the
// configuration does not name one.
const DefaultReaderType = "tap_to_pay_android"

// Config represents the structure of the configuration file.
type Config struct {
	Stripe struct {
		APIBaseURL    string        `yaml:"api_base_url"`    // Stripe API base URL
		SecretKeyFile string        `yaml:"secret_key_file"` // Path to the file holding the secret key
		Timeout       time.Duration `yaml:"timeout"`         // Per-request timeout (in seconds, 0 = transport default)
	} `yaml:"stripe"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Services struct {
		Provisioning struct {
			LocationID string `yaml:"location_id"` // Terminal location the reader is bound to
			Label      string `yaml:"label"`       // Human-readable reader label
			ReaderType string `yaml:"reader_type"` // Terminal reader type
		} `yaml:"provisioning"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file and
// validates the fields the workflow cannot run without.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	if config.Services.Provisioning.LocationID == "" {
		return nil, errors.New("services.provisioning.location_id must be set")
	}
	if config.Services.Provisioning.Label == "" {
		return nil, errors.New("services.provisioning.label must be set")
	}
	if config.Services.Provisioning.ReaderType == "" {
		config.Services.Provisioning.ReaderType = DefaultReaderType
	}

	return &config, nil
}

// ResolveSecretKey resolves the Stripe secret key, preferring the environment
// variable over the configured key file. Missing and placeholder keys are
// configuration errors.
func ResolveSecretKey(config *Config, fileClient file.FileOperations) (string, error) {
	key := os.Getenv(SecretKeyEnvVar)

	if key == "" && config.Stripe.SecretKeyFile != "" {
		fileKey, err := fileClient.ReadFile(config.Stripe.SecretKeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read secret key file: %w", err)
		}
		key = fileKey
	}

	if key == "" {
		return "", errors.New("no Stripe secret key configured, set " + SecretKeyEnvVar + " or stripe.secret_key_file")
	}
	if key == PlaceholderSecretKey {
		return "", errors.New("the Stripe secret key is still the placeholder value, replace it with your live secret key")
	}

	return key, nil
}
