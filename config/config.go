// Package config loads client settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/auth"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Environment keys.
const (
	KeyProjectID          = "GCP_PROJECT_ID"
	KeyLocation           = "GCP_LOCATION"
	KeyClaudeLocation     = "GCP_CLAUDE_LOCATION"
	KeyToken              = "GCP_TOKEN"
	KeyServiceAccount     = "GCP_SERVICE_ACCOUNT"
	KeyServiceAccountFile = "GCP_SERVICE_ACCOUNT_FILE"
	KeyLogLevel           = "LOG_LEVEL"
)

// ErrMissingProject is returned when no project ID is configured.
var ErrMissingProject = errors.New("config: " + KeyProjectID + " is required")

// Config holds resolved settings.
type Config struct {
	ProjectID          string
	Location           string
	ClaudeLocation     string
	Token              string
	ServiceAccount     string
	ServiceAccountFile string
	LogLevel           zerolog.Level
}

// Options controls where Load reads from.
type Options struct {
	// EnvFile is loaded into the process environment when it exists.
	// Variables already set take precedence.
	EnvFile string
	// Lookup overrides environment lookup. Used in tests.
	Lookup func(key string) (string, bool)
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := godotenv.Load(opts.EnvFile); err != nil {
				return nil, fmt.Errorf("config: failed to load %s: %w", opts.EnvFile, err)
			}
		}
	}

	v := viper.New()
	v.SetDefault(KeyLocation, "us-central1")
	v.SetDefault(KeyClaudeLocation, "us-east5")
	v.SetDefault(KeyLogLevel, "info")

	keys := []string{
		KeyProjectID, KeyLocation, KeyClaudeLocation, KeyToken,
		KeyServiceAccount, KeyServiceAccountFile, KeyLogLevel,
	}
	if opts.Lookup != nil {
		for _, k := range keys {
			if val, ok := opts.Lookup(k); ok {
				v.Set(k, val)
			}
		}
	} else {
		v.AutomaticEnv()
		for _, k := range keys {
			if err := v.BindEnv(k); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	level, err := zerolog.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", KeyLogLevel, err)
	}

	cfg := &Config{
		ProjectID:          v.GetString(KeyProjectID),
		Location:           v.GetString(KeyLocation),
		ClaudeLocation:     v.GetString(KeyClaudeLocation),
		Token:              v.GetString(KeyToken),
		ServiceAccount:     v.GetString(KeyServiceAccount),
		ServiceAccountFile: v.GetString(KeyServiceAccountFile),
		LogLevel:           level,
	}
	if cfg.ProjectID == "" {
		return nil, ErrMissingProject
	}
	return cfg, nil
}

// TokenProvider picks the credential source: a static token first, then a
// service account key, then a key file, then application default
// credentials.
func (c *Config) TokenProvider() (vertex.TokenProvider, error) {
	var opts auth.DetectOptions
	switch {
	case c.Token != "":
		return auth.Static(c.Token), nil
	case c.ServiceAccount != "":
		opts.CredentialsJSON = []byte(c.ServiceAccount)
	case c.ServiceAccountFile != "":
		opts.CredentialsFile = c.ServiceAccountFile
	}
	creds, err := auth.Detect(opts)
	if err != nil {
		return nil, err
	}
	return creds, nil
}
