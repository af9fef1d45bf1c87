package config

import "time"

// Config holds regdesk configuration.
// Stored at: {home}/config.yaml (or ./config.yaml)
type Config struct {
	API        APIConfig        `mapstructure:"api" yaml:"api" json:"api"`
	Cognito    CognitoConfig    `mapstructure:"cognito" yaml:"cognito" json:"cognito"`
	Normalizer NormalizerConfig `mapstructure:"normalizer" yaml:"normalizer" json:"normalizer"`
	Session    SessionConfig    `mapstructure:"session" yaml:"session" json:"session"`
}

// APIConfig holds the API Gateway endpoints.
type APIConfig struct {
	AuthURL        string `mapstructure:"auth_url" yaml:"auth_url" json:"auth_url"`                      // Token endpoint (client credentials)
	DocumentsURL   string `mapstructure:"documents_url" yaml:"documents_url" json:"documents_url"`       // Catalog endpoint
	GenerateURL    string `mapstructure:"generate_url" yaml:"generate_url" json:"generate_url"`          // Analysis endpoint
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"` // Per-request timeout
}

// CognitoConfig holds the client-credentials grant parameters.
// Values support ${ENV_VAR} syntax.
type CognitoConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id" json:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret" json:"client_secret"`
	Scope        string `mapstructure:"scope" yaml:"scope" json:"scope"`
}

// NormalizerConfig tunes result normalization.
type NormalizerConfig struct {
	// Placeholder replaces sections that are missing or malformed.
	Placeholder string `mapstructure:"placeholder" yaml:"placeholder" json:"placeholder"`
	// Aliases maps a canonical section name to extra wire keys to look up.
	Aliases map[string][]string `mapstructure:"aliases" yaml:"aliases" json:"aliases"`
}

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes" yaml:"ttl_minutes" json:"ttl_minutes"`
}

// DefaultTimeout is used when api.timeout_seconds is unset or invalid.
const DefaultTimeout = 30 * time.Second

// DefaultSessionTTL is used when session.ttl_minutes is unset or invalid.
const DefaultSessionTTL = 2 * time.Hour

// DefaultConfig returns configuration with sensible defaults.
// Endpoints and credentials reference environment variables so secrets
// can live in the environment or a .env file.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			AuthURL:        "${REGDESK_AUTH_URL}",
			DocumentsURL:   "${REGDESK_DOCUMENTS_URL}",
			GenerateURL:    "${REGDESK_GENERATE_URL}",
			TimeoutSeconds: 30,
		},
		Cognito: CognitoConfig{
			ClientID:     "${REGDESK_CLIENT_ID}",
			ClientSecret: "${REGDESK_CLIENT_SECRET}",
			Scope:        "${REGDESK_SCOPE}",
		},
		Normalizer: NormalizerConfig{},
		Session: SessionConfig{
			TTLMinutes: 120,
		},
	}
}

// Timeout returns the gateway request timeout.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// SessionTTL returns how long an idle session is kept.
func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLMinutes <= 0 {
		return DefaultSessionTTL
	}
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// Masked returns a copy with the client secret hidden, for display.
func (c *Config) Masked() *Config {
	out := *c
	if out.Cognito.ClientSecret != "" {
		out.Cognito.ClientSecret = "********"
	}
	return &out
}
