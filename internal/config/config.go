package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// ErrMissingKeys is returned by Validate when required settings are empty.
var ErrMissingKeys = errors.New("missing required configuration keys")

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// A .env file in the working directory is loaded first so ${ENV_VAR}
// references can be satisfied from it.
func NewManager(cfgFile string) (*Manager, error) {
	LoadDotEnv()

	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// LoadDotEnv loads environment variables from the given files (default .env).
// Missing files are ignored; variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	defaults := DefaultConfig()
	v.SetDefault("api.auth_url", defaults.API.AuthURL)
	v.SetDefault("api.documents_url", defaults.API.DocumentsURL)
	v.SetDefault("api.generate_url", defaults.API.GenerateURL)
	v.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)
	v.SetDefault("cognito.client_id", defaults.Cognito.ClientID)
	v.SetDefault("cognito.client_secret", defaults.Cognito.ClientSecret)
	v.SetDefault("cognito.scope", defaults.Cognito.Scope)
	v.SetDefault("normalizer.placeholder", defaults.Normalizer.Placeholder)
	v.SetDefault("session.ttl_minutes", defaults.Session.TTLMinutes)

	// Environment variables with REGDESK_ prefix, e.g. REGDESK_API_TIMEOUT_SECONDS
	v.SetEnvPrefix("REGDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.regdesk")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// Resolved returns a copy of the config with all ${ENV_VAR} references
// in endpoints and credentials expanded.
func (c *Config) Resolved() *Config {
	out := *c
	out.API.AuthURL = strings.TrimSpace(ResolveEnvVars(c.API.AuthURL))
	out.API.DocumentsURL = strings.TrimSpace(ResolveEnvVars(c.API.DocumentsURL))
	out.API.GenerateURL = strings.TrimSpace(ResolveEnvVars(c.API.GenerateURL))
	out.Cognito.ClientID = ResolveEnvVars(c.Cognito.ClientID)
	out.Cognito.ClientSecret = ResolveEnvVars(c.Cognito.ClientSecret)
	out.Cognito.Scope = ResolveEnvVars(c.Cognito.Scope)
	out.Normalizer.Placeholder = ResolveEnvVars(c.Normalizer.Placeholder)
	return &out
}

// Validate checks that every required key is set after env resolution.
// The returned error lists all missing keys at once.
func (c *Config) Validate() error {
	r := c.Resolved()
	required := []struct {
		key   string
		value string
	}{
		{"api.auth_url", r.API.AuthURL},
		{"api.documents_url", r.API.DocumentsURL},
		{"api.generate_url", r.API.GenerateURL},
		{"cognito.client_id", r.Cognito.ClientID},
		{"cognito.client_secret", r.Cognito.ClientSecret},
		{"cognito.scope", r.Cognito.Scope},
	}

	var missing []string
	for _, req := range required {
		if req.value == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}
	return nil
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# regdesk configuration
# Endpoints and credentials use ${ENV_VAR} syntax to reference environment variables.
# Set them in your shell or in a .env file next to the binary:
#   REGDESK_AUTH_URL, REGDESK_DOCUMENTS_URL, REGDESK_GENERATE_URL,
#   REGDESK_CLIENT_ID, REGDESK_CLIENT_SECRET, REGDESK_SCOPE

`)
	return os.WriteFile(path, append(header, data...), 0o600)
}
