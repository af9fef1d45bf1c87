package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const fullConfig = `
api:
  auth_url: "https://auth.example.com/oauth2/token"
  documents_url: "https://api.example.com/documents"
  generate_url: "https://api.example.com/generate"
  timeout_seconds: 12
cognito:
  client_id: "client-123"
  client_secret: "${TEST_REGDESK_SECRET}"
  scope: "genai-api/write genai-api/read"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.AuthURL != "${REGDESK_AUTH_URL}" {
		t.Errorf("expected auth_url placeholder, got %s", cfg.API.AuthURL)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Timeout())
	}
	if cfg.SessionTTL() != 2*time.Hour {
		t.Errorf("expected 2h session ttl, got %s", cfg.SessionTTL())
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})

	t.Run("expands inside a larger string", func(t *testing.T) {
		t.Setenv("TEST_HOST", "api.example.com")

		result := ResolveEnvVars("https://${TEST_HOST}/documents")
		if result != "https://api.example.com/documents" {
			t.Errorf("unexpected expansion: %s", result)
		}
	})
}

func TestConfig_Timeout(t *testing.T) {
	tests := []struct {
		seconds int
		want    time.Duration
	}{
		{0, DefaultTimeout},
		{-5, DefaultTimeout},
		{45, 45 * time.Second},
	}
	for _, tt := range tests {
		cfg := &Config{API: APIConfig{TimeoutSeconds: tt.seconds}}
		if got := cfg.Timeout(); got != tt.want {
			t.Errorf("Timeout() with %d = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("all keys present", func(t *testing.T) {
		t.Setenv("TEST_REGDESK_SECRET", "s3cret")
		cfg := &Config{
			API: APIConfig{
				AuthURL:      "https://auth",
				DocumentsURL: "https://docs",
				GenerateURL:  "https://gen",
			},
			Cognito: CognitoConfig{
				ClientID:     "id",
				ClientSecret: "${TEST_REGDESK_SECRET}",
				Scope:        "scope",
			},
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("reports every missing key", func(t *testing.T) {
		cfg := &Config{
			API: APIConfig{AuthURL: "https://auth"},
			Cognito: CognitoConfig{
				ClientID:     "id",
				ClientSecret: "${DEFINITELY_NOT_SET_12345}",
			},
		}
		err := cfg.Validate()
		if !errors.Is(err, ErrMissingKeys) {
			t.Fatalf("expected ErrMissingKeys, got %v", err)
		}
		for _, key := range []string{"api.documents_url", "api.generate_url", "cognito.client_secret", "cognito.scope"} {
			if !strings.Contains(err.Error(), key) {
				t.Errorf("expected %s in error, got %v", key, err)
			}
		}
		if strings.Contains(err.Error(), "api.auth_url") {
			t.Errorf("auth_url should not be reported missing: %v", err)
		}
	})

	t.Run("defaults fail without environment", func(t *testing.T) {
		if err := DefaultConfig().Validate(); !errors.Is(err, ErrMissingKeys) {
			t.Errorf("expected defaults to fail validation, got %v", err)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		t.Setenv("TEST_REGDESK_SECRET", "from-env")

		mgr, err := NewManager(writeConfig(t, fullConfig))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.API.DocumentsURL != "https://api.example.com/documents" {
			t.Errorf("unexpected documents_url %s", cfg.API.DocumentsURL)
		}
		if cfg.Timeout() != 12*time.Second {
			t.Errorf("expected 12s timeout, got %s", cfg.Timeout())
		}
		if got := cfg.Resolved().Cognito.ClientSecret; got != "from-env" {
			t.Errorf("expected resolved secret from-env, got %s", got)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("applies defaults for unset keys", func(t *testing.T) {
		mgr, err := NewManager(writeConfig(t, "api:\n  auth_url: \"https://auth\"\n"))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.API.TimeoutSeconds != 30 {
			t.Errorf("expected default timeout 30, got %d", cfg.API.TimeoutSeconds)
		}
		if cfg.Cognito.Scope != "${REGDESK_SCOPE}" {
			t.Errorf("expected default scope reference, got %s", cfg.Cognito.Scope)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("REGDESK_API_TIMEOUT_SECONDS", "90")

		mgr, err := NewManager(writeConfig(t, fullConfig))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().Timeout(); got != 90*time.Second {
			t.Errorf("expected 90s from env, got %s", got)
		}
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		if _, err := NewManager(writeConfig(t, "api: [unclosed")); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("TEST_REGDESK_DOTENV=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("TEST_REGDESK_DOTENV", "")
	os.Unsetenv("TEST_REGDESK_DOTENV")

	LoadDotEnv(envFile, filepath.Join(t.TempDir(), "missing.env"))

	if got := ResolveEnvVars("${TEST_REGDESK_DOTENV}"); got != "from-dotenv" {
		t.Errorf("expected from-dotenv, got %q", got)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.API.GenerateURL
			}
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, fullConfig)

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.API.GenerateURL)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(fullConfig, "https://api.example.com/generate", "https://api.example.com/v2/generate", 1)
	if err := os.WriteFile(configFile, []byte(updated), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// fsnotify is async
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().API.GenerateURL; got != "https://api.example.com/v2/generate" {
		t.Errorf("config not updated: got %s", got)
	}
	if v := lastValue.Load(); v != "https://api.example.com/v2/generate" {
		t.Errorf("callback received wrong value: %v", v)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to load written default: %v", err)
	}
	cfg := mgr.Get()
	if cfg.API.GenerateURL != "${REGDESK_GENERATE_URL}" {
		t.Errorf("unexpected generate_url %s", cfg.API.GenerateURL)
	}
	if cfg.Session.TTLMinutes != 120 {
		t.Errorf("unexpected ttl %d", cfg.Session.TTLMinutes)
	}
}

func TestConfig_Masked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cognito.ClientSecret = "s3cret"
	masked := cfg.Masked()
	if masked.Cognito.ClientSecret != "********" {
		t.Errorf("ClientSecret = %q, want masked", masked.Cognito.ClientSecret)
	}
	if cfg.Cognito.ClientSecret != "s3cret" {
		t.Error("Masked() must not modify the original")
	}
}
