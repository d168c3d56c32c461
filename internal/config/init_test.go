package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/codeecho/internal/utils"
)

// readTemplateKeys loads a written configuration file the way the loader does.
func readTemplateKeys(t *testing.T, path string) *viper.Viper {
	t.Helper()
	reader := viper.New()
	reader.SetConfigFile(path)
	if err := reader.ReadInConfig(); err != nil {
		t.Fatalf("parse written configuration %s: %v", path, err)
	}
	return reader
}

func TestInitializedTemplateCarriesDefaultKeys(t *testing.T) {
	workingDirectory := t.TempDir()
	path, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	if expectedPath := filepath.Join(workingDirectory, utils.LocalConfigFileName); path != expectedPath {
		t.Fatalf("expected default target %s, got %s", expectedPath, path)
	}

	written := readTemplateKeys(t, path)
	defaults := DefaultConfiguration()
	intKeys := map[string]int{
		"server.port":       defaults.Server.Port,
		"fetch.concurrency": defaults.Fetch.Concurrency,
	}
	for key, expected := range intKeys {
		if actual := written.GetInt(key); actual != expected {
			t.Fatalf("%s: expected %d, got %d", key, expected, actual)
		}
	}
	stringKeys := map[string]string{
		"server.host":         defaults.Server.Host,
		"github.api_base_url": defaults.GitHub.APIBaseURL,
		"github.user_agent":   defaults.GitHub.UserAgent,
		"tokens.model":        defaults.Tokens.Model,
		"log.level":           defaults.Log.Level,
	}
	for key, expected := range stringKeys {
		if actual := written.GetString(key); actual != expected {
			t.Fatalf("%s: expected %q, got %q", key, expected, actual)
		}
	}
	if timeout := written.GetDuration("server.write_timeout"); timeout != 120*time.Second {
		t.Fatalf("server.write_timeout: expected 2m, got %s", timeout)
	}
	if written.IsSet("github.token") {
		t.Fatalf("template must never carry a token")
	}
}

func TestInitializeConfigurationGlobalTarget(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)

	path, err := InitializeConfiguration(InitOptions{Target: InitTargetGlobal})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	expectedPath := filepath.Join(homeDir, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
	if path != expectedPath {
		t.Fatalf("expected %s, got %s", expectedPath, path)
	}
	if model := readTemplateKeys(t, path).GetString("tokens.model"); model != DefaultConfiguration().Tokens.Model {
		t.Fatalf("unexpected tokens.model %q", model)
	}
}

func TestInitializeConfigurationOverwrite(t *testing.T) {
	workingDirectory := t.TempDir()
	path := filepath.Join(workingDirectory, utils.LocalConfigFileName)
	if err := os.WriteFile(path, []byte("fetch:\n  concurrency: 9\n"), 0o600); err != nil {
		t.Fatalf("write seed config: %v", err)
	}

	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory}); err == nil {
		t.Fatalf("expected error when configuration already exists")
	}
	if concurrency := readTemplateKeys(t, path).GetInt("fetch.concurrency"); concurrency != 9 {
		t.Fatalf("existing file must be left alone, got concurrency %d", concurrency)
	}

	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Force: true}); err != nil {
		t.Fatalf("forced initialization failed: %v", err)
	}
	if concurrency := readTemplateKeys(t, path).GetInt("fetch.concurrency"); concurrency != DefaultConfiguration().Fetch.Concurrency {
		t.Fatalf("forced initialization should restore defaults, got concurrency %d", concurrency)
	}
}

func TestInitializeConfigurationRejectsUnknownTarget(t *testing.T) {
	if _, err := InitializeConfiguration(InitOptions{Target: InitTarget("system"), WorkingDirectory: t.TempDir()}); err == nil {
		t.Fatalf("expected error for unknown target")
	}
}
