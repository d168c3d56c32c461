package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/codeecho/internal/commands"
	"github.com/temirov/codeecho/internal/githubapi"
	"github.com/temirov/codeecho/internal/tokenizer"
	"github.com/temirov/codeecho/internal/utils"
)

const (
	// GitHubTokenEnvironmentVariable is honored in addition to CODEECHO_GITHUB_TOKEN.
	GitHubTokenEnvironmentVariable = "GITHUB_TOKEN"

	defaultServerHost         = "0.0.0.0"
	defaultServerPort         = 8080
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 120 * time.Second
	defaultLogLevel           = "info"

	keyServerHost         = "server.host"
	keyServerPort         = "server.port"
	keyServerReadTimeout  = "server.read_timeout"
	keyServerWriteTimeout = "server.write_timeout"
	keyGitHubBaseURL      = "github.api_base_url"
	keyGitHubToken        = "github.token"
	keyGitHubUserAgent    = "github.user_agent"
	keyFetchConcurrency   = "fetch.concurrency"
	keyTokensModel        = "tokens.model"
	keyLogLevel           = "log.level"
)

// environmentKeys lists every key that may be overridden from the environment.
var environmentKeys = []string{
	keyServerHost,
	keyServerPort,
	keyServerReadTimeout,
	keyServerWriteTimeout,
	keyGitHubBaseURL,
	keyGitHubToken,
	keyGitHubUserAgent,
	keyFetchConcurrency,
	keyTokensModel,
	keyLogLevel,
}

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipGlobal disables the per-user configuration file.
	SkipGlobal bool
}

// ApplicationConfiguration holds the settings shared by the server and the CLI.
type ApplicationConfiguration struct {
	Server ServerConfiguration `mapstructure:"server"`
	GitHub GitHubConfiguration `mapstructure:"github"`
	Fetch  FetchConfiguration  `mapstructure:"fetch"`
	Tokens TokenConfiguration  `mapstructure:"tokens"`
	Log    LogConfiguration    `mapstructure:"log"`
}

// ServerConfiguration configures the HTTP listener.
type ServerConfiguration struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Address returns host:port.
func (config ServerConfiguration) Address() string {
	return fmt.Sprintf("%s:%d", config.Host, config.Port)
}

// GitHubConfiguration configures the upstream API client.
type GitHubConfiguration struct {
	APIBaseURL string `mapstructure:"api_base_url"`
	Token      string `mapstructure:"token"`
	UserAgent  string `mapstructure:"user_agent"`
}

// FetchConfiguration controls blob retrieval.
type FetchConfiguration struct {
	Concurrency int `mapstructure:"concurrency"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Model string `mapstructure:"model"`
}

// LogConfiguration controls the application logger.
type LogConfiguration struct {
	Level string `mapstructure:"level"`
}

// DefaultConfiguration returns the built-in settings.
func DefaultConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Server: ServerConfiguration{
			Host:         defaultServerHost,
			Port:         defaultServerPort,
			ReadTimeout:  defaultServerReadTimeout,
			WriteTimeout: defaultServerWriteTimeout,
		},
		GitHub: GitHubConfiguration{
			APIBaseURL: githubapi.DefaultBaseURL,
			UserAgent:  githubapi.DefaultUserAgent,
		},
		Fetch:  FetchConfiguration{Concurrency: commands.DefaultFetchConcurrency},
		Tokens: TokenConfiguration{Model: tokenizer.ApproximateModel},
		Log:    LogConfiguration{Level: defaultLogLevel},
	}
}

// LoadApplicationConfiguration layers the defaults, the global file, the
// local file and the environment, later layers winning.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	merged := DefaultConfiguration()

	if !options.SkipGlobal {
		if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
			globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
			globalConfig, loadErr := loadConfigurationFromPath(globalPath)
			if loadErr != nil {
				return ApplicationConfiguration{}, loadErr
			}
			merged = merged.Merge(globalConfig)
		}
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
		}
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	environmentConfig, environmentErr := loadConfigurationFromEnvironment()
	if environmentErr != nil {
		return ApplicationConfiguration{}, environmentErr
	}
	merged = merged.Merge(environmentConfig)

	if merged.Fetch.Concurrency < 1 {
		return ApplicationConfiguration{}, fmt.Errorf("fetch.concurrency must be at least 1, got %d", merged.Fetch.Concurrency)
	}
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// loadConfigurationFromEnvironment reads CODEECHO_* overrides, for example
// CODEECHO_SERVER_PORT for server.port, plus GITHUB_TOKEN.
func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range environmentKeys {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}
	if !reader.IsSet(keyGitHubToken) {
		if token, present := os.LookupEnv(GitHubTokenEnvironmentVariable); present {
			reader.Set(keyGitHubToken, token)
		}
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode environment configuration: %w", decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
// Zero values in override leave the receiver untouched.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Server = result.Server.merge(override.Server)
	result.GitHub = result.GitHub.merge(override.GitHub)
	if override.Fetch.Concurrency != 0 {
		result.Fetch.Concurrency = override.Fetch.Concurrency
	}
	if override.Tokens.Model != "" {
		result.Tokens.Model = override.Tokens.Model
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return result
}

func (config ServerConfiguration) merge(override ServerConfiguration) ServerConfiguration {
	result := config
	if override.Host != "" {
		result.Host = override.Host
	}
	if override.Port != 0 {
		result.Port = override.Port
	}
	if override.ReadTimeout != 0 {
		result.ReadTimeout = override.ReadTimeout
	}
	if override.WriteTimeout != 0 {
		result.WriteTimeout = override.WriteTimeout
	}
	return result
}

func (config GitHubConfiguration) merge(override GitHubConfiguration) GitHubConfiguration {
	result := config
	if override.APIBaseURL != "" {
		result.APIBaseURL = override.APIBaseURL
	}
	if override.Token != "" {
		result.Token = override.Token
	}
	if override.UserAgent != "" {
		result.UserAgent = override.UserAgent
	}
	return result
}
