package utils

const (
	// ApplicationName is the binary and configuration name.
	ApplicationName = "codeecho"
	// GlobalConfigDirectoryName is the per-user configuration directory.
	GlobalConfigDirectoryName = ".codeecho"
	// ConfigFileName is the configuration file looked up in the working and global directories.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = "codeecho.yaml"
	// EnvironmentPrefix prefixes every environment override.
	EnvironmentPrefix = "CODEECHO"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"

	// LoggerInitializationFailedMessageFormat reports logger construction failures.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "application execution failed"
)
