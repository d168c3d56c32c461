// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/codeecho/internal/commands"
	"github.com/temirov/codeecho/internal/config"
	"github.com/temirov/codeecho/internal/githubapi"
	"github.com/temirov/codeecho/internal/output"
	"github.com/temirov/codeecho/internal/server"
	"github.com/temirov/codeecho/internal/services/clipboard"
	"github.com/temirov/codeecho/internal/tokenizer"
	"github.com/temirov/codeecho/internal/types"
	"github.com/temirov/codeecho/internal/utils"
)

const (
	exclusionFlagName      = "e"
	exclusionsJSONFlagName = "exclusions"
	exclusionsFileFlagName = "exclusions-file"
	branchFlagName         = "branch"
	formatFlagName         = "format"
	summaryFlagName        = "summary"
	sizesFlagName          = "sizes"
	modelFlagName          = "model"
	concurrencyFlagName    = "concurrency"
	copyFlagName           = "copy"
	tokenFlagName          = "token"
	configFlagName         = "config"
	logLevelFlagName       = "log-level"
	hostFlagName           = "host"
	portFlagName           = "port"
	globalFlagName         = "global"
	forceFlagName          = "force"
	versionFlagName        = "version"
	versionTemplate        = "codeecho version: %s\n"
	rootUse                = "codeecho"
	rootShortDescription   = "codeecho command line interface"
	rootLongDescription    = `codeecho flattens a GitHub repository into a single text document.
It renders the folder tree, concatenates text files and estimates the token count.
Use serve to run the HTTP API, tree to inspect a repository and export to produce the document.`
	versionFlagDescription = "display application version"
	serveUse               = "serve"
	treeUse                = "tree <owner/repo>"
	exportUse              = "export <owner/repo>"
	initUse                = "init"
	treeAlias              = "t"
	exportAlias            = "x"
	serveShortDescription  = "run the HTTP API"
	treeShortDescription   = "display repository folder tree (" + treeAlias + ")"
	exportShortDescription = "flatten repository into one document (" + exportAlias + ")"
	initShortDescription   = "write a default configuration file"

	// treeLongDescription provides detailed help for the tree command.
	treeLongDescription = `List the folders and files of a repository branch with aggregated sizes.
Use --format to select raw or json output.`
	// treeUsageExample demonstrates tree command usage.
	treeUsageExample = `  # Render the tree with sizes
  codeecho tree octo/repo --branch main --sizes

  # Emit the tree as JSON
  codeecho tree octo/repo --branch main --format json`

	// exportLongDescription provides detailed help for the export command.
	exportLongDescription = `Produce the flattened document: folder structure followed by every text file.
Paths starting with an exclusion prefix are omitted. Binary files are skipped.`
	// exportUsageExample demonstrates export command usage.
	exportUsageExample = `  # Export without the vendor directory and copy the result
  codeecho export octo/repo --branch main -e vendor --copy

  # Count tokens with an OpenAI tokenizer
  codeecho export octo/repo --branch main --model gpt-4o --format json`

	exclusionFlagDescription      = "exclude path prefix"
	exclusionsJSONFlagDescription = "exclusions as a JSON array of path prefixes"
	exclusionsFileFlagDescription = "file listing one exclusion prefix per line"
	branchFlagDescription         = "branch to read"
	formatFlagDescription         = "output format (raw or json)"
	summaryFlagDescription        = "print a summary line to stderr"
	sizesFlagDescription          = "show aggregated sizes in raw output"
	modelFlagDescription          = "tokenizer model (approximate or an OpenAI model name)"
	concurrencyFlagDescription    = "number of files fetched at once"
	copyFlagDescription           = "copy output to clipboard"
	tokenFlagDescription          = "GitHub access token"
	configFlagDescription         = "configuration file path"
	logLevelFlagDescription       = "log level (debug, info, warn, error)"
	hostFlagDescription           = "listen host"
	portFlagDescription           = "listen port"
	globalFlagDescription         = "write the per-user configuration instead of the local one"
	forceFlagDescription          = "overwrite an existing configuration file"

	invalidFormatMessage          = "Invalid format value '%s'"
	invalidRepositoryMessage      = "repository must be in owner/repo form, got '%s'"
	warningMalformedExclusions    = "Warning: ignoring malformed exclusions: %v\n"
	warningClipboardFormat        = "Warning: failed to copy to clipboard: %v\n"
	configurationWrittenFormat    = "configuration written to %s\n"
	shutdownTimeout               = 10 * time.Second
	errorLoadConfigurationFormat  = "load configuration: %w"
	errorCreateSourceFormat       = "create GitHub client: %w"
	errorCreateTokenCounterFormat = "create token counter: %w"
)

// SourceFactory creates the repository source used by the tree and export commands.
type SourceFactory func(ctx context.Context, settings config.GitHubConfiguration, logger *zap.Logger) (server.RepositorySource, error)

// dependencies are the collaborators of the command tree.
type dependencies struct {
	sourceFactory SourceFactory
	copier        clipboard.Copier
	stdout        io.Writer
	stderr        io.Writer
	environment   config.LoadOptions
}

// application holds state resolved before a subcommand runs.
type application struct {
	dependencies
	configuration config.ApplicationConfiguration
	logger        *zap.Logger
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON:
		return true
	default:
		return false
	}
}

// Execute runs the codeecho application.
func Execute() error {
	rootCommand := createRootCommand(dependencies{
		sourceFactory: newGitHubSource,
		copier:        clipboard.NewService(),
		stdout:        os.Stdout,
		stderr:        os.Stderr,
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

func newGitHubSource(ctx context.Context, settings config.GitHubConfiguration, logger *zap.Logger) (server.RepositorySource, error) {
	client, clientError := githubapi.NewClient(ctx, githubapi.Config{
		BaseURL:   settings.APIBaseURL,
		Token:     settings.Token,
		UserAgent: settings.UserAgent,
	}, logger)
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	var showVersion bool
	var configPath string
	var token string
	var logLevel string
	app := &application{dependencies: deps}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(app.stdout, versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			loadOptions := app.environment
			loadOptions.ExplicitFilePath = configPath
			configuration, loadError := config.LoadApplicationConfiguration(loadOptions)
			if loadError != nil {
				return fmt.Errorf(errorLoadConfigurationFormat, loadError)
			}
			if strings.TrimSpace(token) != "" {
				configuration.GitHub.Token = token
			}
			if strings.TrimSpace(logLevel) != "" {
				configuration.Log.Level = logLevel
			}
			logger, loggerError := utils.NewLeveledLogger(configuration.Log.Level)
			if loggerError != nil {
				return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
			}
			app.configuration = configuration
			app.logger = logger
			return nil
		},
		PersistentPostRun: func(command *cobra.Command, arguments []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}
	rootCommand.SetOut(deps.stdout)
	rootCommand.SetErr(deps.stderr)
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&configPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&token, tokenFlagName, "", tokenFlagDescription)
	rootCommand.PersistentFlags().StringVar(&logLevel, logLevelFlagName, "", logLevelFlagDescription)
	rootCommand.AddCommand(
		createServeCommand(app),
		createTreeCommand(app),
		createExportCommand(app),
		createInitCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// repositoryOptions stores flags shared by tree and export.
type repositoryOptions struct {
	branch          string
	outputFormat    string
	summaryEnabled  bool
	copyToClipboard bool
}

func addRepositoryFlags(command *cobra.Command, options *repositoryOptions) {
	command.Flags().StringVar(&options.branch, branchFlagName, "", branchFlagDescription)
	command.Flags().StringVar(&options.outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(command.Flags(), &options.summaryEnabled, summaryFlagName, true, summaryFlagDescription)
	registerBooleanFlag(command.Flags(), &options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	_ = command.MarkFlagRequired(branchFlagName)
}

func (options repositoryOptions) format() (string, error) {
	outputFormatLower := strings.ToLower(strings.TrimSpace(options.outputFormat))
	if !isSupportedFormat(outputFormatLower) {
		return "", fmt.Errorf(invalidFormatMessage, outputFormatLower)
	}
	return outputFormatLower, nil
}

// parseRepository splits "owner/repo".
func parseRepository(argument string) (types.Repository, error) {
	owner, name, found := strings.Cut(strings.TrimSpace(argument), "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return types.Repository{}, fmt.Errorf(invalidRepositoryMessage, argument)
	}
	return types.Repository{Owner: owner, Name: name}, nil
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(app *application) *cobra.Command {
	var options repositoryOptions
	var showSizes bool

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			outputFormat, formatError := options.format()
			if formatError != nil {
				return formatError
			}
			repository, repositoryError := parseRepository(arguments[0])
			if repositoryError != nil {
				return repositoryError
			}
			source, sourceError := app.sourceFactory(command.Context(), app.configuration.GitHub, app.logger)
			if sourceError != nil {
				return fmt.Errorf(errorCreateSourceFormat, sourceError)
			}
			request := types.RepositoryRequest{Repository: repository, Branch: options.branch}
			root, structureError := commands.GetFolderStructure(command.Context(), source, request, app.logger)
			if structureError != nil {
				return structureError
			}

			var rendered string
			if outputFormat == types.FormatJSON {
				encoded, renderError := output.RenderJSON(root)
				if renderError != nil {
					return renderError
				}
				rendered = encoded + "\n"
			} else {
				var builder strings.Builder
				output.WriteTree(&builder, root, output.TreeRenderOptions{ShowSizes: showSizes})
				rendered = builder.String()
			}
			fmt.Fprint(app.stdout, rendered)
			if options.summaryEnabled && outputFormat == types.FormatRaw {
				fmt.Fprintln(app.stderr, output.FormatTreeSummaryLine(commands.CountFiles(root), root.Size))
			}
			app.copyIfRequested(options.copyToClipboard, rendered)
			return nil
		},
	}

	addRepositoryFlags(treeCommand, &options)
	registerBooleanFlag(treeCommand.Flags(), &showSizes, sizesFlagName, false, sizesFlagDescription)
	return treeCommand
}

// exportOptions stores flags specific to the export command.
type exportOptions struct {
	exclusionPatterns []string
	exclusionsJSON    string
	exclusionsFile    string
	model             string
	concurrency       int
}

// createExportCommand returns the export subcommand.
func createExportCommand(app *application) *cobra.Command {
	var options repositoryOptions
	var exportConfiguration exportOptions

	exportCommand := &cobra.Command{
		Use:     exportUse,
		Aliases: []string{exportAlias},
		Short:   exportShortDescription,
		Long:    exportLongDescription,
		Example: exportUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			outputFormat, formatError := options.format()
			if formatError != nil {
				return formatError
			}
			repository, repositoryError := parseRepository(arguments[0])
			if repositoryError != nil {
				return repositoryError
			}
			exclusions, exclusionsError := exportConfiguration.resolveExclusions(app.stderr)
			if exclusionsError != nil {
				return exclusionsError
			}

			model := app.configuration.Tokens.Model
			if exportConfiguration.model != "" {
				model = exportConfiguration.model
			}
			tokenCounter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: model})
			if counterError != nil {
				return fmt.Errorf(errorCreateTokenCounterFormat, counterError)
			}
			concurrency := app.configuration.Fetch.Concurrency
			if exportConfiguration.concurrency > 0 {
				concurrency = exportConfiguration.concurrency
			}

			source, sourceError := app.sourceFactory(command.Context(), app.configuration.GitHub, app.logger)
			if sourceError != nil {
				return fmt.Errorf(errorCreateSourceFormat, sourceError)
			}
			exporter := commands.NewExporter(source, commands.ExportOptions{
				TokenCounter: tokenCounter,
				Concurrency:  concurrency,
				Logger:       app.logger,
			})
			result, exportError := exporter.Export(command.Context(), types.RepositoryRequest{
				Repository: repository,
				Branch:     options.branch,
				Exclusions: exclusions,
			})
			if exportError != nil {
				return exportError
			}

			rendered := result.Text
			if outputFormat == types.FormatJSON {
				encoded, renderError := output.RenderJSON(result)
				if renderError != nil {
					return renderError
				}
				rendered = encoded + "\n"
			}
			fmt.Fprint(app.stdout, rendered)
			if options.summaryEnabled && outputFormat == types.FormatRaw {
				fmt.Fprintln(app.stderr, output.FormatSummaryLine(result.IncludedFiles, len(result.Skipped), result.TotalTokens, resolvedModel))
			}
			app.copyIfRequested(options.copyToClipboard, result.Text)
			return nil
		},
	}

	addRepositoryFlags(exportCommand, &options)
	exportCommand.Flags().StringArrayVarP(&exportConfiguration.exclusionPatterns, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	exportCommand.Flags().StringVar(&exportConfiguration.exclusionsJSON, exclusionsJSONFlagName, "", exclusionsJSONFlagDescription)
	exportCommand.Flags().StringVar(&exportConfiguration.exclusionsFile, exclusionsFileFlagName, "", exclusionsFileFlagDescription)
	exportCommand.Flags().StringVar(&exportConfiguration.model, modelFlagName, "", modelFlagDescription)
	exportCommand.Flags().IntVar(&exportConfiguration.concurrency, concurrencyFlagName, 0, concurrencyFlagDescription)
	return exportCommand
}

// resolveExclusions combines the -e, --exclusions and --exclusions-file sources.
// Malformed JSON is reported and treated as an empty list.
func (options exportOptions) resolveExclusions(warnings io.Writer) ([]string, error) {
	jsonExclusions, parseError := utils.ParseExclusions(options.exclusionsJSON)
	if parseError != nil {
		fmt.Fprintf(warnings, warningMalformedExclusions, parseError)
	}
	var fileExclusions []string
	if options.exclusionsFile != "" {
		loaded, loadError := config.LoadExclusionFile(options.exclusionsFile)
		if loadError != nil {
			return nil, loadError
		}
		fileExclusions = loaded
	}
	return config.CombineExclusions(options.exclusionPatterns, jsonExclusions, fileExclusions), nil
}

func (app *application) copyIfRequested(requested bool, text string) {
	if !requested || app.copier == nil {
		return
	}
	if copyError := app.copier.Copy(text); copyError != nil {
		fmt.Fprintf(app.stderr, warningClipboardFormat, copyError)
	}
}

// createServeCommand returns the serve subcommand.
func createServeCommand(app *application) *cobra.Command {
	var host string
	var port int

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			serverConfiguration := app.configuration.Server
			if host != "" {
				serverConfiguration.Host = host
			}
			if port > 0 {
				serverConfiguration.Port = port
			}
			tokenCounter, _, counterError := tokenizer.NewCounter(tokenizer.Config{Model: app.configuration.Tokens.Model})
			if counterError != nil {
				return fmt.Errorf(errorCreateTokenCounterFormat, counterError)
			}
			githubSettings := app.configuration.GitHub
			factory := func(ctx context.Context, requestToken string) (server.RepositorySource, error) {
				settings := githubSettings
				settings.Token = requestToken
				return app.sourceFactory(ctx, settings, app.logger)
			}
			httpServer, serverError := server.NewServer(factory, tokenCounter, app.logger, server.Config{
				Host:             serverConfiguration.Host,
				Port:             serverConfiguration.Port,
				ReadTimeout:      serverConfiguration.ReadTimeout,
				WriteTimeout:     serverConfiguration.WriteTimeout,
				FetchConcurrency: app.configuration.Fetch.Concurrency,
			})
			if serverError != nil {
				return serverError
			}
			return runUntilSignal(command.Context(), httpServer, app.logger)
		},
	}
	serveCommand.Flags().StringVar(&host, hostFlagName, "", hostFlagDescription)
	serveCommand.Flags().IntVar(&port, portFlagName, 0, portFlagDescription)
	return serveCommand
}

// runUntilSignal serves until SIGINT or SIGTERM and then shuts down gracefully.
func runUntilSignal(ctx context.Context, httpServer *server.Server, logger *zap.Logger) error {
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- httpServer.Start()
	}()

	select {
	case serveError := <-serveErrors:
		if errors.Is(serveError, http.ErrServerClosed) {
			return nil
		}
		return serveError
	case <-signalCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownError := httpServer.Shutdown(shutdownCtx); shutdownError != nil {
		logger.Error("graceful shutdown failed", zap.Error(shutdownError))
		return shutdownError
	}
	return nil
}

// createInitCommand returns the init subcommand.
func createInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.environment.WorkingDirectory,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(app.stdout, configurationWrittenFormat, path)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
