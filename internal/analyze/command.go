package analyze

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panosec/panaudit/internal/registry"
)

const (
	validateCommandNameConstant        = "validate"
	validateCommandShortDescription    = "Run read-only validators against the resolved configuration"
	validateCommandLongDescription     = "Pulls the configuration and fleet topology, resolves per-scope effective configuration, and runs the selected validators."
	fixCommandNameConstant             = "fix"
	fixCommandShortDescription         = "Run fixers that remediate the configuration through the management API"
	fixCommandLongDescription          = "Runs the selected fixers against a live snapshot; every change is pushed through the management API and left pending for an explicit operator commit."
	checksCommandNameConstant          = "checks"
	checksCommandShortDescription      = "List registered validators and fixers"
	flagScopeNameConstant              = "scope"
	flagScopeDescriptionConstant       = "Restrict the run to a single device group"
	flagLimitNameConstant              = "limit"
	flagLimitDescriptionConstant       = "Limit processing to the first N policy rules per category"
	flagCheckNameConstant              = "check"
	flagCheckDescriptionConstant       = "Run only the named check; repeatable"
	flagExportFileNameConstant         = "export-file"
	flagExportFileDescriptionConstant  = "Process an exported configuration file instead of querying the API"
	flagOutputNameConstant             = "output"
	flagOutputDescriptionConstant      = "Write the report to this path instead of the derived file name"
	flagPlanNameConstant               = "plan"
	flagPlanDescriptionConstant        = "YAML run plan selecting checks and per-check options"
	flagAPIKeyNameConstant             = "api-key"
	flagAPIKeyDescriptionConstant      = "Management API key; overrides the configured key file"
	checksSectionValidatorsConstant    = "Validators:"
	checksSectionFixersConstant        = "Fixers:"
	checksLineTemplateConstant         = "  %s - %s\n"
	runSummaryTemplateConstant         = "Detected %d findings across %d checks; report written to %s\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted analyzer configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the analyzer cobra commands with configurable
// dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	SnapshotBuilder       SnapshotBuilder
	ClientFactory         APIClientFactory
	FileSystem            FileSystem
	Clock                 Clock
}

// BuildValidateCommand constructs the validate cobra command.
func (builder *CommandBuilder) BuildValidateCommand() (*cobra.Command, error) {
	return builder.buildRunCommand(RunModeValidate, validateCommandNameConstant, validateCommandShortDescription, validateCommandLongDescription), nil
}

// BuildFixCommand constructs the fix cobra command.
func (builder *CommandBuilder) BuildFixCommand() (*cobra.Command, error) {
	return builder.buildRunCommand(RunModeFix, fixCommandNameConstant, fixCommandShortDescription, fixCommandLongDescription), nil
}

// BuildChecksCommand constructs the command listing registered checks.
func (builder *CommandBuilder) BuildChecksCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   checksCommandNameConstant,
		Short: checksCommandShortDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			outputWriter := command.OutOrStdout()
			fmt.Fprintln(outputWriter, checksSectionValidatorsConstant)
			for _, registeredCheck := range registry.Validators.All() {
				fmt.Fprintf(outputWriter, checksLineTemplateConstant, registeredCheck.Name, registeredCheck.Description)
			}
			fmt.Fprintln(outputWriter, checksSectionFixersConstant)
			for _, registeredCheck := range registry.Fixers.All() {
				fmt.Fprintf(outputWriter, checksLineTemplateConstant, registeredCheck.Name, registeredCheck.Description)
			}
			return nil
		},
	}
	return command, nil
}

func (builder *CommandBuilder) buildRunCommand(mode RunMode, commandName string, shortDescription string, longDescription string) *cobra.Command {
	command := &cobra.Command{
		Use:   commandName,
		Short: shortDescription,
		Long:  longDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, mode)
		},
	}

	command.Flags().String(flagScopeNameConstant, "", flagScopeDescriptionConstant)
	command.Flags().Int(flagLimitNameConstant, 0, flagLimitDescriptionConstant)
	command.Flags().StringArray(flagCheckNameConstant, nil, flagCheckDescriptionConstant)
	command.Flags().String(flagExportFileNameConstant, "", flagExportFileDescriptionConstant)
	command.Flags().String(flagOutputNameConstant, "", flagOutputDescriptionConstant)
	command.Flags().String(flagPlanNameConstant, "", flagPlanDescriptionConstant)
	command.Flags().String(flagAPIKeyNameConstant, "", flagAPIKeyDescriptionConstant)

	return command
}

func (builder *CommandBuilder) run(command *cobra.Command, mode RunMode) error {
	options, optionsError := builder.parseOptions(command, mode)
	if optionsError != nil {
		return optionsError
	}

	service := NewService(builder.SnapshotBuilder, builder.ClientFactory, builder.FileSystem, builder.resolveLogger(), builder.Clock)
	runSummary, runError := service.Run(command.Context(), options)
	if runError != nil {
		return runError
	}

	fmt.Fprintf(command.OutOrStdout(), runSummaryTemplateConstant, runSummary.TotalFindings, len(runSummary.Results), runSummary.OutputFilePath)
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, mode RunMode) (CommandOptions, error) {
	configuration := builder.resolveConfiguration()

	scopeFilter, _ := command.Flags().GetString(flagScopeNameConstant)
	ruleLimit, _ := command.Flags().GetInt(flagLimitNameConstant)
	checkNames, _ := command.Flags().GetStringArray(flagCheckNameConstant)
	exportFilePath, _ := command.Flags().GetString(flagExportFileNameConstant)
	outputFilePath, _ := command.Flags().GetString(flagOutputNameConstant)
	planFilePath, _ := command.Flags().GetString(flagPlanNameConstant)
	apiKeyFlagValue, _ := command.Flags().GetString(flagAPIKeyNameConstant)

	options := CommandOptions{
		Mode:                    mode,
		Endpoint:                configuration.Endpoint,
		ExportFilePath:          strings.TrimSpace(exportFilePath),
		ScopeFilter:             strings.TrimSpace(scopeFilter),
		RuleLimit:               ruleLimit,
		RuleLimitEnabled:        command.Flags().Changed(flagLimitNameConstant),
		CheckNames:              checkNames,
		IgnoredHostnamePrefixes: configuration.IgnoredHostnamePrefixes,
		OutputFilePath:          strings.TrimSpace(outputFilePath),
		OutputDirectory:         configuration.OutputDirectory,
	}

	if trimmedPlanPath := strings.TrimSpace(planFilePath); len(trimmedPlanPath) > 0 {
		loadedPlan, planError := LoadPlan(trimmedPlanPath)
		if planError != nil {
			return CommandOptions{}, planError
		}
		if len(options.CheckNames) == 0 {
			options.CheckNames = loadedPlan.CheckNames()
		}
		planOptions, decodeError := loadedPlan.DecodeOptions()
		if decodeError != nil {
			return CommandOptions{}, decodeError
		}
		options.IgnoredHostnamePrefixes = append(options.IgnoredHostnamePrefixes, planOptions.IgnoredHostnamePrefixes...)
	}

	if len(options.ExportFilePath) == 0 {
		credential, credentialError := builder.resolveCredential(apiKeyFlagValue, configuration.APIKeyFile)
		if credentialError != nil {
			return CommandOptions{}, credentialError
		}
		options.Credential = credential
	}

	return options, nil
}

func (builder *CommandBuilder) resolveCredential(apiKeyFlagValue string, apiKeyFilePath string) (string, error) {
	trimmedFlagValue := strings.TrimSpace(apiKeyFlagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue, nil
	}

	trimmedFilePath := strings.TrimSpace(apiKeyFilePath)
	if len(trimmedFilePath) == 0 {
		return "", ErrCredentialRequired
	}

	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	keyContent, readError := fileSystem.ReadFile(trimmedFilePath)
	if readError != nil {
		return "", readError
	}
	return strings.TrimSpace(string(keyContent)), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().sanitize()
}
