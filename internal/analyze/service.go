package analyze

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/panosec/panaudit/internal/lookup"
	"github.com/panosec/panaudit/internal/panapi"
	"github.com/panosec/panaudit/internal/panconfig"
	"github.com/panosec/panaudit/internal/registry"
	"github.com/panosec/panaudit/internal/snapshot"
)

const (
	endpointRequiredMessageConstant    = "live runs require a configured management endpoint"
	credentialRequiredMessageConstant  = "live runs require a management API credential"
	fixRequiresLiveMessageConstant     = "fixers mutate remote state and cannot run against an exported file"
	unsupportedModeMessageConstant     = "unsupported run mode"
	outputPermissionsConstant          = fs.FileMode(0o644)
	checkExecutedMessageConstant       = "check executed"
	runCompletedMessageConstant        = "analyzer run completed"
	logFieldCheckNameConstant          = "check_name"
	logFieldFindingCountConstant       = "finding_count"
	logFieldTotalFindingsConstant      = "total_findings"
	logFieldOutputPathConstant         = "output_path"
	logFieldRunModeConstant            = "run_mode"
)

// Configuration errors that fail the run before any snapshot is built.
var (
	ErrEndpointRequired   = errors.New(endpointRequiredMessageConstant)
	ErrCredentialRequired = errors.New(credentialRequiredMessageConstant)
	ErrFixRequiresLive    = errors.New(fixRequiresLiveMessageConstant)
)

// SnapshotBuilder materializes configuration snapshots.
type SnapshotBuilder interface {
	Build(executionContext context.Context, options snapshot.BuildOptions) (*snapshot.Snapshot, error)
}

// APIClientFactory constructs a management API client for live runs.
type APIClientFactory func(endpoint string, credential string, logger *zap.Logger) (panapi.Client, error)

// FileSystem abstracts the file operations the service performs.
type FileSystem interface {
	ReadFile(filePath string) ([]byte, error)
	WriteFile(filePath string, content []byte, permissions fs.FileMode) error
}

// OSFileSystem implements FileSystem with the standard library.
type OSFileSystem struct{}

// ReadFile reads the named file.
func (OSFileSystem) ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// WriteFile writes the named file.
func (OSFileSystem) WriteFile(filePath string, content []byte, permissions fs.FileMode) error {
	return os.WriteFile(filePath, content, permissions)
}

// Service orchestrates one analyzer run: check selection, snapshot
// construction, serial check execution, and report rendering.
type Service struct {
	snapshotBuilder SnapshotBuilder
	clientFactory   APIClientFactory
	fileSystem      FileSystem
	logger          *zap.Logger
	clock           Clock
}

// NewService constructs a Service using the provided dependencies. Nil
// dependencies fall back to production implementations.
func NewService(snapshotBuilder SnapshotBuilder, clientFactory APIClientFactory, fileSystem FileSystem, logger *zap.Logger, clock Clock) *Service {
	if snapshotBuilder == nil {
		snapshotBuilder = snapshot.NewBuilder()
	}
	if clientFactory == nil {
		clientFactory = func(endpoint string, credential string, factoryLogger *zap.Logger) (panapi.Client, error) {
			return panapi.NewHTTPClient(endpoint, credential, factoryLogger)
		}
	}
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		snapshotBuilder: snapshotBuilder,
		clientFactory:   clientFactory,
		fileSystem:      fileSystem,
		logger:          logger,
		clock:           clock,
	}
}

// Run executes the service according to the provided options.
func (service *Service) Run(executionContext context.Context, options CommandOptions) (RunSummary, error) {
	selectedChecks, selectionError := service.selectChecks(options)
	if selectionError != nil {
		return RunSummary{}, selectionError
	}

	configurationSnapshot, buildError := service.buildSnapshot(executionContext, options)
	if buildError != nil {
		return RunSummary{}, buildError
	}

	results := make([]CheckResult, 0, len(selectedChecks))
	totalFindings := 0
	for _, selectedCheck := range selectedChecks {
		findings, checkError := selectedCheck.Run(executionContext, configurationSnapshot)
		if checkError != nil {
			return RunSummary{}, checkError
		}

		service.logger.Info(
			checkExecutedMessageConstant,
			zap.String(logFieldCheckNameConstant, selectedCheck.Name),
			zap.Int(logFieldFindingCountConstant, len(findings)),
		)

		results = append(results, CheckResult{Check: selectedCheck, Findings: findings})
		totalFindings += len(findings)
	}

	outputFilePath := strings.TrimSpace(options.OutputFilePath)
	if len(outputFilePath) == 0 {
		outputFilePath = defaultOutputFilePath(options.OutputDirectory, options, service.clock.Now())
	}

	var reportBuffer bytes.Buffer
	if renderError := WriteReport(&reportBuffer, results); renderError != nil {
		return RunSummary{}, renderError
	}
	if writeError := service.fileSystem.WriteFile(outputFilePath, reportBuffer.Bytes(), outputPermissionsConstant); writeError != nil {
		return RunSummary{}, writeError
	}

	service.logger.Info(
		runCompletedMessageConstant,
		zap.String(logFieldRunModeConstant, string(options.Mode)),
		zap.Int(logFieldTotalFindingsConstant, totalFindings),
		zap.String(logFieldOutputPathConstant, outputFilePath),
	)

	return RunSummary{
		Results:        results,
		TotalFindings:  totalFindings,
		OutputFilePath: outputFilePath,
	}, nil
}

// selectChecks resolves the requested check names against the mode's
// registry. Unknown names fail the run before any remote call is made.
func (service *Service) selectChecks(options CommandOptions) ([]registry.Check, error) {
	var checkRegistry *registry.Registry
	switch options.Mode {
	case RunModeValidate:
		checkRegistry = registry.Validators
	case RunModeFix:
		checkRegistry = registry.Fixers
	default:
		return nil, errors.New(unsupportedModeMessageConstant)
	}

	if len(options.CheckNames) == 0 {
		return checkRegistry.All(), nil
	}

	selectedChecks := make([]registry.Check, 0, len(options.CheckNames))
	for _, checkName := range options.CheckNames {
		selectedCheck, lookupError := checkRegistry.Get(checkName)
		if lookupError != nil {
			return nil, lookupError
		}
		selectedChecks = append(selectedChecks, selectedCheck)
	}
	return selectedChecks, nil
}

func (service *Service) buildSnapshot(executionContext context.Context, options CommandOptions) (*snapshot.Snapshot, error) {
	buildOptions := snapshot.BuildOptions{
		Endpoint:                options.Endpoint,
		ScopeFilter:             options.ScopeFilter,
		RuleLimit:               options.RuleLimit,
		RuleLimitEnabled:        options.RuleLimitEnabled,
		IgnoredHostnamePrefixes: options.IgnoredHostnamePrefixes,
		Logger:                  service.logger,
	}

	fileSourced := len(strings.TrimSpace(options.ExportFilePath)) > 0
	if fileSourced {
		if options.Mode == RunModeFix {
			return nil, ErrFixRequiresLive
		}

		exportContent, readError := service.fileSystem.ReadFile(options.ExportFilePath)
		if readError != nil {
			return nil, readError
		}
		parsedDocument, parseError := panconfig.ParseDocument(exportContent)
		if parseError != nil {
			return nil, parseError
		}
		buildOptions.Document = parsedDocument
	} else {
		if len(strings.TrimSpace(options.Endpoint)) == 0 {
			return nil, ErrEndpointRequired
		}
		if len(strings.TrimSpace(options.Credential)) == 0 {
			return nil, ErrCredentialRequired
		}

		apiClient, clientError := service.clientFactory(options.Endpoint, options.Credential, service.logger)
		if clientError != nil {
			return nil, clientError
		}
		buildOptions.API = apiClient
	}

	buildOptions.Lookups = lookup.NewCache(lookup.NewNetResolver(buildOptions.API))

	return service.snapshotBuilder.Build(executionContext, buildOptions)
}
