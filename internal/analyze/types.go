package analyze

import (
	"time"

	"github.com/panosec/panaudit/internal/registry"
	"github.com/panosec/panaudit/internal/snapshot"
)

// RunMode selects which registry a run dispatches through.
type RunMode string

// Supported run modes.
const (
	RunModeValidate RunMode = "validate"
	RunModeFix      RunMode = "fix"
)

// CommandOptions captures the configurable parameters for one analyzer run.
type CommandOptions struct {
	Mode                    RunMode
	Endpoint                string
	Credential              string
	ExportFilePath          string
	ScopeFilter             string
	RuleLimit               int
	RuleLimitEnabled        bool
	CheckNames              []string
	IgnoredHostnamePrefixes []string
	OutputFilePath          string
	OutputDirectory         string
}

// CheckResult pairs one executed check with its findings.
type CheckResult struct {
	Check    registry.Check
	Findings []snapshot.Finding
}

// RunSummary reports the outcome of a full run.
type RunSummary struct {
	Results        []CheckResult
	TotalFindings  int
	OutputFilePath string
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
