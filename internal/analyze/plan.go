package analyze

import (
	"errors"
	"fmt"
	"os"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

const (
	planLoadErrorTemplateConstant        = "failed to load run plan: %w"
	planParseErrorTemplateConstant       = "failed to parse run plan: %w"
	planPathRequiredMessageConstant      = "run plan path must be provided"
	planEmptyChecksMessageConstant       = "run plan must name at least one check"
	planCheckNameMissingMessageConstant  = "run plan check missing name"
	planDuplicateCheckMessageConstant    = "run plan names the same check twice"
	planOptionsDecodeErrorTemplateConst  = "failed to decode options for check %s: %w"
)

// Plan is an ordered selection of checks with per-check options, loaded from
// a YAML file.
type Plan struct {
	Checks []PlanCheck `yaml:"checks"`
}

// PlanCheck names one check and its declarative options.
type PlanCheck struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"with"`
}

// PlanCheckOptions is the typed shape of a plan check's options.
type PlanCheckOptions struct {
	IgnoredHostnamePrefixes []string `mapstructure:"ignored_hostname_prefixes"`
}

// LoadPlan reads the run plan from disk and performs basic validation.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, errors.New(planPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}

	var loadedPlan Plan
	if unmarshalError := yaml.Unmarshal(contentBytes, &loadedPlan); unmarshalError != nil {
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, unmarshalError)
	}

	if len(loadedPlan.Checks) == 0 {
		return Plan{}, errors.New(planEmptyChecksMessageConstant)
	}

	seenNames := map[string]struct{}{}
	for checkIndex := range loadedPlan.Checks {
		trimmedName := strings.TrimSpace(loadedPlan.Checks[checkIndex].Name)
		if len(trimmedName) == 0 {
			return Plan{}, errors.New(planCheckNameMissingMessageConstant)
		}
		if _, duplicate := seenNames[trimmedName]; duplicate {
			return Plan{}, errors.New(planDuplicateCheckMessageConstant)
		}
		seenNames[trimmedName] = struct{}{}
		loadedPlan.Checks[checkIndex].Name = trimmedName
	}

	return loadedPlan, nil
}

// CheckNames returns the plan's check names in plan order.
func (loadedPlan Plan) CheckNames() []string {
	orderedNames := make([]string, 0, len(loadedPlan.Checks))
	for _, planCheck := range loadedPlan.Checks {
		orderedNames = append(orderedNames, planCheck.Name)
	}
	return orderedNames
}

// DecodeOptions merges every check's loose options into the typed shape.
func (loadedPlan Plan) DecodeOptions() (PlanCheckOptions, error) {
	var mergedOptions PlanCheckOptions
	for _, planCheck := range loadedPlan.Checks {
		if len(planCheck.Options) == 0 {
			continue
		}

		var decodedOptions PlanCheckOptions
		if decodeError := mapstructure.Decode(planCheck.Options, &decodedOptions); decodeError != nil {
			return PlanCheckOptions{}, fmt.Errorf(planOptionsDecodeErrorTemplateConst, planCheck.Name, decodeError)
		}
		mergedOptions.IgnoredHostnamePrefixes = append(mergedOptions.IgnoredHostnamePrefixes, decodedOptions.IgnoredHostnamePrefixes...)
	}
	return mergedOptions, nil
}
