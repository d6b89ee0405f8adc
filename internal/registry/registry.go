package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/panosec/panaudit/internal/snapshot"
)

const (
	validatorKindNameConstant       = "validator"
	fixerKindNameConstant           = "fixer"
	notFoundErrorTemplateConstant   = "no %s registered under name %q"
	duplicateNameTemplateConstant   = "duplicate %s registration for name %q"
	emptyNameTemplateConstant       = "%s registration requires a name"
	missingFunctionTemplateConstant = "%s registration for name %q requires a function"
)

// CheckFunc is the callable shape shared by validators and fixers.
type CheckFunc func(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error)

// Check pairs a machine name and human description with its callable.
type Check struct {
	Name        string
	Description string
	Run         CheckFunc
}

// NotFoundError reports a lookup for an unregistered name.
type NotFoundError struct {
	Kind string
	Name string
}

// Error names the missing registration.
func (notFound NotFoundError) Error() string {
	return fmt.Sprintf(notFoundErrorTemplateConstant, notFound.Kind, notFound.Name)
}

// Registry is one name-to-check namespace.
type Registry struct {
	kind    string
	entries map[string]Check
}

// NewRegistry constructs an empty registry for the given kind label.
func NewRegistry(kind string) *Registry {
	return &Registry{
		kind:    kind,
		entries: map[string]Check{},
	}
}

// Register stores a check under its machine name. Duplicate or empty names
// and nil functions panic: they are load-time programming errors, not
// runtime conditions.
func (checkRegistry *Registry) Register(machineName string, description string, run CheckFunc) {
	trimmedName := strings.TrimSpace(machineName)
	if len(trimmedName) == 0 {
		panic(fmt.Sprintf(emptyNameTemplateConstant, checkRegistry.kind))
	}
	if run == nil {
		panic(fmt.Sprintf(missingFunctionTemplateConstant, checkRegistry.kind, trimmedName))
	}
	if _, alreadyRegistered := checkRegistry.entries[trimmedName]; alreadyRegistered {
		panic(fmt.Sprintf(duplicateNameTemplateConstant, checkRegistry.kind, trimmedName))
	}

	checkRegistry.entries[trimmedName] = Check{
		Name:        trimmedName,
		Description: description,
		Run:         run,
	}
}

// Get returns the check registered under the name or a NotFoundError.
func (checkRegistry *Registry) Get(machineName string) (Check, error) {
	registeredCheck, found := checkRegistry.entries[strings.TrimSpace(machineName)]
	if !found {
		return Check{}, NotFoundError{Kind: checkRegistry.kind, Name: machineName}
	}
	return registeredCheck, nil
}

// All returns every registered check ordered by name.
func (checkRegistry *Registry) All() []Check {
	orderedChecks := make([]Check, 0, len(checkRegistry.entries))
	for _, registeredCheck := range checkRegistry.entries {
		orderedChecks = append(orderedChecks, registeredCheck)
	}
	sort.Slice(orderedChecks, func(firstIndex int, secondIndex int) bool {
		return orderedChecks[firstIndex].Name < orderedChecks[secondIndex].Name
	})
	return orderedChecks
}

// Names returns the registered names in sorted order.
func (checkRegistry *Registry) Names() []string {
	orderedNames := make([]string, 0, len(checkRegistry.entries))
	for machineName := range checkRegistry.entries {
		orderedNames = append(orderedNames, machineName)
	}
	sort.Strings(orderedNames)
	return orderedNames
}

// Process-wide registries, populated once at startup before any lookup.
var (
	Validators = NewRegistry(validatorKindNameConstant)
	Fixers     = NewRegistry(fixerKindNameConstant)
)
