package fixers

import (
	"context"
	"errors"
	"fmt"

	"github.com/panosec/panaudit/internal/registry"
	"github.com/panosec/panaudit/internal/snapshot"
	"github.com/panosec/panaudit/internal/validators"
)

const (
	liveAPIRequiredMessageConstant      = "fixers require a live management API client"
	unsupportedCategoryTemplateConstant = "consolidation cannot dispatch category %q: neither an object nor a policy category"
)

// ErrLiveAPIRequired reports a fixer invoked on a file-sourced snapshot.
var ErrLiveAPIRequired = errors.New(liveAPIRequiredMessageConstant)

// consolidateCategory obtains the paired equivalence validator through the
// validator registry, dispatches one update per replacement finding, then
// requests validation of the pending change set. Zero findings means zero
// remote calls. The first failed update aborts the remaining ones; updates
// already dispatched are not rolled back.
func consolidateCategory(executionContext context.Context, configurationSnapshot *snapshot.Snapshot, validatorName string) ([]snapshot.Finding, error) {
	equivalenceCheck, lookupError := registry.Validators.Get(validatorName)
	if lookupError != nil {
		return nil, lookupError
	}

	replacementFindings, validatorError := equivalenceCheck.Run(executionContext, configurationSnapshot)
	if validatorError != nil {
		return nil, validatorError
	}

	if len(replacementFindings) == 0 {
		return replacementFindings, nil
	}

	if configurationSnapshot.API == nil {
		return nil, ErrLiveAPIRequired
	}

	for _, replacementFinding := range replacementFindings {
		if replacementFinding.Replacement == nil {
			continue
		}

		switch {
		case replacementFinding.Category.IsPolicy():
			if updateError := configurationSnapshot.API.UpdatePolicy(executionContext, *replacementFinding.Replacement, replacementFinding.Category, replacementFinding.Scope); updateError != nil {
				return nil, updateError
			}
		case replacementFinding.Category.IsObject():
			if updateError := configurationSnapshot.API.UpdateObject(executionContext, *replacementFinding.Replacement, replacementFinding.Category, replacementFinding.Scope); updateError != nil {
				return nil, updateError
			}
		default:
			return nil, fmt.Errorf(unsupportedCategoryTemplateConstant, replacementFinding.Category)
		}
	}

	if validateError := configurationSnapshot.API.ValidatePendingChanges(executionContext); validateError != nil {
		return nil, validateError
	}

	return replacementFindings, nil
}

func consolidateAddresses(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return consolidateCategory(executionContext, configurationSnapshot, validators.FindConsolidatableAddressesValidatorName)
}

func consolidateAddressGroups(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return consolidateCategory(executionContext, configurationSnapshot, validators.FindConsolidatableAddressGroupsValidator)
}

func consolidateServices(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return consolidateCategory(executionContext, configurationSnapshot, validators.FindConsolidatableServicesValidatorName)
}

func consolidateServiceGroups(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return consolidateCategory(executionContext, configurationSnapshot, validators.FindConsolidatableServiceGroupsValidator)
}
