package validators

import (
	"sync"

	"github.com/panosec/panaudit/internal/registry"
)

// Registered validator machine names.
const (
	BadHostnameValidatorName                 = "BadHostname"
	BadHostnameUsageValidatorName            = "BadHostnameUsage"
	DisabledPoliciesValidatorName            = "DisabledPolicies"
	FindConsolidatableAddressesValidatorName = "FindConsolidatableAddresses"
	FindConsolidatableAddressGroupsValidator = "FindConsolidatableAddressGroups"
	FindConsolidatableServicesValidatorName  = "FindConsolidatableServices"
	FindConsolidatableServiceGroupsValidator = "FindConsolidatableServiceGroups"
)

const (
	badHostnameDescriptionConstant             = "Address contains a hostname that doesn't resolve"
	badHostnameUsageDescriptionConstant        = "Address groups and policies using address objects which don't resolve"
	disabledPoliciesDescriptionConstant        = "Policy rules that are disabled"
	consolidatableAddressesDescriptionConstant = "Equivalent address objects that consolidate into one object"
	consolidatableAddressGroupsDescription     = "Equivalent address groups that consolidate into one group"
	consolidatableServicesDescriptionConstant  = "Equivalent service objects that consolidate into one object"
	consolidatableServiceGroupsDescription     = "Equivalent service groups that consolidate into one group"
)

var registerBuiltinsOnce sync.Once

// RegisterBuiltins populates the validator registry. It runs once per
// process, during startup, before any registry lookup.
func RegisterBuiltins() {
	registerBuiltinsOnce.Do(func() {
		registry.Validators.Register(BadHostnameValidatorName, badHostnameDescriptionConstant, findBadHostnames)
		registry.Validators.Register(BadHostnameUsageValidatorName, badHostnameUsageDescriptionConstant, findBadHostnameUsage)
		registry.Validators.Register(DisabledPoliciesValidatorName, disabledPoliciesDescriptionConstant, findDisabledPolicies)
		registry.Validators.Register(FindConsolidatableAddressesValidatorName, consolidatableAddressesDescriptionConstant, findConsolidatableAddresses)
		registry.Validators.Register(FindConsolidatableAddressGroupsValidator, consolidatableAddressGroupsDescription, findConsolidatableAddressGroups)
		registry.Validators.Register(FindConsolidatableServicesValidatorName, consolidatableServicesDescriptionConstant, findConsolidatableServices)
		registry.Validators.Register(FindConsolidatableServiceGroupsValidator, consolidatableServiceGroupsDescription, findConsolidatableServiceGroups)
	})
}
