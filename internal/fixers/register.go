package fixers

import (
	"sync"

	"github.com/panosec/panaudit/internal/registry"
)

// Registered fixer machine names.
const (
	ConsolidateAddressesFixerName     = "ConsolidateAddresses"
	ConsolidateAddressGroupsFixerName = "ConsolidateAddressGroups"
	ConsolidateServicesFixerName      = "ConsolidateServices"
	ConsolidateServiceGroupsFixerName = "ConsolidateServiceGroups"
)

const (
	consolidateAddressesDescriptionConstant = "Consolidate use of equivalent address objects so only one object is used"
	consolidateAddressGroupsDescription     = "Consolidate use of equivalent address groups so only one group is used"
	consolidateServicesDescriptionConstant  = "Consolidate use of equivalent service objects so only one object is used"
	consolidateServiceGroupsDescription     = "Consolidate use of equivalent service groups so only one group is used"
)

var registerBuiltinsOnce sync.Once

// RegisterBuiltins populates the fixer registry. It runs once per process,
// during startup, before any registry lookup.
func RegisterBuiltins() {
	registerBuiltinsOnce.Do(func() {
		registry.Fixers.Register(ConsolidateAddressesFixerName, consolidateAddressesDescriptionConstant, consolidateAddresses)
		registry.Fixers.Register(ConsolidateAddressGroupsFixerName, consolidateAddressGroupsDescription, consolidateAddressGroups)
		registry.Fixers.Register(ConsolidateServicesFixerName, consolidateServicesDescriptionConstant, consolidateServices)
		registry.Fixers.Register(ConsolidateServiceGroupsFixerName, consolidateServiceGroupsDescription, consolidateServiceGroups)
	})
}
