package panconfig

// Category identifies one configuration object or policy rule collection.
type Category string

// Object categories supported by the analyzer.
const (
	CategoryAddresses     Category = "Addresses"
	CategoryAddressGroups Category = "AddressGroups"
	CategoryServices      Category = "Services"
	CategoryServiceGroups Category = "ServiceGroups"
)

// Policy categories supported by the analyzer.
const (
	CategorySecurityPreRules  Category = "SecurityPreRules"
	CategorySecurityPostRules Category = "SecurityPostRules"
	CategoryNATPreRules       Category = "NATPreRules"
	CategoryNATPostRules      Category = "NATPostRules"
)

var objectCategoryOrder = []Category{
	CategoryAddresses,
	CategoryAddressGroups,
	CategoryServices,
	CategoryServiceGroups,
}

var policyCategoryOrder = []Category{
	CategorySecurityPreRules,
	CategorySecurityPostRules,
	CategoryNATPreRules,
	CategoryNATPostRules,
}

// ObjectCategories returns the supported object categories in declaration order.
func ObjectCategories() []Category {
	duplicated := make([]Category, len(objectCategoryOrder))
	copy(duplicated, objectCategoryOrder)
	return duplicated
}

// PolicyCategories returns the supported policy categories in declaration order.
func PolicyCategories() []Category {
	duplicated := make([]Category, len(policyCategoryOrder))
	copy(duplicated, policyCategoryOrder)
	return duplicated
}

// AllCategories returns object categories followed by policy categories.
func AllCategories() []Category {
	return append(ObjectCategories(), PolicyCategories()...)
}

// IsObject reports whether the category is a supported object category.
func (category Category) IsObject() bool {
	for _, objectCategory := range objectCategoryOrder {
		if category == objectCategory {
			return true
		}
	}
	return false
}

// IsPolicy reports whether the category is a supported policy category.
func (category Category) IsPolicy() bool {
	for _, policyCategory := range policyCategoryOrder {
		if category == policyCategory {
			return true
		}
	}
	return false
}
