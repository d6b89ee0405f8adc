package panconfig

import (
	"fmt"
	"sort"
	"strings"
)

const (
	equivalenceFieldSeparatorConstant  = "|"
	equivalenceMemberSeparatorConstant = ","
	equivalenceFQDNFieldConstant       = "fqdn=%s"
	equivalenceNetmaskFieldConstant    = "ip-netmask=%s"
	equivalenceRangeFieldConstant      = "ip-range=%s"
	equivalenceProtocolFieldConstant   = "protocol=%s"
	equivalencePortFieldConstant       = "port=%s"
	equivalenceMembersFieldConstant    = "members=%s"
)

// Entry is one configuration object or policy rule belonging to a scope and a
// category. Identity is stable and unique within the export; Name is the
// human-readable label and is only unique per scope and category.
type Entry struct {
	Identity     string
	Name         string
	Category     Category
	FQDN         string
	IPNetmask    string
	IPRange      string
	Protocol     string
	Port         string
	Members      []string
	Sources      []string
	Destinations []string
	ServiceRefs  []string
	Disabled     bool
}

// Hostnames returns the hostname-valued fields of an address entry. Entries of
// other categories have none.
func (entry Entry) Hostnames() []string {
	if entry.Category != CategoryAddresses || len(strings.TrimSpace(entry.FQDN)) == 0 {
		return nil
	}
	return []string{entry.FQDN}
}

// EquivalenceKey returns a content key identifying semantically-equivalent
// entries within a category. Identity and Name are deliberately excluded:
// two entries with the same key define the same thing under different names.
func (entry Entry) EquivalenceKey() string {
	switch entry.Category {
	case CategoryAddresses:
		fields := []string{
			fmt.Sprintf(equivalenceFQDNFieldConstant, strings.ToLower(entry.FQDN)),
			fmt.Sprintf(equivalenceNetmaskFieldConstant, entry.IPNetmask),
			fmt.Sprintf(equivalenceRangeFieldConstant, entry.IPRange),
		}
		return strings.Join(fields, equivalenceFieldSeparatorConstant)
	case CategoryServices:
		fields := []string{
			fmt.Sprintf(equivalenceProtocolFieldConstant, strings.ToLower(entry.Protocol)),
			fmt.Sprintf(equivalencePortFieldConstant, entry.Port),
		}
		return strings.Join(fields, equivalenceFieldSeparatorConstant)
	case CategoryAddressGroups, CategoryServiceGroups:
		sortedMembers := make([]string, len(entry.Members))
		copy(sortedMembers, entry.Members)
		sort.Strings(sortedMembers)
		return fmt.Sprintf(equivalenceMembersFieldConstant, strings.Join(sortedMembers, equivalenceMemberSeparatorConstant))
	default:
		return string(entry.Category) + equivalenceFieldSeparatorConstant + entry.Identity
	}
}
