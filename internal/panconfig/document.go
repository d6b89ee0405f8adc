package panconfig

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	documentParseErrorTemplateConstant = "unable to parse configuration export: %w"
	disabledFlagValueConstant          = "yes"
	protocolTCPNameConstant            = "tcp"
	protocolUDPNameConstant            = "udp"
)

// ScopeKind selects the addressing mode used when reading entries out of the
// export document.
type ScopeKind string

// Supported scope addressing modes.
const (
	ScopeKindShared      ScopeKind = "shared"
	ScopeKindDeviceGroup ScopeKind = "device-group"
)

// Document is a parsed configuration export. It is read-only after parsing.
type Document struct {
	sharedEntries      map[Category][]Entry
	deviceGroupEntries map[string]map[Category][]Entry
	deviceGroupNames   []string
	parentChildren     map[string][]string
}

type exportElement struct {
	XMLName xml.Name        `xml:"config"`
	Shared  scopeElement    `xml:"shared"`
	Devices []deviceElement `xml:"devices>entry"`
}

type deviceElement struct {
	DeviceGroups []deviceGroupElement `xml:"device-group>entry"`
}

type deviceGroupElement struct {
	Name              string `xml:"name,attr"`
	ParentDeviceGroup string `xml:"parent-dg"`
	scopeElement
}

type scopeElement struct {
	Addresses     []addressElement      `xml:"address>entry"`
	AddressGroups []groupElement        `xml:"address-group>entry"`
	Services      []serviceElement      `xml:"service>entry"`
	ServiceGroups []serviceGroupElement `xml:"service-group>entry"`
	PreRulebase   rulebaseElement       `xml:"pre-rulebase"`
	PostRulebase  rulebaseElement       `xml:"post-rulebase"`
}

type rulebaseElement struct {
	SecurityRules []policyElement `xml:"security>rules>entry"`
	NATRules      []policyElement `xml:"nat>rules>entry"`
}

type addressElement struct {
	XMLName   xml.Name `xml:"entry"`
	Name      string   `xml:"name,attr"`
	UUID      string   `xml:"uuid,attr,omitempty"`
	FQDN      string   `xml:"fqdn,omitempty"`
	IPNetmask string   `xml:"ip-netmask,omitempty"`
	IPRange   string   `xml:"ip-range,omitempty"`
}

type groupElement struct {
	XMLName       xml.Name `xml:"entry"`
	Name          string   `xml:"name,attr"`
	UUID          string   `xml:"uuid,attr,omitempty"`
	StaticMembers []string `xml:"static>member"`
}

type serviceElement struct {
	XMLName  xml.Name               `xml:"entry"`
	Name     string                 `xml:"name,attr"`
	UUID     string                 `xml:"uuid,attr,omitempty"`
	Protocol serviceProtocolElement `xml:"protocol"`
}

// serviceProtocolElement keeps one pointer per protocol branch so marshalling
// a service emits only the populated branch.
type serviceProtocolElement struct {
	TCP *servicePortElement `xml:"tcp"`
	UDP *servicePortElement `xml:"udp"`
}

type servicePortElement struct {
	Port string `xml:"port"`
}

type serviceGroupElement struct {
	XMLName xml.Name `xml:"entry"`
	Name    string   `xml:"name,attr"`
	UUID    string   `xml:"uuid,attr,omitempty"`
	Members []string `xml:"members>member"`
}

type policyElement struct {
	XMLName      xml.Name `xml:"entry"`
	Name         string   `xml:"name,attr"`
	UUID         string   `xml:"uuid,attr,omitempty"`
	Disabled     string   `xml:"disabled,omitempty"`
	Sources      []string `xml:"source>member"`
	Destinations []string `xml:"destination>member"`
	ServiceRefs  []string `xml:"service>member"`
}

// ParseDocument parses a full configuration export into a navigable document.
func ParseDocument(exportContent []byte) (*Document, error) {
	var parsedExport exportElement
	if unmarshalError := xml.Unmarshal(exportContent, &parsedExport); unmarshalError != nil {
		return nil, fmt.Errorf(documentParseErrorTemplateConstant, unmarshalError)
	}

	document := &Document{
		sharedEntries:      collectScopeEntries(parsedExport.Shared),
		deviceGroupEntries: map[string]map[Category][]Entry{},
		parentChildren:     map[string][]string{},
	}

	for _, device := range parsedExport.Devices {
		for _, deviceGroup := range device.DeviceGroups {
			trimmedName := strings.TrimSpace(deviceGroup.Name)
			if len(trimmedName) == 0 {
				continue
			}
			document.deviceGroupNames = append(document.deviceGroupNames, trimmedName)
			document.deviceGroupEntries[trimmedName] = collectScopeEntries(deviceGroup.scopeElement)

			parentName := strings.TrimSpace(deviceGroup.ParentDeviceGroup)
			if len(parentName) == 0 {
				parentName = SharedScopeName
			}
			document.parentChildren[parentName] = append(document.parentChildren[parentName], trimmedName)
		}
	}

	return document, nil
}

// SharedScopeName is the distinguished scope with no parent; every top-level
// device group inherits from it.
const SharedScopeName = "shared"

// ListScopes returns the device-group names in document order, excluding the
// shared scope.
func (document *Document) ListScopes() []string {
	duplicated := make([]string, len(document.deviceGroupNames))
	copy(duplicated, document.deviceGroupNames)
	return duplicated
}

// ParentChildMap returns the parent scope to ordered child scope relation.
// Scopes without children do not appear as keys.
func (document *Document) ParentChildMap() map[string][]string {
	duplicated := make(map[string][]string, len(document.parentChildren))
	for parentName, childNames := range document.parentChildren {
		duplicatedChildren := make([]string, len(childNames))
		copy(duplicatedChildren, childNames)
		duplicated[parentName] = duplicatedChildren
	}
	return duplicated
}

// Entries returns the entries declared directly on the addressed scope for the
// category, in document order. Inherited entries are not included.
func (document *Document) Entries(category Category, scopeKind ScopeKind, scopeName string) []Entry {
	var scopeEntries map[Category][]Entry
	switch scopeKind {
	case ScopeKindShared:
		scopeEntries = document.sharedEntries
	case ScopeKindDeviceGroup:
		scopeEntries = document.deviceGroupEntries[scopeName]
	}
	if scopeEntries == nil {
		return nil
	}

	categoryEntries := scopeEntries[category]
	duplicated := make([]Entry, len(categoryEntries))
	copy(duplicated, categoryEntries)
	return duplicated
}

func collectScopeEntries(scope scopeElement) map[Category][]Entry {
	collected := map[Category][]Entry{}

	for _, address := range scope.Addresses {
		collected[CategoryAddresses] = append(collected[CategoryAddresses], Entry{
			Identity:  entryIdentity(address.UUID),
			Name:      address.Name,
			Category:  CategoryAddresses,
			FQDN:      address.FQDN,
			IPNetmask: address.IPNetmask,
			IPRange:   address.IPRange,
		})
	}

	for _, addressGroup := range scope.AddressGroups {
		collected[CategoryAddressGroups] = append(collected[CategoryAddressGroups], Entry{
			Identity: entryIdentity(addressGroup.UUID),
			Name:     addressGroup.Name,
			Category: CategoryAddressGroups,
			Members:  addressGroup.StaticMembers,
		})
	}

	for _, service := range scope.Services {
		protocolName, portValue := serviceProtocolPort(service)
		collected[CategoryServices] = append(collected[CategoryServices], Entry{
			Identity: entryIdentity(service.UUID),
			Name:     service.Name,
			Category: CategoryServices,
			Protocol: protocolName,
			Port:     portValue,
		})
	}

	for _, serviceGroup := range scope.ServiceGroups {
		collected[CategoryServiceGroups] = append(collected[CategoryServiceGroups], Entry{
			Identity: entryIdentity(serviceGroup.UUID),
			Name:     serviceGroup.Name,
			Category: CategoryServiceGroups,
			Members:  serviceGroup.Members,
		})
	}

	collectPolicies(collected, CategorySecurityPreRules, scope.PreRulebase.SecurityRules)
	collectPolicies(collected, CategorySecurityPostRules, scope.PostRulebase.SecurityRules)
	collectPolicies(collected, CategoryNATPreRules, scope.PreRulebase.NATRules)
	collectPolicies(collected, CategoryNATPostRules, scope.PostRulebase.NATRules)

	return collected
}

func collectPolicies(collected map[Category][]Entry, category Category, policies []policyElement) {
	for _, policy := range policies {
		collected[category] = append(collected[category], Entry{
			Identity:     entryIdentity(policy.UUID),
			Name:         policy.Name,
			Category:     category,
			Sources:      policy.Sources,
			Destinations: policy.Destinations,
			ServiceRefs:  policy.ServiceRefs,
			Disabled:     strings.EqualFold(strings.TrimSpace(policy.Disabled), disabledFlagValueConstant),
		})
	}
}

// entryIdentity keeps the export uuid when present and synthesizes a
// process-unique identity otherwise. Snapshots never outlive a run, so a
// synthesized identity only has to stay stable for the process lifetime.
func entryIdentity(exportUUID string) string {
	trimmed := strings.TrimSpace(exportUUID)
	if len(trimmed) > 0 {
		return trimmed
	}
	return uuid.NewString()
}

func serviceProtocolPort(service serviceElement) (string, string) {
	switch {
	case service.Protocol.TCP != nil:
		return protocolTCPNameConstant, service.Protocol.TCP.Port
	case service.Protocol.UDP != nil:
		return protocolUDPNameConstant, service.Protocol.UDP.Port
	default:
		return "", ""
	}
}

// RenderElement serializes the entry back into the XML element shape expected
// by the management API's update calls.
func RenderElement(entry Entry) (string, error) {
	var element any
	switch entry.Category {
	case CategoryAddresses:
		element = addressElement{Name: entry.Name, FQDN: entry.FQDN, IPNetmask: entry.IPNetmask, IPRange: entry.IPRange}
	case CategoryAddressGroups:
		element = groupElement{Name: entry.Name, StaticMembers: entry.Members}
	case CategoryServices:
		serviceValue := serviceElement{Name: entry.Name}
		portValue := &servicePortElement{Port: entry.Port}
		switch strings.ToLower(entry.Protocol) {
		case protocolUDPNameConstant:
			serviceValue.Protocol.UDP = portValue
		default:
			serviceValue.Protocol.TCP = portValue
		}
		element = serviceValue
	case CategoryServiceGroups:
		element = serviceGroupElement{Name: entry.Name, Members: entry.Members}
	default:
		if !entry.Category.IsPolicy() {
			return "", fmt.Errorf("unsupported category for rendering: %s", entry.Category)
		}
		disabledValue := ""
		if entry.Disabled {
			disabledValue = disabledFlagValueConstant
		}
		element = policyElement{
			Name:         entry.Name,
			UUID:         entry.Identity,
			Disabled:     disabledValue,
			Sources:      entry.Sources,
			Destinations: entry.Destinations,
			ServiceRefs:  entry.ServiceRefs,
		}
	}

	renderedBytes, marshalError := xml.Marshal(element)
	if marshalError != nil {
		return "", marshalError
	}
	return string(renderedBytes), nil
}
