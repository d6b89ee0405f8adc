package panconfig_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panosec/panaudit/internal/panconfig"
)

const sampleExportConstant = `<config>
  <shared>
    <address>
      <entry name="corp-dns" uuid="1"><fqdn>dns.example.com</fqdn></entry>
    </address>
    <service>
      <entry name="web-tls" uuid="10"><protocol><tcp><port>443</port></tcp></protocol></entry>
    </service>
  </shared>
  <devices>
    <entry name="localhost.localdomain">
      <device-group>
        <entry name="dmz">
          <address>
            <entry name="corp-dns" uuid="1"><fqdn>dns.example.com</fqdn></entry>
            <entry name="dmz-web" uuid="2"><ip-netmask>10.0.0.5/32</ip-netmask></entry>
            <entry name="legacy-host"><ip-range>10.0.1.1-10.0.1.9</ip-range></entry>
          </address>
          <address-group>
            <entry name="dmz-hosts" uuid="5"><static><member>dmz-web</member></static></entry>
          </address-group>
          <pre-rulebase>
            <security>
              <rules>
                <entry name="allow-web" uuid="3">
                  <source><member>any</member></source>
                  <destination><member>dmz-web</member></destination>
                  <service><member>web-tls</member></service>
                </entry>
                <entry name="old-rule" uuid="4">
                  <disabled>yes</disabled>
                  <source><member>any</member></source>
                  <destination><member>any</member></destination>
                  <service><member>any</member></service>
                </entry>
              </rules>
            </security>
          </pre-rulebase>
        </entry>
        <entry name="branch">
          <parent-dg>dmz</parent-dg>
        </entry>
      </device-group>
    </entry>
  </devices>
</config>`

func TestParseDocumentHierarchy(testInstance *testing.T) {
	document, parseError := panconfig.ParseDocument([]byte(sampleExportConstant))
	require.NoError(testInstance, parseError)

	require.Equal(testInstance, []string{"dmz", "branch"}, document.ListScopes())

	parentChildren := document.ParentChildMap()
	require.Equal(testInstance, []string{"dmz"}, parentChildren[panconfig.SharedScopeName])
	require.Equal(testInstance, []string{"branch"}, parentChildren["dmz"])
	require.NotContains(testInstance, parentChildren, "branch")
}

func TestParseDocumentEntries(testInstance *testing.T) {
	document, parseError := panconfig.ParseDocument([]byte(sampleExportConstant))
	require.NoError(testInstance, parseError)

	sharedAddresses := document.Entries(panconfig.CategoryAddresses, panconfig.ScopeKindShared, panconfig.SharedScopeName)
	require.Len(testInstance, sharedAddresses, 1)
	require.Equal(testInstance, "1", sharedAddresses[0].Identity)
	require.Equal(testInstance, "corp-dns", sharedAddresses[0].Name)
	require.Equal(testInstance, "dns.example.com", sharedAddresses[0].FQDN)

	sharedServices := document.Entries(panconfig.CategoryServices, panconfig.ScopeKindShared, panconfig.SharedScopeName)
	require.Len(testInstance, sharedServices, 1)
	require.Equal(testInstance, "tcp", sharedServices[0].Protocol)
	require.Equal(testInstance, "443", sharedServices[0].Port)

	dmzAddresses := document.Entries(panconfig.CategoryAddresses, panconfig.ScopeKindDeviceGroup, "dmz")
	require.Len(testInstance, dmzAddresses, 3)
	require.Equal(testInstance, "1", dmzAddresses[0].Identity)
	require.Equal(testInstance, "2", dmzAddresses[1].Identity)
	// Entries without an export uuid still receive a process-unique identity.
	require.NotEmpty(testInstance, dmzAddresses[2].Identity)
	require.NotEqual(testInstance, dmzAddresses[1].Identity, dmzAddresses[2].Identity)

	dmzRules := document.Entries(panconfig.CategorySecurityPreRules, panconfig.ScopeKindDeviceGroup, "dmz")
	require.Len(testInstance, dmzRules, 2)
	require.Equal(testInstance, "allow-web", dmzRules[0].Name)
	require.False(testInstance, dmzRules[0].Disabled)
	require.Equal(testInstance, []string{"dmz-web"}, dmzRules[0].Destinations)
	require.Equal(testInstance, []string{"web-tls"}, dmzRules[0].ServiceRefs)
	require.True(testInstance, dmzRules[1].Disabled)
}

func TestParseDocumentUnknownScope(testInstance *testing.T) {
	document, parseError := panconfig.ParseDocument([]byte(sampleExportConstant))
	require.NoError(testInstance, parseError)

	require.Nil(testInstance, document.Entries(panconfig.CategoryAddresses, panconfig.ScopeKindDeviceGroup, "missing"))
}

func TestParseDocumentMalformedExport(testInstance *testing.T) {
	_, parseError := panconfig.ParseDocument([]byte("<config><shared>"))
	require.Error(testInstance, parseError)
}

func TestRenderElement(testInstance *testing.T) {
	testCases := []struct {
		name            string
		entry           panconfig.Entry
		expectedElement string
	}{
		{
			name: "address with netmask",
			entry: panconfig.Entry{
				Name:      "dmz-web",
				Category:  panconfig.CategoryAddresses,
				IPNetmask: "10.0.0.5/32",
			},
			expectedElement: `<entry name="dmz-web"><ip-netmask>10.0.0.5/32</ip-netmask></entry>`,
		},
		{
			name: "address group",
			entry: panconfig.Entry{
				Name:     "dmz-hosts",
				Category: panconfig.CategoryAddressGroups,
				Members:  []string{"dmz-web", "corp-dns"},
			},
			expectedElement: `<entry name="dmz-hosts"><static><member>dmz-web</member><member>corp-dns</member></static></entry>`,
		},
		{
			name: "tcp service",
			entry: panconfig.Entry{
				Name:     "web-tls",
				Category: panconfig.CategoryServices,
				Protocol: "tcp",
				Port:     "443",
			},
			expectedElement: `<entry name="web-tls"><protocol><tcp><port>443</port></tcp></protocol></entry>`,
		},
		{
			name: "udp service",
			entry: panconfig.Entry{
				Name:     "dns-udp",
				Category: panconfig.CategoryServices,
				Protocol: "udp",
				Port:     "53",
			},
			expectedElement: `<entry name="dns-udp"><protocol><udp><port>53</port></udp></protocol></entry>`,
		},
		{
			name: "service group",
			entry: panconfig.Entry{
				Name:     "web-services",
				Category: panconfig.CategoryServiceGroups,
				Members:  []string{"web-tls"},
			},
			expectedElement: `<entry name="web-services"><members><member>web-tls</member></members></entry>`,
		},
		{
			name: "disabled policy rule",
			entry: panconfig.Entry{
				Identity:     "4",
				Name:         "old-rule",
				Category:     panconfig.CategorySecurityPreRules,
				Sources:      []string{"any"},
				Destinations: []string{"any"},
				ServiceRefs:  []string{"any"},
				Disabled:     true,
			},
			expectedElement: `<entry name="old-rule" uuid="4"><disabled>yes</disabled><source><member>any</member></source><destination><member>any</member></destination><service><member>any</member></service></entry>`,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			renderedElement, renderError := panconfig.RenderElement(testCase.entry)
			require.NoError(subtestInstance, renderError)
			require.Equal(subtestInstance, testCase.expectedElement, renderedElement)
		})
	}
}

func TestRenderElementUnsupportedCategory(testInstance *testing.T) {
	_, renderError := panconfig.RenderElement(panconfig.Entry{Name: "x", Category: panconfig.Category("Bogus")})
	require.Error(testInstance, renderError)
}
