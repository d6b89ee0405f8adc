package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panosec/panaudit/internal/panconfig"
	"github.com/panosec/panaudit/internal/snapshot"
)

const builderExportConstant = `<config>
  <shared>
    <address>
      <entry name="corp-dns" uuid="1"><fqdn>dns.example.com</fqdn></entry>
    </address>
  </shared>
  <devices>
    <entry name="localhost.localdomain">
      <device-group>
        <entry name="dmz">
          <address>
            <entry name="corp-dns" uuid="1"><fqdn>dns.example.com</fqdn></entry>
            <entry name="dmz-web" uuid="2"><ip-netmask>10.0.0.5/32</ip-netmask></entry>
          </address>
          <pre-rulebase>
            <security>
              <rules>
                <entry name="rule-one" uuid="3">
                  <source><member>any</member></source>
                  <destination><member>dmz-web</member></destination>
                  <service><member>any</member></service>
                </entry>
                <entry name="rule-two" uuid="4">
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

func parseBuilderExport(testInstance *testing.T) *panconfig.Document {
	document, parseError := panconfig.ParseDocument([]byte(builderExportConstant))
	require.NoError(testInstance, parseError)
	return document
}

func TestBuildExclusiveEntriesDiffByIdentity(testInstance *testing.T) {
	builder := snapshot.NewBuilder()

	configurationSnapshot, buildError := builder.Build(context.Background(), snapshot.BuildOptions{
		Document: parseBuilderExport(testInstance),
	})
	require.NoError(testInstance, buildError)

	require.Equal(testInstance, []string{"shared", "dmz", "branch"}, configurationSnapshot.Scopes)
	require.Equal(testInstance, configurationSnapshot.Scopes, configurationSnapshot.TargetScopes)

	// The inherited entry shares identity "1" with the parent; only identity
	// "2" is exclusive to the child scope.
	dmzAllAddresses := configurationSnapshot.Entries("dmz", panconfig.CategoryAddresses)
	require.Len(testInstance, dmzAllAddresses, 2)

	dmzExclusiveAddresses := configurationSnapshot.ExclusiveEntriesFor("dmz", panconfig.CategoryAddresses)
	require.Len(testInstance, dmzExclusiveAddresses, 1)
	require.Equal(testInstance, "2", dmzExclusiveAddresses[0].Identity)
	require.Equal(testInstance, "dmz-web", dmzExclusiveAddresses[0].Name)

	// The shared scope has no parent, so its exclusive set is its full set.
	require.Equal(
		testInstance,
		configurationSnapshot.Entries("shared", panconfig.CategoryAddresses),
		configurationSnapshot.ExclusiveEntriesFor("shared", panconfig.CategoryAddresses),
	)

	require.Empty(testInstance, configurationSnapshot.ExclusiveEntriesFor("branch", panconfig.CategoryAddresses))
}

func TestBuildDescendantScopes(testInstance *testing.T) {
	builder := snapshot.NewBuilder()

	configurationSnapshot, buildError := builder.Build(context.Background(), snapshot.BuildOptions{
		Document: parseBuilderExport(testInstance),
	})
	require.NoError(testInstance, buildError)

	require.Equal(testInstance, []string{"shared", "dmz", "branch"}, configurationSnapshot.DescendantScopes["shared"])
	require.Equal(testInstance, []string{"dmz", "branch"}, configurationSnapshot.DescendantScopes["dmz"])
	require.Equal(testInstance, []string{"branch"}, configurationSnapshot.DescendantScopes["branch"])
}

func TestBuildScopeFilter(testInstance *testing.T) {
	builder := snapshot.NewBuilder()

	configurationSnapshot, buildError := builder.Build(context.Background(), snapshot.BuildOptions{
		Document:    parseBuilderExport(testInstance),
		ScopeFilter: "dmz",
	})
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, []string{"dmz"}, configurationSnapshot.TargetScopes)

	// Non-target scopes stay resolved so cross-scope checks keep working.
	require.NotEmpty(testInstance, configurationSnapshot.Entries("shared", panconfig.CategoryAddresses))

	_, filterError := builder.Build(context.Background(), snapshot.BuildOptions{
		Document:    parseBuilderExport(testInstance),
		ScopeFilter: "missing",
	})
	require.ErrorIs(testInstance, filterError, snapshot.ErrUnknownScopeFilter)
}

func TestBuildRuleLimitTruncatesPolicyCategoriesOnly(testInstance *testing.T) {
	builder := snapshot.NewBuilder()

	configurationSnapshot, buildError := builder.Build(context.Background(), snapshot.BuildOptions{
		Document:         parseBuilderExport(testInstance),
		RuleLimit:        1,
		RuleLimitEnabled: true,
	})
	require.NoError(testInstance, buildError)

	limitedRules := configurationSnapshot.Entries("dmz", panconfig.CategorySecurityPreRules)
	require.Len(testInstance, limitedRules, 1)
	require.Equal(testInstance, "rule-one", limitedRules[0].Name)

	require.Len(testInstance, configurationSnapshot.Entries("dmz", panconfig.CategoryAddresses), 2)
	require.True(testInstance, configurationSnapshot.Settings.RuleLimitEnabled)
	require.Equal(testInstance, 1, configurationSnapshot.Settings.RuleLimit)
}

func TestBuildRequiresDocumentOrClient(testInstance *testing.T) {
	builder := snapshot.NewBuilder()

	_, buildError := builder.Build(context.Background(), snapshot.BuildOptions{})
	require.Error(testInstance, buildError)
}

func TestSettingsIgnoresHostname(testInstance *testing.T) {
	builder := snapshot.NewBuilder()

	configurationSnapshot, buildError := builder.Build(context.Background(), snapshot.BuildOptions{
		Document:                parseBuilderExport(testInstance),
		IgnoredHostnamePrefixes: []string{" Test-", ""},
	})
	require.NoError(testInstance, buildError)

	require.Equal(testInstance, []string{"test-"}, configurationSnapshot.Settings.IgnoredHostnamePrefixes)
	require.True(testInstance, configurationSnapshot.Settings.IgnoresHostname("TEST-host.example.com"))
	require.False(testInstance, configurationSnapshot.Settings.IgnoresHostname("prod-host.example.com"))
}
