package validators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panosec/panaudit/internal/panconfig"
	"github.com/panosec/panaudit/internal/snapshot"
)

func TestFindDisabledPolicies(testInstance *testing.T) {
	configurationSnapshot := &snapshot.Snapshot{
		TargetScopes: []string{"dmz"},
		ExclusiveEntries: map[string]map[panconfig.Category][]panconfig.Entry{
			"dmz": {
				panconfig.CategorySecurityPreRules: {
					{Identity: "1", Name: "allow", Category: panconfig.CategorySecurityPreRules},
					{Identity: "2", Name: "retired", Category: panconfig.CategorySecurityPreRules, Disabled: true},
				},
				panconfig.CategoryNATPostRules: {
					{Identity: "3", Name: "stale-nat", Category: panconfig.CategoryNATPostRules, Disabled: true},
				},
			},
		},
	}

	findings, validatorError := findDisabledPolicies(context.Background(), configurationSnapshot)
	require.NoError(testInstance, validatorError)
	require.Len(testInstance, findings, 2)
	require.Equal(testInstance, `Device group dmz's SecurityPreRules "retired" is disabled`, findings[0].Text)
	require.Equal(testInstance, `Device group dmz's NATPostRules "stale-nat" is disabled`, findings[1].Text)
}

func TestFindDisabledPoliciesHonorsTargetScopes(testInstance *testing.T) {
	configurationSnapshot := &snapshot.Snapshot{
		TargetScopes: []string{"branch"},
		ExclusiveEntries: map[string]map[panconfig.Category][]panconfig.Entry{
			"dmz": {
				panconfig.CategorySecurityPreRules: {
					{Identity: "1", Name: "retired", Category: panconfig.CategorySecurityPreRules, Disabled: true},
				},
			},
		},
	}

	findings, validatorError := findDisabledPolicies(context.Background(), configurationSnapshot)
	require.NoError(testInstance, validatorError)
	require.Empty(testInstance, findings)
}
