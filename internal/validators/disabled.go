package validators

import (
	"context"
	"fmt"

	"github.com/panosec/panaudit/internal/panconfig"
	"github.com/panosec/panaudit/internal/snapshot"
)

const disabledPolicyFindingTemplateConstant = "Device group %s's %s %q is disabled"

// findDisabledPolicies flags every disabled policy rule declared directly on
// a target scope.
func findDisabledPolicies(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	var findings []snapshot.Finding
	for _, scopeName := range configurationSnapshot.TargetScopes {
		for _, policyCategory := range panconfig.PolicyCategories() {
			for _, policyEntry := range configurationSnapshot.ExclusiveEntriesFor(scopeName, policyCategory) {
				if !policyEntry.Disabled {
					continue
				}
				findings = append(findings, snapshot.Finding{
					Entries:  []panconfig.Entry{policyEntry},
					Text:     fmt.Sprintf(disabledPolicyFindingTemplateConstant, scopeName, policyCategory, policyEntry.Name),
					Scope:    scopeName,
					Category: policyCategory,
				})
			}
		}
	}
	return findings, nil
}
