package validators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/panosec/panaudit/internal/panconfig"
	"github.com/panosec/panaudit/internal/registry"
	"github.com/panosec/panaudit/internal/snapshot"
)

const (
	lookupCacheRequiredMessageConstant    = "hostname validation requires a lookup cache"
	badHostnameFindingTemplateConstant    = "Device group %s's address %q uses a hostname which doesn't resolve: %q"
	badGroupUsageFindingTemplateConstant  = "Device group %s's address group %q uses address objects which don't resolve: %s"
	badPolicyUsageFindingTemplateConstant = "Device group %s's %s %q %s contains address objects which don't resolve: %s"
	sourceDirectionNameConstant           = "Source"
	destinationDirectionNameConstant      = "Destination"
	memberListSeparatorConstant           = ", "
)

var errLookupCacheRequired = errors.New(lookupCacheRequiredMessageConstant)

// findBadHostnames flags address entries whose hostname fields fail to
// resolve. Hostnames matching a configured ignore prefix are skipped.
func findBadHostnames(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	if configurationSnapshot.Lookups == nil {
		return nil, errLookupCacheRequired
	}

	var findings []snapshot.Finding
	for _, scopeName := range configurationSnapshot.TargetScopes {
		for _, addressEntry := range configurationSnapshot.Entries(scopeName, panconfig.CategoryAddresses) {
			for _, hostname := range addressEntry.Hostnames() {
				loweredHostname := strings.ToLower(hostname)
				if configurationSnapshot.Settings.IgnoresHostname(loweredHostname) {
					continue
				}
				if _, resolved := configurationSnapshot.Lookups.ResolveHostname(executionContext, loweredHostname); resolved {
					continue
				}

				findings = append(findings, snapshot.Finding{
					Entries:  []panconfig.Entry{addressEntry},
					Text:     fmt.Sprintf(badHostnameFindingTemplateConstant, scopeName, addressEntry.Name, loweredHostname),
					Scope:    scopeName,
					Category: panconfig.CategoryAddresses,
				})
			}
		}
	}
	return findings, nil
}

// findBadHostnameUsage re-derives the bad-address set by invoking the
// BadHostname validator through the registry, then flags address groups and
// enabled policies referencing those addresses by name.
func findBadHostnameUsage(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	badHostnameCheck, lookupError := registry.Validators.Get(BadHostnameValidatorName)
	if lookupError != nil {
		return nil, lookupError
	}

	badHostnameFindings, validatorError := badHostnameCheck.Run(executionContext, configurationSnapshot)
	if validatorError != nil {
		return nil, validatorError
	}

	badAddressNames := map[string]struct{}{}
	for _, badHostnameFinding := range badHostnameFindings {
		for _, offendingEntry := range badHostnameFinding.Entries {
			badAddressNames[offendingEntry.Name] = struct{}{}
		}
	}

	var findings []snapshot.Finding
	for _, scopeName := range configurationSnapshot.TargetScopes {
		for _, groupEntry := range configurationSnapshot.Entries(scopeName, panconfig.CategoryAddressGroups) {
			offendingMembers := intersectMembers(groupEntry.Members, badAddressNames)
			if len(offendingMembers) == 0 {
				continue
			}
			findings = append(findings, snapshot.Finding{
				Entries:  []panconfig.Entry{groupEntry},
				Text:     fmt.Sprintf(badGroupUsageFindingTemplateConstant, scopeName, groupEntry.Name, formatMemberList(offendingMembers)),
				Scope:    scopeName,
				Category: panconfig.CategoryAddressGroups,
			})
		}
	}

	for _, scopeName := range configurationSnapshot.TargetScopes {
		for _, policyCategory := range panconfig.PolicyCategories() {
			for _, policyEntry := range configurationSnapshot.ExclusiveEntriesFor(scopeName, policyCategory) {
				// Disabled rules are always skipped regardless of members.
				if policyEntry.Disabled {
					continue
				}

				directionMembers := []struct {
					directionName string
					members       []string
				}{
					{directionName: sourceDirectionNameConstant, members: policyEntry.Sources},
					{directionName: destinationDirectionNameConstant, members: policyEntry.Destinations},
				}

				for _, direction := range directionMembers {
					offendingMembers := intersectMembers(direction.members, badAddressNames)
					if len(offendingMembers) == 0 {
						continue
					}
					findings = append(findings, snapshot.Finding{
						Entries:  []panconfig.Entry{policyEntry},
						Text:     fmt.Sprintf(badPolicyUsageFindingTemplateConstant, scopeName, policyCategory, policyEntry.Name, direction.directionName, formatMemberList(offendingMembers)),
						Scope:    scopeName,
						Category: policyCategory,
					})
				}
			}
		}
	}

	return findings, nil
}

// intersectMembers returns the member names present in the offending set, in
// sorted order for deterministic findings.
func intersectMembers(memberNames []string, offendingNames map[string]struct{}) []string {
	var intersection []string
	seenMembers := map[string]struct{}{}
	for _, memberName := range memberNames {
		if _, isOffending := offendingNames[memberName]; !isOffending {
			continue
		}
		if _, alreadySeen := seenMembers[memberName]; alreadySeen {
			continue
		}
		seenMembers[memberName] = struct{}{}
		intersection = append(intersection, memberName)
	}
	sort.Strings(intersection)
	return intersection
}

func formatMemberList(memberNames []string) string {
	return strings.Join(memberNames, memberListSeparatorConstant)
}
