package validators

import (
	"context"
	"fmt"
	"sort"

	"github.com/panosec/panaudit/internal/panapi"
	"github.com/panosec/panaudit/internal/panconfig"
	"github.com/panosec/panaudit/internal/snapshot"
)

const consolidationFindingTemplateConstant = "Device group %s's %s %q references %s objects equivalent to %q: %s"

// memberAccess reads and replaces one member-reference field of an entry.
type memberAccess struct {
	read    func(entry panconfig.Entry) []string
	replace func(entry *panconfig.Entry, members []string)
}

var groupMemberAccess = memberAccess{
	read:    func(entry panconfig.Entry) []string { return entry.Members },
	replace: func(entry *panconfig.Entry, members []string) { entry.Members = members },
}

var sourceMemberAccess = memberAccess{
	read:    func(entry panconfig.Entry) []string { return entry.Sources },
	replace: func(entry *panconfig.Entry, members []string) { entry.Sources = members },
}

var destinationMemberAccess = memberAccess{
	read:    func(entry panconfig.Entry) []string { return entry.Destinations },
	replace: func(entry *panconfig.Entry, members []string) { entry.Destinations = members },
}

var serviceRefMemberAccess = memberAccess{
	read:    func(entry panconfig.Entry) []string { return entry.ServiceRefs },
	replace: func(entry *panconfig.Entry, members []string) { entry.ServiceRefs = members },
}

// containerSpec names one category whose entries reference consolidation
// candidates, with the member fields to rewrite.
type containerSpec struct {
	category panconfig.Category
	accesses []memberAccess
}

func addressLikeContainers() []containerSpec {
	containers := []containerSpec{
		{category: panconfig.CategoryAddressGroups, accesses: []memberAccess{groupMemberAccess}},
	}
	for _, policyCategory := range panconfig.PolicyCategories() {
		containers = append(containers, containerSpec{
			category: policyCategory,
			accesses: []memberAccess{sourceMemberAccess, destinationMemberAccess},
		})
	}
	return containers
}

func serviceLikeContainers() []containerSpec {
	containers := []containerSpec{
		{category: panconfig.CategoryServiceGroups, accesses: []memberAccess{groupMemberAccess}},
	}
	for _, policyCategory := range panconfig.PolicyCategories() {
		containers = append(containers, containerSpec{
			category: policyCategory,
			accesses: []memberAccess{serviceRefMemberAccess},
		})
	}
	return containers
}

func findConsolidatableAddresses(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return findConsolidatableEntries(configurationSnapshot, panconfig.CategoryAddresses, addressLikeContainers())
}

func findConsolidatableAddressGroups(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return findConsolidatableEntries(configurationSnapshot, panconfig.CategoryAddressGroups, addressLikeContainers())
}

func findConsolidatableServices(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return findConsolidatableEntries(configurationSnapshot, panconfig.CategoryServices, serviceLikeContainers())
}

func findConsolidatableServiceGroups(executionContext context.Context, configurationSnapshot *snapshot.Snapshot) ([]snapshot.Finding, error) {
	return findConsolidatableEntries(configurationSnapshot, panconfig.CategoryServiceGroups, serviceLikeContainers())
}

// findConsolidatableEntries groups each target scope's visible entries of the
// category by equivalence key. Within each group of two or more the
// alphabetically-first name wins; every containing structure referencing a
// losing name yields one replacement finding carrying the rewritten element.
func findConsolidatableEntries(configurationSnapshot *snapshot.Snapshot, category panconfig.Category, containers []containerSpec) ([]snapshot.Finding, error) {
	var findings []snapshot.Finding

	for _, scopeName := range configurationSnapshot.TargetScopes {
		winnerByLoserName := equivalenceWinners(configurationSnapshot.Entries(scopeName, category))
		if len(winnerByLoserName) == 0 {
			continue
		}

		for _, container := range containers {
			for _, containerEntry := range configurationSnapshot.ExclusiveEntriesFor(scopeName, container.category) {
				rewrittenEntry := containerEntry
				var replacedLosers []string

				for _, access := range container.accesses {
					rewrittenMembers, losers := rewriteMembers(access.read(rewrittenEntry), winnerByLoserName)
					if len(losers) == 0 {
						continue
					}
					access.replace(&rewrittenEntry, rewrittenMembers)
					replacedLosers = append(replacedLosers, losers...)
				}

				if len(replacedLosers) == 0 {
					continue
				}

				renderedElement, renderError := panconfig.RenderElement(rewrittenEntry)
				if renderError != nil {
					return nil, renderError
				}

				sort.Strings(replacedLosers)
				winnerNames := winnersFor(replacedLosers, winnerByLoserName)
				findings = append(findings, snapshot.Finding{
					Entries: []panconfig.Entry{containerEntry},
					Text: fmt.Sprintf(
						consolidationFindingTemplateConstant,
						scopeName, container.category, containerEntry.Name, category, winnerNames, formatMemberList(replacedLosers),
					),
					Scope:    scopeName,
					Category: container.category,
					Replacement: &panapi.EntryPayload{
						Name:    containerEntry.Name,
						Element: renderedElement,
					},
				})
			}
		}
	}

	return findings, nil
}

// equivalenceWinners maps every losing entry name to the winning name of its
// equivalence group.
func equivalenceWinners(entries []panconfig.Entry) map[string]string {
	entriesByKey := map[string][]panconfig.Entry{}
	var keyOrder []string
	for _, entry := range entries {
		equivalenceKey := entry.EquivalenceKey()
		if _, seen := entriesByKey[equivalenceKey]; !seen {
			keyOrder = append(keyOrder, equivalenceKey)
		}
		entriesByKey[equivalenceKey] = append(entriesByKey[equivalenceKey], entry)
	}

	winnerByLoserName := map[string]string{}
	for _, equivalenceKey := range keyOrder {
		groupEntries := entriesByKey[equivalenceKey]
		if len(groupEntries) < 2 {
			continue
		}

		winnerName := groupEntries[0].Name
		for _, groupEntry := range groupEntries[1:] {
			if groupEntry.Name < winnerName {
				winnerName = groupEntry.Name
			}
		}
		for _, groupEntry := range groupEntries {
			if groupEntry.Name == winnerName {
				continue
			}
			winnerByLoserName[groupEntry.Name] = winnerName
		}
	}
	return winnerByLoserName
}

// rewriteMembers replaces losing names with their winners, de-duplicating
// while preserving first-occurrence order. The returned losers list names the
// members that were replaced.
func rewriteMembers(memberNames []string, winnerByLoserName map[string]string) ([]string, []string) {
	var losers []string
	seenMembers := map[string]struct{}{}
	rewritten := make([]string, 0, len(memberNames))

	for _, memberName := range memberNames {
		resolvedName := memberName
		if winnerName, isLoser := winnerByLoserName[memberName]; isLoser {
			resolvedName = winnerName
			losers = append(losers, memberName)
		}
		if _, alreadySeen := seenMembers[resolvedName]; alreadySeen {
			continue
		}
		seenMembers[resolvedName] = struct{}{}
		rewritten = append(rewritten, resolvedName)
	}

	if len(losers) == 0 {
		return memberNames, nil
	}
	return rewritten, losers
}

func winnersFor(loserNames []string, winnerByLoserName map[string]string) string {
	seenWinners := map[string]struct{}{}
	var winnerNames []string
	for _, loserName := range loserNames {
		winnerName := winnerByLoserName[loserName]
		if _, alreadySeen := seenWinners[winnerName]; alreadySeen {
			continue
		}
		seenWinners[winnerName] = struct{}{}
		winnerNames = append(winnerNames, winnerName)
	}
	sort.Strings(winnerNames)
	return formatMemberList(winnerNames)
}
