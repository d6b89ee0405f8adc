package snapshot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/panosec/panaudit/internal/hierarchy"
	"github.com/panosec/panaudit/internal/lookup"
	"github.com/panosec/panaudit/internal/panapi"
	"github.com/panosec/panaudit/internal/panconfig"
)

const (
	documentOrClientRequiredMessageConstant = "snapshot build requires a configuration document or an API client"
	unknownScopeFilterMessageConstant       = "scope filter does not name a known scope"
	snapshotBuiltMessageConstant            = "configuration snapshot built"
	topologyUnavailableMessageConstant      = "fleet topology unavailable, scope data degrades to empty"
	logFieldScopeCountConstant              = "scope_count"
	logFieldTargetScopeCountConstant        = "target_scope_count"
	logFieldRuleLimitConstant               = "rule_limit"
)

// ErrUnknownScopeFilter reports a scope filter naming no scope in the export.
var ErrUnknownScopeFilter = errors.New(unknownScopeFilterMessageConstant)

// BuildOptions configures a snapshot build.
type BuildOptions struct {
	Endpoint                string
	ScopeFilter             string
	RuleLimit               int
	RuleLimitEnabled        bool
	IgnoredHostnamePrefixes []string

	// Document is the pre-parsed export for file-sourced runs. When nil the
	// export is fetched through the API client.
	Document *panconfig.Document

	// API is nil on file-sourced runs; topology then defaults to empty.
	API panapi.Client

	Lookups *lookup.Cache
	Logger  *zap.Logger
}

// Builder materializes snapshots from an export document and fleet topology.
type Builder struct{}

// NewBuilder constructs a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build resolves the hierarchy and produces the immutable snapshot. Missing
// topology information for any scope degrades to empty closures and leaf
// lists; the snapshot is always fully built for every scope.
func (builder *Builder) Build(executionContext context.Context, options BuildOptions) (*Snapshot, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	document := options.Document
	if document == nil {
		if options.API == nil {
			return nil, errors.New(documentOrClientRequiredMessageConstant)
		}
		exportContent, exportError := options.API.ExportConfiguration(executionContext)
		if exportError != nil {
			return nil, exportError
		}
		parsedDocument, parseError := panconfig.ParseDocument(exportContent)
		if parseError != nil {
			return nil, parseError
		}
		document = parsedDocument
	}

	allScopes := append([]string{panconfig.SharedScopeName}, document.ListScopes()...)
	childrenByParent := document.ParentChildMap()
	parentByScope := invertParentChildMap(childrenByParent)

	targetScopes, filterError := resolveTargetScopes(allScopes, options.ScopeFilter)
	if filterError != nil {
		return nil, filterError
	}

	descendantScopes := hierarchy.DescendantClosure(allScopes, childrenByParent)
	activeLeaves := hierarchy.ActiveLeavesPerScope(descendantScopes, builder.fetchActiveLeaves(executionContext, options, logger))

	allEntries := map[string]map[panconfig.Category][]panconfig.Entry{}
	for _, scopeName := range allScopes {
		allEntries[scopeName] = builder.collectScopeEntries(document, scopeName, options)
	}

	exclusiveEntries := map[string]map[panconfig.Category][]panconfig.Entry{}
	for _, scopeName := range allScopes {
		exclusiveEntries[scopeName] = computeExclusiveEntries(scopeName, parentByScope, allEntries)
	}

	configurationSnapshot := &Snapshot{
		Endpoint:         options.Endpoint,
		Scopes:           allScopes,
		TargetScopes:     targetScopes,
		AllEntries:       allEntries,
		ExclusiveEntries: exclusiveEntries,
		DescendantScopes: descendantScopes,
		ActiveLeaves:     activeLeaves,
		Settings: Settings{
			IgnoredHostnamePrefixes: lowercasePrefixes(options.IgnoredHostnamePrefixes),
			RuleLimit:               options.RuleLimit,
			RuleLimitEnabled:        options.RuleLimitEnabled,
		},
		API:     options.API,
		Lookups: options.Lookups,
	}

	logger.Info(
		snapshotBuiltMessageConstant,
		zap.Int(logFieldScopeCountConstant, len(allScopes)),
		zap.Int(logFieldTargetScopeCountConstant, len(targetScopes)),
		zap.Int(logFieldRuleLimitConstant, options.RuleLimit),
	)

	return configurationSnapshot, nil
}

func (builder *Builder) fetchActiveLeaves(executionContext context.Context, options BuildOptions, logger *zap.Logger) map[string][]string {
	if options.API == nil {
		return map[string][]string{}
	}

	scopeTopology, topologyError := options.API.ScopeTopology(executionContext)
	if topologyError != nil {
		logger.Warn(topologyUnavailableMessageConstant, zap.Error(topologyError))
		return map[string][]string{}
	}

	activeNodes, activeError := options.API.ActiveLeafNodes(executionContext)
	if activeError != nil {
		logger.Warn(topologyUnavailableMessageConstant, zap.Error(activeError))
		return map[string][]string{}
	}

	activeNodeSet := make(map[string]struct{}, len(activeNodes))
	for _, nodeName := range activeNodes {
		activeNodeSet[nodeName] = struct{}{}
	}

	activeLeavesByScope := make(map[string][]string, len(scopeTopology))
	for scopeName, memberNodes := range scopeTopology {
		var activeMembers []string
		for _, nodeName := range memberNodes {
			if _, isActive := activeNodeSet[nodeName]; isActive {
				activeMembers = append(activeMembers, nodeName)
			}
		}
		activeLeavesByScope[scopeName] = activeMembers
	}
	return activeLeavesByScope
}

func (builder *Builder) collectScopeEntries(document *panconfig.Document, scopeName string, options BuildOptions) map[panconfig.Category][]panconfig.Entry {
	scopeKind := panconfig.ScopeKindDeviceGroup
	if scopeName == panconfig.SharedScopeName {
		scopeKind = panconfig.ScopeKindShared
	}

	collected := map[panconfig.Category][]panconfig.Entry{}
	for _, category := range panconfig.ObjectCategories() {
		collected[category] = document.Entries(category, scopeKind, scopeName)
	}
	for _, category := range panconfig.PolicyCategories() {
		categoryEntries := document.Entries(category, scopeKind, scopeName)
		if options.RuleLimitEnabled && options.RuleLimit >= 0 && len(categoryEntries) > options.RuleLimit {
			categoryEntries = categoryEntries[:options.RuleLimit]
		}
		collected[category] = categoryEntries
	}
	return collected
}

// computeExclusiveEntries diffs by stable identity, not by name: structurally
// identical entries with distinct identities in parent and child remain in
// the child's exclusive set.
func computeExclusiveEntries(scopeName string, parentByScope map[string]string, allEntries map[string]map[panconfig.Category][]panconfig.Entry) map[panconfig.Category][]panconfig.Entry {
	scopeEntries := allEntries[scopeName]
	parentName, hasParent := parentByScope[scopeName]
	if !hasParent {
		return scopeEntries
	}

	parentEntries := allEntries[parentName]
	exclusive := make(map[panconfig.Category][]panconfig.Entry, len(scopeEntries))
	for category, categoryEntries := range scopeEntries {
		parentIdentities := map[string]struct{}{}
		for _, parentEntry := range parentEntries[category] {
			parentIdentities[parentEntry.Identity] = struct{}{}
		}

		filtered := make([]panconfig.Entry, 0, len(categoryEntries))
		for _, entry := range categoryEntries {
			if _, inherited := parentIdentities[entry.Identity]; inherited {
				continue
			}
			filtered = append(filtered, entry)
		}
		exclusive[category] = filtered
	}
	return exclusive
}

func invertParentChildMap(childrenByParent map[string][]string) map[string]string {
	parentByScope := map[string]string{}
	for parentName, childNames := range childrenByParent {
		for _, childName := range childNames {
			parentByScope[childName] = parentName
		}
	}
	return parentByScope
}

func resolveTargetScopes(allScopes []string, scopeFilter string) ([]string, error) {
	trimmedFilter := strings.TrimSpace(scopeFilter)
	if len(trimmedFilter) == 0 {
		duplicated := make([]string, len(allScopes))
		copy(duplicated, allScopes)
		return duplicated, nil
	}

	for _, scopeName := range allScopes {
		if scopeName == trimmedFilter {
			return []string{trimmedFilter}, nil
		}
	}
	return nil, ErrUnknownScopeFilter
}

func lowercasePrefixes(rawPrefixes []string) []string {
	sanitized := make([]string, 0, len(rawPrefixes))
	for _, rawPrefix := range rawPrefixes {
		trimmedPrefix := strings.ToLower(strings.TrimSpace(rawPrefix))
		if len(trimmedPrefix) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmedPrefix)
	}
	return sanitized
}
