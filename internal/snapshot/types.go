package snapshot

import (
	"strings"

	"github.com/panosec/panaudit/internal/lookup"
	"github.com/panosec/panaudit/internal/panapi"
	"github.com/panosec/panaudit/internal/panconfig"
)

// Settings carries the validator-facing configuration resolved at build time.
type Settings struct {
	IgnoredHostnamePrefixes []string
	RuleLimit               int
	RuleLimitEnabled        bool
}

// Snapshot is the immutable resolved configuration model. Fixers mutate
// remote state exclusively through the API client; the in-memory snapshot is
// never updated within a run.
type Snapshot struct {
	Endpoint     string
	Scopes       []string
	TargetScopes []string

	AllEntries       map[string]map[panconfig.Category][]panconfig.Entry
	ExclusiveEntries map[string]map[panconfig.Category][]panconfig.Entry
	DescendantScopes map[string][]string
	ActiveLeaves     map[string][]string

	Settings Settings

	// API is nil on file-sourced runs; fixers require it.
	API     panapi.Client
	Lookups *lookup.Cache
}

// Entries returns every entry the export lists for a scope and category,
// inherited appearances included.
func (configurationSnapshot *Snapshot) Entries(scopeName string, category panconfig.Category) []panconfig.Entry {
	scopeEntries := configurationSnapshot.AllEntries[scopeName]
	if scopeEntries == nil {
		return nil
	}
	return scopeEntries[category]
}

// ExclusiveEntriesFor returns the scope-local entry list for a scope and
// category.
func (configurationSnapshot *Snapshot) ExclusiveEntriesFor(scopeName string, category panconfig.Category) []panconfig.Entry {
	scopeEntries := configurationSnapshot.ExclusiveEntries[scopeName]
	if scopeEntries == nil {
		return nil
	}
	return scopeEntries[category]
}

// IgnoresHostname reports whether the hostname matches one of the configured
// ignore prefixes, case-insensitively.
func (settings Settings) IgnoresHostname(hostname string) bool {
	loweredHostname := strings.ToLower(hostname)
	for _, ignoredPrefix := range settings.IgnoredHostnamePrefixes {
		if len(ignoredPrefix) == 0 {
			continue
		}
		if strings.HasPrefix(loweredHostname, strings.ToLower(ignoredPrefix)) {
			return true
		}
	}
	return false
}

// Finding is an immutable record produced by a validator or fixer: the
// offending entries, a one-line explanation, the owning scope, and the
// category. Replacement is set only on consolidation findings and carries the
// rewritten element the fixer should push.
type Finding struct {
	Entries     []panconfig.Entry
	Text        string
	Scope       string
	Category    panconfig.Category
	Replacement *panapi.EntryPayload
}
