// Package registry holds the named validator and fixer registries. Both are
// populated once during process startup and are read-only afterwards;
// registering a duplicate name is a programming error and fails fast.
package registry
