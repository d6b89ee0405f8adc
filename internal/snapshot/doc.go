// Package snapshot materializes the resolved configuration model consumed by
// every validator and fixer: per scope, the full inherited entry collections,
// the scope-exclusive subsets, the descendant-scope closure, and the active
// leaf enforcement nodes. A snapshot is built once per run and treated as
// read-only thereafter.
package snapshot
