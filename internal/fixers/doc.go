// Package fixers implements the mutating remediations dispatched through the
// fixer registry. Fixers read the snapshot like validators do, but push
// changes through the management API and finish by requesting validation of
// the pending change set; the in-memory snapshot is never mutated.
package fixers
