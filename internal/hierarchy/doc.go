// Package hierarchy resolves the scope inheritance tree: the transitive
// descendant closure of every scope and the union of active leaf enforcement
// nodes reachable from each scope.
package hierarchy
