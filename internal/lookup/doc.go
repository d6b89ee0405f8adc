// Package lookup memoizes external name-resolution and interface/zone
// lookups. The cache is constructed once per run by the orchestrator, handed
// by reference to anything needing lookups, and is append-only for the
// process lifetime.
package lookup
