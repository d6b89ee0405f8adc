// Package panapi talks to the firewall management API: configuration export,
// fleet topology, object and policy updates, pending-change validation, and
// interface/zone lookups against individual enforcement nodes.
//
// The package owns no retry or timeout policy; callers receive each call's
// outcome unchanged.
package panapi
