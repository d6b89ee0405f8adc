// Package panconfig models the firewall management configuration export: the
// category enumeration, the typed Entry representation of configuration
// objects and policy rules, and the Document parsed from a full XML export.
package panconfig
