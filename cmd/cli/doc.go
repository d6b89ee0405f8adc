// Package cli wires configuration loading, logging, and the analyzer
// subcommands into the panaudit root command.
package cli
