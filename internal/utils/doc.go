// Package utils provides the shared configuration loading and logger
// construction plumbing used by the panaudit CLI.
package utils
