// Package validators implements the read-only checks dispatched through the
// validator registry. Every validator is a pure function over the snapshot:
// it never mutates remote state and yields identical findings when re-run on
// the same snapshot.
package validators
