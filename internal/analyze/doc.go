// Package analyze wires the validate and fix commands: snapshot construction,
// check selection and execution, and the text report contract consumed by
// downstream tooling (one header per check with its finding count, one
// finding per line).
package analyze
