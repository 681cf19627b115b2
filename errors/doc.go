// Package errors provides the structured failure type used across rxscenario.
//
// Every failure the harness raises is an *AppError carrying a machine-readable
// code (assertion mismatch, timeout, protocol violation, out-of-range access,
// invalid configuration) plus details describing which field or index differed.
// Errors produced by a pipeline under test are never raised; they are recorded
// as terminal events instead.
package errors
