// Package services implements the driving port interfaces.
// Services contain the detection pipeline and orchestrate
// calls to driven ports (adapters).
//
// The pipeline runs extraction, aggregation, scoring, cross-track
// consistency and the agent roles, then assembles the verdict.
// Services are pure Go with no CGO.
package services
