// Package scenario provides the reference collaborators the dichotomy CLI
// searches with: a linearized transmission network whose views hold the
// applied exchange, a shifter that moves the exchange, an evaluator that
// checks line loadings against thermal limits, and an exporter that snapshots
// failed working views to disk.
//
// The model is deliberately small: flows are linear in the exchange, so a
// search over it is monotonic and its boundary can be computed exactly in
// tests.
package scenario
