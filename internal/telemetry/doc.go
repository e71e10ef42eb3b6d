// Package telemetry turns search engine events into logs, Prometheus metrics,
// an in-memory record of recent runs and a local SQLite run history.
//
// Every sink implements dichotomy.Observer; Fanout combines them. All data
// stays local: the metrics endpoint is only served when configured.
package telemetry
