// Package logging provides opt-in file-based logging with rotation for
// dichotomy. With --debug, JSON logs of every run and probe are written to
// ~/.dichotomy/logs/ and can be read back with `dichotomy logs`.
//
// Without --debug, warnings and errors go to stderr only.
package logging
