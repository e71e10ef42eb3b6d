// Package interrupt lets one process ask a running search to stop.
//
// A run owns <dir>/<runID>.lock (an flock) and <dir>/<runID>.pid for as long
// as it runs. Another process requests a soft stop by writing
// <dir>/<runID>.stop; the running search sees it through a FileSignal and
// ends after the current probe with a partial result.
package interrupt
