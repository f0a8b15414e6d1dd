// Package observability records what prio does to its working set. Events
// are appended to a JSON Lines file, one per store mutation or engine call,
// and usage metrics are derived from that file on demand.
package observability
