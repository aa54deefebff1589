// Package cache provides pluggable caching for repository point lookups: a
// common interface with in-memory LRU and Redis backends, both storing
// JSON-encoded entries.
package cache
