// Package cache holds the snapshot stores used to persist query results
// between runs of the console.
package cache

import "errors"

// ErrNotFound is returned by Fetch when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")
