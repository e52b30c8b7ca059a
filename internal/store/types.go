// Package store provides the SQLite commit journal for banglakey.
//
// Every word the engine converts can be recorded with its Latin spelling,
// the Bengali output and the host it came from. Word counts are kept as a
// separate aggregate so pruning old commits does not forget how often a
// word is used.
package store

import "time"

// CommitRecord is one converted word.
type CommitRecord struct {
	ID          int64
	Latin       string
	Bengali     string
	Source      string
	TimestampNs int64
}

// Time returns the commit time.
func (c CommitRecord) Time() time.Time {
	return time.Unix(0, c.TimestampNs)
}

// WordCount is how often a Latin spelling produced a Bengali word.
type WordCount struct {
	Latin      string
	Bengali    string
	Count      int64
	LastUsedNs int64
}

// Stats summarises the journal.
type Stats struct {
	Commits     int64
	UniqueWords int64
	OldestNs    int64
	NewestNs    int64
	BySource    map[string]int64
}
