package snapshotter

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Snapshotter.
type Option func(*Snapshotter)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Snapshotter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds how long one snapshot batch may take. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Snapshotter) {
		s.timeout = d
	}
}

// WithMaxConcurrency caps in-flight balance queries. Zero or less means unlimited.
func WithMaxConcurrency(n int) Option {
	return func(s *Snapshotter) {
		s.maxConcurrency = n
	}
}

// WithFailFast cancels the remaining queries of a batch once one fails.
func WithFailFast(enabled bool) Option {
	return func(s *Snapshotter) {
		s.failFast = enabled
	}
}

// WithDedup ignores tokens and accounts that are already tracked.
func WithDedup(enabled bool) Option {
	return func(s *Snapshotter) {
		s.dedup = enabled
	}
}

// WithJournal appends every published snapshot to j.
func WithJournal(j Journal) Option {
	return func(s *Snapshotter) {
		s.journal = j
	}
}

// WithSeqOffset continues numbering after last, the sequence number of a
// snapshot published by an earlier run.
func WithSeqOffset(last uint64) Option {
	return func(s *Snapshotter) {
		s.seqOffset = last
	}
}

// WithClock overrides the time source used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Snapshotter) {
		if now != nil {
			s.now = now
		}
	}
}
