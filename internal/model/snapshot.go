package model

import "time"

// DateLayout is the layout of Snapshot.Date.
const DateLayout = "2006-01-02"

// Snapshot is the persisted baseline used to compute the next diff.
//
// While a baseline is held below the notification threshold, LastRun keeps
// the most recent observation so daily usage stays anchored to local
// midnight. LastRun never carries a LastRun of its own.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	Date        string    `json:"date"`
	PackageName string    `json:"package,omitempty"`
	Buckets     BucketSet `json:"buckets"`
	Diff        DiffSet   `json:"diff"`
	LastRun     *Snapshot `json:"last_run,omitempty"`
}

// Clone returns a deep copy of the snapshot. A nil snapshot clones to nil.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Buckets = s.Buckets.Clone()
	out.Diff = s.Diff.Clone()
	out.LastRun = s.LastRun.Clone()
	return &out
}

// Observed returns the most recent observation: LastRun when set, otherwise
// the snapshot itself.
func (s *Snapshot) Observed() *Snapshot {
	if s == nil || s.LastRun == nil {
		return s
	}
	return s.LastRun
}

// WithLastRun returns a copy of s holding run as its latest observation.
func (s *Snapshot) WithLastRun(run *Snapshot) *Snapshot {
	out := s.Clone()
	if out == nil {
		return nil
	}
	last := run.Clone()
	if last != nil {
		last.LastRun = nil
	}
	out.LastRun = last
	return out
}
