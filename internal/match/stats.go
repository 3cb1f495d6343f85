package match

import "time"

// PhaseStats describes one grouping phase.
type PhaseStats struct {
	Name     string
	Files    int
	Buckets  int
	Computed int
	Cached   int
	Errors   int
	Elapsed  time.Duration
}

// Stats describes a full grouping pass.
type Stats struct {
	Entities   int
	Confirmed  int
	Unique     int
	Unreadable int
	Phases     []PhaseStats
	Elapsed    time.Duration
}

// Summary describes a full consolidation run: grouping followed by
// merging.
type Summary struct {
	RunID           string
	Started         time.Time
	Elapsed         time.Duration
	EntitiesBefore  int
	EntitiesAfter   int
	Merged          int
	GroupsConfirmed int
	GroupsSkipped   int
	MergeFailures   int
	Grouping        Stats
}
