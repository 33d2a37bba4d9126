package sync

import "fmt"

// Stats accumulates per-cycle counters. A single message contributes to at
// most one of the outcome counters.
type Stats struct {
	FoldersSeen    int
	FoldersCreated int
	FoldersRemoved int

	NewMessages     int
	UpdatedMessages int
	MovedMessages   int
	TombstonedRows  int
	PurgedRows      int
	SkippedMessages int
	Errors          int
}

func (s *Stats) Add(other Stats) {
	s.FoldersSeen += other.FoldersSeen
	s.FoldersCreated += other.FoldersCreated
	s.FoldersRemoved += other.FoldersRemoved
	s.NewMessages += other.NewMessages
	s.UpdatedMessages += other.UpdatedMessages
	s.MovedMessages += other.MovedMessages
	s.TombstonedRows += other.TombstonedRows
	s.PurgedRows += other.PurgedRows
	s.SkippedMessages += other.SkippedMessages
	s.Errors += other.Errors
}

func (s *Stats) Summary() string {
	return fmt.Sprintf("folders=%d new=%d updated=%d moved=%d tombstoned=%d purged=%d skipped=%d errors=%d",
		s.FoldersSeen, s.NewMessages, s.UpdatedMessages, s.MovedMessages,
		s.TombstonedRows, s.PurgedRows, s.SkippedMessages, s.Errors)
}
