package app

// HistoryCapacity bounds how many whole-project snapshots are retained.
const HistoryCapacity = 20

// History is a bounded, most-recent-first ring of project snapshots. A
// snapshot is pushed immediately before any mutation commits, never after, so
// entry 0 is always "the state right before the latest edit".
//
// Lookups are linear scans. At tens of snapshots times dozens of files that
// is cheap, and it keeps the structure an inspectable flat list.
type History struct {
	snapshots []Snapshot
	capacity  int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{capacity: capacity}
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Push prepends a copy of files, evicting the oldest snapshot beyond
// capacity.
func (h *History) Push(files []ProjectFile) {
	snap := Snapshot{Files: CopyFiles(files)}
	h.snapshots = append([]Snapshot{snap}, h.snapshots...)
	if len(h.snapshots) > h.capacity {
		h.snapshots = h.snapshots[:h.capacity]
	}
}

// MostRecentVersionOf returns the content of path from the newest snapshot
// containing it.
func (h *History) MostRecentVersionOf(path string) (string, bool) {
	for _, snap := range h.snapshots {
		if content, ok := FindFile(snap.Files, path); ok {
			return content, true
		}
	}
	return "", false
}

// Newest returns a copy of the most recent snapshot's files.
func (h *History) Newest() ([]ProjectFile, bool) {
	if len(h.snapshots) == 0 {
		return nil, false
	}
	return CopyFiles(h.snapshots[0].Files), true
}
