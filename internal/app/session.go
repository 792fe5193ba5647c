package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Role of a conversation entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Attachment is the name of a file the user attached to an entry. Upload
// mechanics live outside the core; only the names travel with the log.
type Attachment struct {
	Name string `json:"name"`
}

// Entry is one conversation log record. The log is append-only except that
// the most recent model entry is replaced in place while its content is still
// streaming.
type Entry struct {
	ID              string           `json:"id"`
	Role            Role             `json:"role"`
	Text            string           `json:"text"`
	Attachments     []Attachment     `json:"attachments,omitempty"`
	Error           string           `json:"error,omitempty"`
	Warning         string           `json:"warning,omitempty"`
	ProposedChanges []ProposedChange `json:"proposed_changes,omitempty"`
}

// StreamUpdate is pushed to the UI collaborator on every received chunk.
type StreamUpdate struct {
	Text   string // visible conversational text so far
	Status string // most recently completed status_update, "" if none
}

// ErrBusy rejects a new prompt while one is still in flight.
var ErrBusy = errors.New("a prompt is already in flight")

// stoppedMarker is appended to the buffer when the user stops a stream; the
// partial output then goes through the normal parse-and-commit path.
const stoppedMarker = "\n\n[stopped by user]"

// Session owns the conversation log, the live file set, the snapshot history
// and the session memory. One prompt may be in flight at a time; applying a
// change is a single atomic file-set update plus a single snapshot push.
type Session struct {
	mu      sync.Mutex
	cfg     Config
	client  Client
	logger  *Logger
	store   *Store
	files   []ProjectFile
	history *History
	entries []Entry
	memory  string
	// modified tracks paths changed since load; an applied delete removes
	// its path from the tracker.
	modified map[string]bool

	busy     bool
	stop     atomic.Bool
	cancelFn context.CancelFunc
}

// NewSession builds a session around an injected client and store. The store
// handle is constructed once by the caller and passed down; the core never
// reaches for global connection state.
func NewSession(cfg Config, client Client, store *Store, logger *Logger) *Session {
	return &Session{
		cfg:      cfg,
		client:   client,
		store:    store,
		logger:   logger,
		history:  NewHistory(cfg.HistoryCapacity),
		modified: map[string]bool{},
	}
}

// Files returns a copy of the live file set.
func (s *Session) Files() []ProjectFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CopyFiles(s.files)
}

// Entries returns a copy of the conversation log.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Memory returns the persistent session notes.
func (s *Session) Memory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory
}

// Busy reports whether a prompt is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// ModifiedFiles returns the sorted paths changed since load.
func (s *Session) ModifiedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.modified))
	for p := range s.modified {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// History exposes the snapshot history to the UI collaborator (read-only use:
// diff "before" content comes from here).
func (s *Session) History() *History {
	return s.history
}

// LoadFiles replaces the live file set, snapshotting the prior state first.
func (s *Session) LoadFiles(files []ProjectFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Push(s.files)
	s.files = CopyFiles(files)
	s.modified = map[string]bool{}
	s.logger.Info("files loaded", map[string]interface{}{"count": len(files)})
}

// SetFileContent commits a manual edit to one file.
func (s *Session) SetFileContent(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Push(s.files)
	s.files = SetFile(s.files, path, content)
	s.modified[path] = true
}

// FileContent returns the live content of path.
func (s *Session) FileContent(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FindFile(s.files, path)
}

// Stop requests cooperative cancellation of the in-flight stream. The flag is
// checked once per received chunk; already-received output is kept and parsed.
func (s *Session) Stop() {
	s.stop.Store(true)
	s.mu.Lock()
	cancel := s.cancelFn
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SendMessage appends a user entry and a streaming model entry, runs the
// model call, and finalizes the model entry with conversational text, any
// memory update, and parsed proposed changes. onUpdate (optional) receives
// live text/status on every chunk. Returns ErrBusy while another prompt is
// outstanding; stream failures surface on the model entry, not as a crash.
func (s *Session) SendMessage(ctx context.Context, text string, attachments []string, onUpdate func(StreamUpdate)) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.stop.Store(false)

	userEntry := Entry{ID: uuid.NewString(), Role: RoleUser, Text: text}
	for _, name := range attachments {
		userEntry.Attachments = append(userEntry.Attachments, Attachment{Name: name})
	}

	system := BuildSystemPrompt(s.memory, s.files)
	logForPrompt := append(append([]Entry{}, s.entries...), userEntry)
	trimmed := TrimToBudget(logForPrompt, s.cfg.ContextBudgetChars)
	if over := logChars(trimmed) - s.cfg.ContextBudgetChars; over > 0 {
		userEntry.Warning = fmt.Sprintf(
			"conversation exceeds the context budget by ~%d characters even after pruning; oldest messages may be degraded", over)
		logForPrompt[len(logForPrompt)-1] = userEntry
	}
	prompt := BuildPrompt(system, logForPrompt, s.cfg.ContextBudgetChars)

	modelEntry := Entry{ID: uuid.NewString(), Role: RoleModel}
	s.entries = append(s.entries, userEntry, modelEntry)

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	s.mu.Unlock()
	defer cancel()

	s.logger.Info("prompt sent", map[string]interface{}{
		"chars":  len(prompt),
		"tokens": EstimateTokens(prompt),
	})

	buffer, err := streamWithRetry(streamCtx, s.client, prompt, func(total string) {
		if s.stop.Load() {
			return
		}
		scan := ScanStream(total)
		s.mu.Lock()
		s.updateLastEntry(func(e *Entry) {
			e.Text = strings.TrimSpace(scan.Visible)
		})
		s.mu.Unlock()
		if onUpdate != nil {
			onUpdate(StreamUpdate{Text: strings.TrimSpace(scan.Visible), Status: scan.Status})
		}
	})

	stopped := s.stop.Load()
	if stopped {
		buffer += stoppedMarker
		err = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.cancelFn = nil

	if err != nil {
		// Chat-level failure: surfaced on the entry, session stays usable.
		scan := ScanStream(buffer)
		s.updateLastEntry(func(e *Entry) {
			e.Text = strings.TrimSpace(scan.Visible)
			e.Error = err.Error()
		})
		s.logger.Error("stream failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	s.finalize(buffer, stopped)
	return nil
}

// finalize runs the once-per-response path: extract memory, split off the
// change container, parse changes, and settle the model entry.
func (s *Session) finalize(buffer string, stopped bool) {
	scan := ScanStream(buffer)
	if scan.HasMemory {
		s.memory = scan.Memory
	}

	_, block, found := LocateChangeBlock(buffer)
	var changes []ProposedChange
	var parseErrText string
	if found {
		parsed, err := ParseChanges(block, s.files)
		switch {
		case err != nil && stopped:
			// Partial output after a user stop: a malformed block is
			// silently treated as absent.
		case err != nil:
			parseErrText = err.Error()
			s.logger.Error("change block rejected", map[string]interface{}{"error": err.Error()})
		default:
			changes = parsed
		}
	}

	s.updateLastEntry(func(e *Entry) {
		e.Text = strings.TrimSpace(scan.Visible)
		e.Error = parseErrText
		e.ProposedChanges = changes
	})
	s.logger.Info("response finalized", map[string]interface{}{
		"changes": len(changes),
		"stopped": stopped,
	})
}

// updateLastEntry edits the streaming model entry in place. Callers hold mu.
func (s *Session) updateLastEntry(fn func(e *Entry)) {
	if len(s.entries) == 0 {
		return
	}
	fn(&s.entries[len(s.entries)-1])
}

// ApplyChange commits one ProposedChange: one snapshot push, one atomic
// file-set update. A change carrying an error is not applicable.
func (s *Session) ApplyChange(change ProposedChange) error {
	if change.Err != "" {
		return fmt.Errorf("change for %s is not applicable: %s", change.FilePath, change.Err)
	}
	if change.FilePath == "" {
		return errors.New("change has no file path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Push(s.files)
	if change.NewContent == "" {
		s.files = RemoveFile(s.files, change.FilePath)
		delete(s.modified, change.FilePath)
	} else {
		s.files = SetFile(s.files, change.FilePath, change.NewContent)
		s.modified[change.FilePath] = true
	}
	s.logger.Info("change applied", map[string]interface{}{
		"path":   change.FilePath,
		"delete": change.NewContent == "",
	})
	return nil
}

// ApplyAll applies every applicable change, skipping errored ones. Returns
// how many were applied.
func (s *Session) ApplyAll(changes []ProposedChange) int {
	applied := 0
	for _, c := range changes {
		if c.Err != "" {
			continue
		}
		if err := s.ApplyChange(c); err == nil {
			applied++
		}
	}
	return applied
}

// RevertFile restores path to its most recent historical content. The
// pre-revert state is snapshotted first, so the revert itself stays undoable.
func (s *Session) RevertFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.history.MostRecentVersionOf(path)
	if !ok {
		return fmt.Errorf("no previous version of %s in history", path)
	}
	s.history.Push(s.files)
	s.files = SetFile(s.files, path, prev)
	s.modified[path] = true
	s.logger.Info("file reverted", map[string]interface{}{"path": path})
	return nil
}

// SaveWorkspace stores the live file set under name.
func (s *Session) SaveWorkspace(name string) error {
	if s.store == nil {
		return errors.New("no workspace store configured")
	}
	s.mu.Lock()
	snap := Snapshot{Files: CopyFiles(s.files)}
	s.mu.Unlock()
	return s.store.Save(name, snap)
}

// LoadWorkspace replaces the live file set with a stored snapshot,
// snapshotting the prior state first.
func (s *Session) LoadWorkspace(name string) error {
	if s.store == nil {
		return errors.New("no workspace store configured")
	}
	snap, ok, err := s.store.Get(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no workspace named %q", name)
	}
	s.LoadFiles(snap.Files)
	return nil
}

func logChars(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += entryChars(e)
	}
	return total
}
