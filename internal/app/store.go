package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists named workspace snapshots as JSON documents on disk, one
// file per workspace under <root>/workspace/. The core only depends on the
// Save/Get/List/Delete surface; the layout is an implementation detail.
type Store struct {
	Root string
}

type storedWorkspace struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	SavedAt time.Time     `json:"saved_at"`
	Files   []ProjectFile `json:"files"`
}

// DefaultStoreRoot prefers the XDG data dir, then ~/.local/share.
func DefaultStoreRoot() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "aide", "storage")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "share", "aide", "storage")
	}
	return filepath.Join(os.TempDir(), "aide", "storage")
}

// NewStore is the single construction point for the storage handle; it is
// built once at startup and injected into the session.
func NewStore(root string) *Store {
	if strings.TrimSpace(root) == "" {
		root = DefaultStoreRoot()
	}
	return &Store{Root: root}
}

func (s *Store) workspaceDir() string {
	return filepath.Join(s.Root, "workspace")
}

func (s *Store) workspacePath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("workspace name is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("workspace name %q must not contain path separators", name)
	}
	return filepath.Join(s.workspaceDir(), name+".json"), nil
}

// Save writes snap under name, replacing any previous save of that name.
func (s *Store) Save(name string, snap Snapshot) error {
	path, err := s.workspacePath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.workspaceDir(), 0o755); err != nil {
		return err
	}
	doc := storedWorkspace{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(name),
		SavedAt: time.Now().UTC(),
		Files:   CopyFiles(snap.Files),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get returns the snapshot saved under name, with ok=false when absent.
func (s *Store) Get(name string) (Snapshot, bool, error) {
	path, err := s.workspacePath(name)
	if err != nil {
		return Snapshot{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var doc storedWorkspace
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, false, fmt.Errorf("corrupt workspace %q: %w", name, err)
	}
	return Snapshot{Files: doc.Files}, true, nil
}

// List returns every saved workspace name in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.workspaceDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the workspace saved under name; deleting a missing
// workspace is a no-op.
func (s *Store) Delete(name string) error {
	path, err := s.workspacePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
