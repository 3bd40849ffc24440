// Package artifact stores finished plan documents on disk so completed
// runs can hand back a file path instead of inlining large markdown
// bodies in API responses.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/plancraft/plancraft/id"
)

// Store writes and reads plan documents under a base directory. File
// names are derived from the thread id, one document per thread; saving
// again overwrites the previous revision.
type Store struct {
	dir string
}

// NewStore creates the base directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes content for a thread and returns the document path.
func (s *Store) Save(threadID id.ThreadID, content string) (string, error) {
	if threadID.IsNil() {
		return "", fmt.Errorf("artifact: thread id is required")
	}
	path := s.pathFor(threadID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("artifact: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("artifact: rename: %w", err)
	}
	return path, nil
}

// Load reads the document for a thread.
func (s *Store) Load(threadID id.ThreadID) (string, error) {
	b, err := os.ReadFile(s.pathFor(threadID))
	if err != nil {
		return "", fmt.Errorf("artifact: read: %w", err)
	}
	return string(b), nil
}

func (s *Store) pathFor(threadID id.ThreadID) string {
	name := strings.ReplaceAll(threadID.String(), string(filepath.Separator), "_")
	return filepath.Join(s.dir, name+".md")
}
