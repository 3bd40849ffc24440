package artifact

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/plancraft/plancraft/id"
)

func TestSaveAndLoad(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tid := id.NewThreadID()

	path, err := s.Save(tid, "# 기획서\n\n내용")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".md" {
		t.Errorf("path = %q, want .md extension", path)
	}

	got, err := s.Load(tid)
	if err != nil {
		t.Fatal(err)
	}
	if got != "# 기획서\n\n내용" {
		t.Errorf("loaded = %q", got)
	}

	// Saving again replaces the document.
	if _, err := s.Save(tid, "v2"); err != nil {
		t.Fatal(err)
	}
	got, err = s.Load(tid)
	if err != nil {
		t.Fatal(err)
	}
	if got != "v2" {
		t.Errorf("loaded after overwrite = %q", got)
	}
}

func TestLoadMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(id.NewThreadID()); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Errorf("err = %v", err)
	}
}
