package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tskov/fitloom/internal/errors"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFiles_MatchesPatternInSubdirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "steps-2023-01-01.json"))
	writeFile(t, filepath.Join(root, "Physical Activity", "steps-2023-02-01.json"))
	writeFile(t, filepath.Join(root, "Physical Activity", "heart_rate-2023-02-01.json"))
	writeFile(t, filepath.Join(root, "notes.txt"))

	got, err := Files(root, []string{"steps-*.json"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(got), got)
	}
}

func TestFiles_SortedOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "steps-2023-03-01.json"))
	writeFile(t, filepath.Join(root, "a", "steps-2023-01-01.json"))
	writeFile(t, filepath.Join(root, "steps-2023-02-01.json"))

	got, err := Files(root, []string{"steps-*.json"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Errorf("result not sorted: %v", got)
		}
	}
}

func TestFiles_MultiplePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "steps-2023-01-01.json"))
	writeFile(t, filepath.Join(root, "heart_rate-2023-01-01.json"))

	got, err := Files(root, []string{"steps-*.json", "heart_rate-*.json"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got))
	}
}

func TestFiles_MissingRoot(t *testing.T) {
	_, err := Files(filepath.Join(t.TempDir(), "nope"), []string{"*.json"})
	if !errors.Is(err, errors.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestFiles_NoMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"))

	got, err := Files(root, []string{"steps-*.json"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestFiles_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "steps-2023-01-01.json"))

	if err := os.Symlink(other, filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	got, err := Files(root, []string{"steps-*.json"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected symlinked tree to be skipped, got %v", got)
	}
}
