package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

// writeExport writes one export file into dir and returns its path.
func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
