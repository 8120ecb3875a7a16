package disk

import "testing"

// TestingNewFileManager initializes a disk manager backed by real files
// under a temp directory that is removed when the test completes.
func TestingNewFileManager(t *testing.T) (*Manager, error) {
	t.Helper()
	baseDir = t.TempDir()
	return NewManager()
}

// TestingNewInMemoryManager initializes a disk manager backed by in-memory
// buffers, so tests avoid real disk I/O entirely.
func TestingNewInMemoryManager() *Manager {
	return NewInMemoryManager()
}
