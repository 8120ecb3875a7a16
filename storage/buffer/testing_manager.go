package buffer

import (
	"coredb/config"
	"coredb/storage/disk"
)

// TestingNewManager initializes an in-memory-backed buffer pool with a
// small pool size, so tests can exercise eviction without allocating
// hundreds of frames.
func TestingNewManager(poolSize, replacerK int) *Manager {
	dm := disk.TestingNewInMemoryManager()
	return NewManager(dm, config.New(config.WithPoolSize(poolSize), config.WithReplacerK(replacerK)))
}
