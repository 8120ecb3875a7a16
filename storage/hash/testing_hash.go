package hash

import (
	"coredb/common"
	"coredb/config"
	"coredb/storage/buffer"

	"github.com/pkg/errors"
)

// TestingNewTable wraps an in-memory buffer pool into a fresh hash table,
// with small header/directory/bucket sizes so splitting and merging logic
// exercises after a handful of inserts instead of thousands.
func TestingNewTable(poolSize, replacerK int) *Table {
	cfg := config.New(
		config.WithPoolSize(poolSize),
		config.WithReplacerK(replacerK),
		config.WithHeaderMaxDepth(4),
		config.WithDirectoryMaxDepth(6),
		config.WithBucketMaxSize(8),
	)
	bpm := buffer.TestingNewManager(cfg.PoolSize, cfg.ReplacerK)
	tbl, err := NewTable(bpm, common.Relation(1), cfg)
	if err != nil {
		panic(errors.Wrap(err, "TestingNewTable: NewTable failed"))
	}
	return tbl
}
