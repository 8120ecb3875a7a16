package disk

import (
	"fmt"
	"path/filepath"

	"coredb/common"
)

// ForkNumber identifies which file of a relation a page belongs to.
// A relation has a main table-heap fork and a free-space-map fork; an
// indexed relation additionally has the three extendible-hash forks.
//
// see https://github.com/postgres/postgres/blob/b0a55e43299c4ea2a9a8c757f9c26352407d0ccc/src/backend/storage/smgr/README#L37-L52
type ForkNumber int

const (
	// ForkNumberMain is the table heap fork.
	ForkNumberMain ForkNumber = iota
	// ForkNumberFSM is the free-space map fork for the table heap.
	ForkNumberFSM
	// ForkNumberHashHeader is the extendible hash index's single header page fork.
	ForkNumberHashHeader
	// ForkNumberHashDirectory is the extendible hash index's directory-pages fork.
	ForkNumberHashDirectory
	// ForkNumberHashBucket is the extendible hash index's bucket-pages fork.
	ForkNumberHashBucket
)

var forkFilePathSuffix = []string{"main", "fsm", "hash_header", "hash_directory", "hash_bucket"}

// getRelationForkFilePath returns the on-disk path for a relation fork
// under baseDir, mirroring the teacher's one-file-per-fork layout.
func getRelationForkFilePath(rel common.Relation, forkNumber ForkNumber) string {
	if forkNumber == ForkNumberMain {
		return filepath.Join(baseDir, fmt.Sprintf("%d", rel))
	}
	return filepath.Join(baseDir, fmt.Sprintf("%d_%s", rel, forkFilePathSuffix[forkNumber]))
}
