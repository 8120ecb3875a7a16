package common

import "errors"

// Error kinds named by the design. No operation in this module returns or
// wraps these: failures surface as github.com/pkg/errors chains and as the
// package sentinels hash.ErrDuplicateKey, transaction.ErrWriteConflict and
// transaction.ErrDuplicateKey. The comments list the conditions each kind
// names.
var (
	// ErrCapacity: the buffer pool could not evict any frame, or a hash
	// directory/header has reached its maximum depth.
	ErrCapacity = errors.New("capacity exhausted")
	// ErrIO: the disk scheduler reported a failed read or write.
	ErrIO = errors.New("disk i/o failed")
	// ErrProtocolMisuse: unpin of an unpinned page, evict of a
	// non-evictable frame, commit/abort of a transaction not in the
	// expected state, a watermark add below the current commit ts.
	ErrProtocolMisuse = errors.New("protocol misuse")
	// ErrConflict: a write-write conflict was detected, either inline
	// during the write path (taints the transaction) or during
	// serializable commit verification.
	ErrConflict = errors.New("write-write conflict")
	// ErrNotFound: a lookup miss or a delete of an absent page/key.
	ErrNotFound = errors.New("not found")
)
