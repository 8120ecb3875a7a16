package buffer

import "coredb/storage/page"

// frame is the byte array a page is read into.
type frame *[frameSize]byte

const (
	// frameSize must equal page.PageSize because a page is read whole into
	// one frame.
	frameSize = page.PageSize
)

// newFrames allocates poolSize 0-filled frames.
func newFrames(poolSize int) []frame {
	frames := make([]frame, poolSize)
	for i := range frames {
		frames[i] = &[frameSize]byte{}
	}
	return frames
}

// BufferID identifies a frame slot within the pool. It is not a page id:
// many pages occupy a given BufferID over the life of the process.
type BufferID int32

const (
	FirstBufferID   BufferID = 0
	InvalidBufferID BufferID = -1
)
