package buffer

import (
	"coredb/common"
	"coredb/storage/disk"
	"coredb/storage/page"
)

// tag identifies a page well enough to locate it on disk: relation, fork,
// and page id. valid distinguishes a freshly allocated descriptor (zero
// tag, never assigned) from a genuine tag for relation 0/fork 0/page 0.
type tag struct {
	rel     common.Relation
	forkNum disk.ForkNumber
	pageID  page.PageID
	valid   bool
}

func newTag(rel common.Relation, forkNum disk.ForkNumber, pageID page.PageID) tag {
	return tag{rel: rel, forkNum: forkNum, pageID: pageID, valid: true}
}
