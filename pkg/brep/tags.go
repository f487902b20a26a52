package brep

import (
	"strconv"
	"sync/atomic"
)

// TagAllocator hands out document-unique object tags. A zero TagAllocator is
// ready to use.
type TagAllocator struct {
	next atomic.Uint64
}

// NewTagAllocator creates an allocator whose first tag is start+1.
func NewTagAllocator(start uint64) *TagAllocator {
	a := &TagAllocator{}
	a.next.Store(start)
	return a
}

// Next returns a fresh tag with the given prefix, e.g. "v12".
func (a *TagAllocator) Next(prefix string) string {
	return prefix + strconv.FormatUint(a.next.Add(1), 10)
}

// Generation returns the last issued counter value.
func (a *TagAllocator) Generation() uint64 {
	return a.next.Load()
}
