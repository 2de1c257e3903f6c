package mot

// IDAllocator hands out monotonically increasing tracker identifiers.
// It is owned by TrackerSet; not safe for concurrent use.
type IDAllocator struct {
	next int
}

// NewIDAllocator creates allocator whose first identifier is start
func NewIDAllocator(start int) *IDAllocator {
	return &IDAllocator{next: start}
}

// Next returns new identifier
func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}

// Peek returns identifier which will be returned by the next call of Next
func (a *IDAllocator) Peek() int {
	return a.next
}
