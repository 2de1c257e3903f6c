package mot

// DefaultHistoryCapacity is number of recent predictions kept by every tracker
const DefaultHistoryCapacity = 5

// PredictionHistory is fixed-capacity circular buffer of regions.
// Pushing into full buffer evicts the oldest region.
type PredictionHistory struct {
	items []Region
	start int
	size  int
}

// NewPredictionHistory creates empty buffer. Non-positive capacity is replaced by DefaultHistoryCapacity
func NewPredictionHistory(capacity int) *PredictionHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &PredictionHistory{
		items: make([]Region, capacity),
	}
}

// Push appends region, evicting the oldest one on overflow
func (h *PredictionHistory) Push(region Region) {
	if h.size < len(h.items) {
		h.items[(h.start+h.size)%len(h.items)] = region
		h.size++
		return
	}
	h.items[h.start] = region
	h.start = (h.start + 1) % len(h.items)
}

// Len returns number of stored regions
func (h *PredictionHistory) Len() int {
	return h.size
}

// Cap returns capacity of the buffer
func (h *PredictionHistory) Cap() int {
	return len(h.items)
}

// Items returns copy of stored regions, the oldest first
func (h *PredictionHistory) Items() []Region {
	result := make([]Region, h.size)
	for i := 0; i < h.size; i++ {
		result[i] = h.items[(h.start+i)%len(h.items)]
	}
	return result
}
