package tool

// history is a fixed capacity ring of execution records. When full, the
// oldest record is overwritten. Not safe for concurrent use.
type history struct {
	records []ExecutionRecord
	start   int
	size    int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &history{records: make([]ExecutionRecord, capacity)}
}

func (h *history) add(r ExecutionRecord) {
	capacity := len(h.records)
	if h.size < capacity {
		h.records[(h.start+h.size)%capacity] = r
		h.size++
		return
	}
	h.records[h.start] = r
	h.start = (h.start + 1) % capacity
}

func (h *history) len() int {
	return h.size
}

// snapshot returns the records oldest first.
func (h *history) snapshot() []ExecutionRecord {
	out := make([]ExecutionRecord, h.size)
	for i := range h.size {
		out[i] = h.records[(h.start+i)%len(h.records)]
	}
	return out
}
