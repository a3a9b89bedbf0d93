package broker

// DocumentTask is a unit of work routed to exactly one worker. It is created
// by the coordinator at indexing trigger time, pushed to one worker's queue,
// consumed exactly once under normal operation, and never mutated. There is
// no acknowledgment protocol: a worker that crashes after dequeuing but
// before publishing its result silently drops the task.
type DocumentTask struct {
	DocID   string `json:"doc_id"`
	Content string `json:"content"`
}

// PartialIndexResult is a worker's answer for one document. Partial maps a
// stemmed term to {docId: frequency}; every inner map has exactly one key,
// equal to DocID. The shape is doubly-keyed on the wire for compatibility
// even though the inner map is redundant — callers that only need the count
// should use Frequencies to get the flattened term->frequency view.
type PartialIndexResult struct {
	WorkerID string                    `json:"worker_id"`
	DocID    string                    `json:"doc_id"`
	Partial  map[string]map[string]int `json:"partial"`
}

// Frequencies flattens Partial into term -> frequency, dropping the
// redundant inner docId key.
func (p PartialIndexResult) Frequencies() map[string]int {
	freqs := make(map[string]int, len(p.Partial))
	for term, byDoc := range p.Partial {
		freqs[term] = byDoc[p.DocID]
	}
	return freqs
}

// NewPartialIndexResult builds a PartialIndexResult from a flat
// term->frequency map, re-introducing the doubly-keyed wire shape.
func NewPartialIndexResult(workerID, docID string, freqs map[string]int) PartialIndexResult {
	partial := make(map[string]map[string]int, len(freqs))
	for term, freq := range freqs {
		partial[term] = map[string]int{docID: freq}
	}
	return PartialIndexResult{WorkerID: workerID, DocID: docID, Partial: partial}
}

// WorkerStatus is a heartbeat record. It is stored at key
// worker_status:{workerId} with a TTL equal to 3x the heartbeat interval;
// liveness is defined as key presence.
type WorkerStatus struct {
	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float64 `json:"ram_percent"`
}
