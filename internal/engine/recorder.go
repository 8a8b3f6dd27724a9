package engine

import (
	"sync"
	"time"

	"scenarist/internal/api"
)

// DefaultRecorderCapacity bounds how many selection records are retained
// before the oldest are dropped.
const DefaultRecorderCapacity = 1000

// Record is one entry in the selection history: which request arrived for
// which test session, and what the engine decided to do with it.
type Record struct {
	// TraceID matches the Selection returned to the caller.
	TraceID string

	// TestID is the session the selection ran under, after any
	// missing-test-ID fallback was applied.
	TestID string

	// Timestamp is when the selection completed.
	Timestamp time.Time

	// Method and URL describe the request.
	Method string
	URL    string

	// Disposition is what the caller was told to do.
	Disposition api.Disposition

	// ScenarioID and RuleIndex identify the winning rule, when one won.
	// RuleIndex is -1 otherwise.
	ScenarioID string
	RuleIndex  int

	// Err carries the error message when the selection failed.
	Err string
}

// Recorder keeps a bounded ring of selection records so a failing test can
// be reconstructed after the fact. It is purely diagnostic: selection never
// depends on it.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	records  []Record
	next     int
	full     bool
}

// NewRecorder creates a recorder retaining up to capacity records. A
// non-positive capacity falls back to DefaultRecorderCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	return &Recorder{
		capacity: capacity,
		records:  make([]Record, capacity),
	}
}

// Add appends one record, evicting the oldest when the ring is full.
func (r *Recorder) Add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[r.next] = rec
	r.next++
	if r.next == r.capacity {
		r.next = 0
		r.full = true
	}
}

// Selections returns the retained records for one test session, oldest
// first. An empty testID returns every retained record.
func (r *Recorder) Selections(testID string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Record
	appendMatching := func(recs []Record) {
		for _, rec := range recs {
			if testID == "" || rec.TestID == testID {
				out = append(out, rec)
			}
		}
	}
	if r.full {
		appendMatching(r.records[r.next:])
	}
	appendMatching(r.records[:r.next])
	return out
}
