package bulkverify

import "github.com/optimode/bulkverify/types"

// BatchResult is the outcome of ValidateBatch. Results follow input order.
type BatchResult struct {
	Total           int                  `json:"total"`
	Results         []Verdict            `json:"results"`
	Summary         map[Result]int       `json:"summary"`
	DuplicateFilter *DeduplicationReport `json:"duplicateFilter,omitempty"`
}

// EventKind tells stream events apart.
type EventKind string

const (
	// EventDuplicates carries the dedup report. Sent first, only when filtering.
	EventDuplicates EventKind = "duplicates"
	// EventVerdict carries one address verdict.
	EventVerdict EventKind = "verdict"
	// EventDone is the last event of a completed stream.
	EventDone EventKind = "done"
	// EventError ends a stream that hit an internal error.
	EventError EventKind = "error"
)

// StreamEvent is one item of ValidateStream output. Only the fields of its kind are set.
type StreamEvent struct {
	Kind EventKind `json:"type"`
	// Index is the position of Verdict in the validated list.
	Index      int                  `json:"-"`
	Verdict    *Verdict             `json:"verdict,omitempty"`
	Duplicates *DeduplicationReport `json:"duplicates,omitempty"`
	Total      int                  `json:"total,omitempty"`
	Summary    map[Result]int       `json:"summary,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func newSummary() map[Result]int {
	s := make(map[Result]int, len(types.Results))
	for _, r := range types.Results {
		s[r] = 0
	}
	return s
}
