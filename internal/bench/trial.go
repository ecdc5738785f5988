package bench

import (
	"time"

	"github.com/arkilian/layoutbench/pkg/types"
)

// Kind names a timed path. The flat and document kinds match the storage
// representations; KindComplex is fetch plus analytics.
type Kind string

const (
	KindFlat     Kind = Kind(types.RepresentationFlat)
	KindDocument Kind = Kind(types.RepresentationDocument)
	KindComplex  Kind = "complex"
)

// Trial is one timed fetch+decode in a single representation.
type Trial struct {
	Representation  types.Representation `json:"representation"`
	CountRequested  int                  `json:"count_requested"`
	Duration        time.Duration        `json:"-"`
	DurationMS      float64              `json:"duration_ms"`
	RecordsReturned int                  `json:"records_returned"`
	// DecodeFailures counts returned rows that could not be decoded.
	DecodeFailures int `json:"decode_failures"`
}

// ComplexTrial is one timed fetch+transform over the document layout.
// RecordsProcessed is the post-filter count; RecordsDropped makes the
// difference to RecordsReturned explicit.
type ComplexTrial struct {
	CountRequested   int           `json:"count_requested"`
	Duration         time.Duration `json:"-"`
	DurationMS       float64       `json:"duration_ms"`
	RecordsReturned  int           `json:"records_returned"`
	RecordsProcessed int           `json:"records_processed"`
	RecordsDropped   int           `json:"records_dropped"`
}

// Entry is one line of a sweep report.
type Entry struct {
	Scale            int     `json:"scale"`
	Kind             Kind    `json:"kind"`
	DurationMS       float64 `json:"duration_ms"`
	RecordsReturned  int     `json:"records_returned"`
	RecordsProcessed int     `json:"records_processed"`
	RecordsDropped   int     `json:"records_dropped,omitempty"`
	DecodeFailures   int     `json:"decode_failures,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// Failed reports whether the trial behind the entry failed.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// SweepReport collects every entry of a sweep in execution order.
type SweepReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS float64   `json:"duration_ms"`
	Scales     []int     `json:"scales"`
	Entries    []Entry   `json:"entries"`
}

// Failures returns the number of failed entries.
func (r *SweepReport) Failures() int {
	n := 0
	for _, e := range r.Entries {
		if e.Failed() {
			n++
		}
	}
	return n
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
