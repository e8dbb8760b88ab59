package session

import (
	"math"

	"github.com/pavelanni/interviewer/internal/model"
)

// Recorder is the append-only log of graded attempts for one session run.
// Entries are never mutated or removed; Clear is invoked only by the
// controller on a filter change or restart.
type Recorder struct {
	records []model.HistoryRecord
}

// Append adds a record, preserving insertion order.
func (r *Recorder) Append(rec model.HistoryRecord) {
	r.records = append(r.records, rec)
}

// Clear drops all records.
func (r *Recorder) Clear() {
	r.records = nil
}

// Len returns the number of recorded attempts.
func (r *Recorder) Len() int {
	return len(r.records)
}

// Records returns a copy of the log.
func (r *Recorder) Records() []model.HistoryRecord {
	out := make([]model.HistoryRecord, len(r.records))
	copy(out, r.records)
	return out
}

// AggregatePercent reports the mean score as a rounded percentage. An empty
// log reports 0 rather than dividing by zero.
func (r *Recorder) AggregatePercent() int {
	var sum float64
	for _, rec := range r.records {
		sum += rec.Score
	}
	n := math.Max(float64(len(r.records)), 1)
	return int(math.Round(100 * sum / n))
}
