package metrics

import "sync/atomic"

// SubmissionCounts is a point-in-time view of form submission outcomes.
type SubmissionCounts struct {
	Issued    int64 `json:"issued"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
	Stale     int64 `json:"stale"`
}

// SubmissionCounter accumulates outcomes across every form in the process.
// The zero value is ready to use and a nil counter ignores all calls.
type SubmissionCounter struct {
	issued    atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
	stale     atomic.Int64
}

// NewSubmissionCounter is a wire provider.
func NewSubmissionCounter() *SubmissionCounter {
	return &SubmissionCounter{}
}

func (c *SubmissionCounter) Issued() {
	if c != nil {
		c.issued.Add(1)
	}
}

func (c *SubmissionCounter) Succeeded() {
	if c != nil {
		c.succeeded.Add(1)
	}
}

func (c *SubmissionCounter) Failed() {
	if c != nil {
		c.failed.Add(1)
	}
}

func (c *SubmissionCounter) Rejected() {
	if c != nil {
		c.rejected.Add(1)
	}
}

// Stale counts responses dropped because a newer submission was already applied.
func (c *SubmissionCounter) Stale() {
	if c != nil {
		c.stale.Add(1)
	}
}

// Snapshot returns the current totals.
func (c *SubmissionCounter) Snapshot() SubmissionCounts {
	if c == nil {
		return SubmissionCounts{}
	}
	return SubmissionCounts{
		Issued:    c.issued.Load(),
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		Rejected:  c.rejected.Load(),
		Stale:     c.stale.Load(),
	}
}
