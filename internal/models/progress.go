package models

import (
	"sync"
)

// ProgressTracker reports how far a cluster snapshot load has gone. It is
// shared between the loader goroutines and the SSE progress endpoint.
type ProgressTracker struct {
	mu       sync.RWMutex
	current  int
	total    int
	status   string
	finished bool
	err      string
}

// Progress is a point-in-time copy of a tracker.
type Progress struct {
	Percent  int    `json:"progress"`
	Status   string `json:"status"`
	Finished bool   `json:"finished"`
	Error    string `json:"error,omitempty"`
}

func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:  total,
		status: "Initializing...",
	}
}

// Step advances the tracker by one and records status.
func (p *ProgressTracker) Step(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.total {
		p.current++
	}
	if status != "" {
		p.status = status
	}
}

func (p *ProgressTracker) SetStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

func (p *ProgressTracker) Get() Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	percentage := 0
	if p.total > 0 {
		percentage = (p.current * 100) / p.total
	}
	return Progress{
		Percent:  percentage,
		Status:   p.status,
		Finished: p.finished,
		Error:    p.err,
	}
}

func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.finished = true
	p.status = "Complete"
}

// Fail finishes the tracker with an error message.
func (p *ProgressTracker) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true
	p.status = "Failed"
	if err != nil {
		p.err = err.Error()
	}
}
