package testutil

import "sync"

// Recorder keeps the order in which fakes were called. Fakes sharing one
// Recorder produce a single combined timeline.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *Recorder) Record(call string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}
