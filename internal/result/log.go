package result

import (
	"fmt"
	"sync"
)

// Log is an ordered, human-readable trail of what a node did. It is safe for
// concurrent use so an executor may log from helper goroutines.
type Log struct {
	mu    sync.Mutex
	lines []string
}

// Addf appends a formatted line.
func (l *Log) Addf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the trail.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
