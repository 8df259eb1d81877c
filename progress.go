package zcrack

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the tri-state cancellation flag every worker polls at the
// top of its unit of work. Normal is the only state in which work
// continues; EarlyExit additionally tells the caller a solution was
// already found elsewhere and further candidates need not be tried.
type State int32

const (
	StateNormal State = iota
	StateCanceled
	StateEarlyExit
)

// Progress is shared by every worker in a parallel run: Done and Total
// track unit-of-work counts, State is the cancellation flag, and RunID
// correlates log lines from concurrent workers back to a single run.
// Every field is either atomic or mutex-guarded, so Progress is safe
// for concurrent use without any additional synchronization by callers.
type Progress struct {
	RunID uuid.UUID

	done  atomic.Int64
	total atomic.Int64
	state atomic.Int32

	mu  sync.Mutex
	out io.Writer
}

// NewProgress returns a Progress logging to out, or discarding log
// output entirely if out is nil.
func NewProgress(out io.Writer) *Progress {
	p := &Progress{RunID: uuid.New(), out: out}
	return p
}

// SetTotal records the number of units of work this run expects to do.
// A nil Progress is a valid no-op receiver, so callers that do not want
// progress tracking can pass nil throughout.
func (p *Progress) SetTotal(n int64) {
	if p == nil {
		return
	}
	p.total.Store(n)
}

// Total returns the number of units of work this run expects to do.
func (p *Progress) Total() int64 {
	if p == nil {
		return 0
	}
	return p.total.Load()
}

// Increment advances Done by one and returns the new value.
func (p *Progress) Increment() int64 {
	if p == nil {
		return 0
	}
	return p.done.Add(1)
}

// Done returns the number of units of work completed so far.
func (p *Progress) Done() int64 {
	if p == nil {
		return 0
	}
	return p.done.Load()
}

// State returns the current cancellation state.
func (p *Progress) State() State {
	if p == nil {
		return StateNormal
	}
	return State(p.state.Load())
}

// SetCanceled transitions the run to StateCanceled. It performs a
// single atomic store and allocates nothing, so it is safe to call from
// a signal handler.
func (p *Progress) SetCanceled() {
	if p == nil {
		return
	}
	p.state.Store(int32(StateCanceled))
}

// SetEarlyExit transitions the run to StateEarlyExit, telling every
// worker that a solution has already been found and further candidates
// can be skipped.
func (p *Progress) SetEarlyExit() {
	if p == nil {
		return
	}
	p.state.Store(int32(StateEarlyExit))
}

// Log writes a formatted line to the progress sink under its mutex. No
// output happens if the Progress was built with a nil writer.
func (p *Progress) Log(format string, args ...any) {
	if p == nil || p.out == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] ", p.RunID)
	fmt.Fprintf(p.out, format, args...)
	fmt.Fprintln(p.out)
}
