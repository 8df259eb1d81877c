package zcrack

import (
	"bytes"
	"testing"
)

func TestProgressCounters(t *testing.T) {
	p := NewProgress(nil)
	p.SetTotal(42)
	if got := p.Total(); got != 42 {
		t.Fatalf("Total() = %d, want 42", got)
	}
	for i := 0; i < 3; i++ {
		p.Increment()
	}
	if got := p.Done(); got != 3 {
		t.Fatalf("Done() = %d, want 3", got)
	}
}

func TestProgressStateTransitions(t *testing.T) {
	p := NewProgress(nil)
	if p.State() != StateNormal {
		t.Fatalf("initial State() = %v, want StateNormal", p.State())
	}
	p.SetEarlyExit()
	if p.State() != StateEarlyExit {
		t.Fatalf("State() after SetEarlyExit = %v, want StateEarlyExit", p.State())
	}
	p.SetCanceled()
	if p.State() != StateCanceled {
		t.Fatalf("State() after SetCanceled = %v, want StateCanceled", p.State())
	}
}

func TestProgressNilReceiverIsSafe(t *testing.T) {
	var p *Progress
	p.SetTotal(1)
	p.Increment()
	p.SetCanceled()
	p.SetEarlyExit()
	p.Log("hello %d", 1)

	if got := p.Total(); got != 0 {
		t.Fatalf("nil Progress Total() = %d, want 0", got)
	}
	if got := p.Done(); got != 0 {
		t.Fatalf("nil Progress Done() = %d, want 0", got)
	}
	if got := p.State(); got != StateNormal {
		t.Fatalf("nil Progress State() = %v, want StateNormal", got)
	}
}

func TestProgressLogWritesToSink(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)
	p.Log("candidate %d of %d", 1, 10)

	if buf.Len() == 0 {
		t.Fatal("Log did not write anything to the sink")
	}
	if !bytes.Contains(buf.Bytes(), []byte("candidate 1 of 10")) {
		t.Fatalf("Log output = %q, want it to contain the formatted message", buf.String())
	}
}
