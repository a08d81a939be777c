package trace

import (
	"errors"
	"io"
	"os"
	"sync"
)

// filter holds the level shared by every sink.
type filter struct{ level Level }

func (f filter) Level() Level  { return f.level }
func (f filter) Enabled() bool { return f.level > LevelOff }

func (f filter) accepts(ev *Event) bool {
	return ev.Kind == KindHeartbeat || f.level.ShouldEmit(ev.Scope)
}

type nopTracer struct{ filter }

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

// Nop drops every event.
var Nop Tracer = nopTracer{}

// RingTracer keeps the most recent events in memory.
type RingTracer struct {
	filter
	mu    sync.Mutex
	buf   []Event
	total uint64 // events ever stored
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{filter: filter{level}, buf: make([]Event, capacity)}
}

func (r *RingTracer) Emit(ev *Event) {
	if !r.accepts(ev) {
		return
	}
	r.mu.Lock()
	stored := *ev
	stored.Seq = NextSeq()
	r.buf[r.total%uint64(len(r.buf))] = stored
	r.total++
	r.mu.Unlock()
}

// Snapshot returns the stored events, oldest first.
func (r *RingTracer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := uint64(len(r.buf))
	n := min(r.total, size)
	out := make([]Event, 0, n)
	for i := r.total - n; i < r.total; i++ {
		out = append(out, r.buf[i%size])
	}
	return out
}

// Dump writes the snapshot to w.
func (r *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RingTracer) Flush() error { return nil }
func (r *RingTracer) Close() error { return nil }

// StreamTracer formats and writes each event as it arrives. Write errors are
// dropped; tracing never fails a run.
type StreamTracer struct {
	filter
	mu     sync.Mutex
	w      io.Writer
	format Format
	wrote  bool
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatChrome {
		_, _ = io.WriteString(w, "{\"traceEvents\":[\n")
	}
	return &StreamTracer{filter: filter{level}, w: w, format: format}
}

func (s *StreamTracer) Emit(ev *Event) {
	if !s.accepts(ev) {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, s.format)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == FormatChrome && s.wrote {
		_, _ = io.WriteString(s.w, ",\n")
	}
	s.wrote = true
	_, _ = s.w.Write(data)
}

func (s *StreamTracer) Flush() error {
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close terminates a chrome document and closes file outputs.
func (s *StreamTracer) Close() error {
	s.mu.Lock()
	if s.format == FormatChrome {
		_, _ = io.WriteString(s.w, "\n]}\n")
	}
	s.mu.Unlock()
	if err := s.Flush(); err != nil {
		return err
	}
	if s.w == os.Stdout || s.w == os.Stderr {
		return nil
	}
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MultiTracer copies every event to each member.
type MultiTracer struct {
	filter
	members []Tracer
}

func NewMultiTracer(level Level, members ...Tracer) *MultiTracer {
	return &MultiTracer{filter: filter{level}, members: members}
}

func (m *MultiTracer) Emit(ev *Event) {
	for _, t := range m.members {
		// each sink stamps its own Seq
		cp := *ev
		t.Emit(&cp)
	}
}

func (m *MultiTracer) Flush() error {
	var errs []error
	for _, t := range m.members {
		errs = append(errs, t.Flush())
	}
	return errors.Join(errs...)
}

func (m *MultiTracer) Close() error {
	var errs []error
	for _, t := range m.members {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

// RingOf finds the ring buffer inside t, if it has one.
func RingOf(t Tracer) (*RingTracer, bool) {
	switch x := t.(type) {
	case *RingTracer:
		return x, true
	case *MultiTracer:
		for _, m := range x.members {
			if r, ok := RingOf(m); ok {
				return r, true
			}
		}
	}
	return nil, false
}
