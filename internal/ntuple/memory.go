package ntuple

import (
	"context"
	"sort"

	"bpkupdate/internal/correction"
)

// MemorySource serves events held in memory. Scan hands out copies, so the
// stored events never change.
type MemorySource struct {
	events      []*correction.Event
	collections []string
}

// NewMemorySource wraps events. The collections are those found in any event.
func NewMemorySource(events []*correction.Event) *MemorySource {
	seen := make(map[string]bool)
	for _, e := range events {
		for name := range e.Collections {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return &MemorySource{events: events, collections: names}
}

func (s *MemorySource) Entries() int64        { return int64(len(s.events)) }
func (s *MemorySource) Collections() []string { return s.collections }
func (s *MemorySource) Close() error          { return nil }

// Scan implements correction.Source.
func (s *MemorySource) Scan(ctx context.Context, limit int64, fn func(*correction.Event) error) error {
	for i := int64(0); i < limit && i < int64(len(s.events)); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		evt := s.events[i].Clone()
		evt.Entry = i
		if err := fn(evt); err != nil {
			return err
		}
	}
	return nil
}

// MemorySink collects written events. They become visible in Events only
// after Commit.
type MemorySink struct {
	pending   []*correction.Event
	committed []*correction.Event
	aborted   bool
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Write(evt *correction.Event) error {
	s.pending = append(s.pending, evt.Clone())
	return nil
}

func (s *MemorySink) Commit() error {
	s.committed = s.pending
	s.pending = nil
	return nil
}

func (s *MemorySink) Abort() error {
	s.pending = nil
	s.aborted = true
	return nil
}

// Events returns the committed events.
func (s *MemorySink) Events() []*correction.Event { return s.committed }

// Aborted reports whether Abort was called.
func (s *MemorySink) Aborted() bool { return s.aborted }
