package ntuple

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpkupdate/internal/correction"
)

func sampleEvents() []*correction.Event {
	return []*correction.Event{
		{Rho: 5, Collections: map[string][]correction.Jet{correction.AK4CHS: {{Pt: 40, RawPt: 38}}}},
		{Rho: 7, Collections: map[string][]correction.Jet{correction.AK8Puppi: {{Pt: 300, RawPt: 290}}}},
	}
}

func TestMemorySource(t *testing.T) {
	events := sampleEvents()
	src := NewMemorySource(events)

	assert.Equal(t, int64(2), src.Entries())
	assert.Equal(t, []string{correction.AK4CHS, correction.AK8Puppi}, src.Collections())

	var seen []int64
	err := src.Scan(context.Background(), 5, func(evt *correction.Event) error {
		seen = append(seen, evt.Entry)
		for name := range evt.Collections {
			evt.Collections[name][0].CorrectionFactor = 2
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, seen)
	assert.Zero(t, events[0].Collections[correction.AK4CHS][0].CorrectionFactor, "stored events are not modified")
}

func TestMemorySource_Limit(t *testing.T) {
	src := NewMemorySource(sampleEvents())
	n := 0
	require.NoError(t, src.Scan(context.Background(), 1, func(*correction.Event) error { n++; return nil }))
	assert.Equal(t, 1, n)
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	evt := sampleEvents()[0]
	require.NoError(t, sink.Write(evt))
	evt.Rho = 99
	assert.Empty(t, sink.Events(), "nothing visible before commit")

	require.NoError(t, sink.Commit())
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, 5.0, sink.Events()[0].Rho)

	aborted := NewMemorySink()
	require.NoError(t, aborted.Write(evt))
	require.NoError(t, aborted.Abort())
	assert.Empty(t, aborted.Events())
	assert.True(t, aborted.Aborted())
}

func TestMemory_CopyThrough(t *testing.T) {
	events := sampleEvents()
	events = append(events, &correction.Event{Rho: 9, Collections: map[string][]correction.Jet{correction.AK4Puppi: {}}})
	src := NewMemorySource(events)
	sink := NewMemorySink()

	require.NoError(t, src.Scan(context.Background(), src.Entries(), sink.Write))
	require.NoError(t, sink.Commit())

	opts := []cmp.Option{cmpopts.EquateEmpty(), cmpopts.IgnoreFields(correction.Event{}, "Entry")}
	if diff := cmp.Diff(events, sink.Events(), opts...); diff != "" {
		t.Errorf("copied events differ (-want +got):\n%s", diff)
	}
	for i, evt := range sink.Events() {
		assert.Equal(t, int64(i), evt.Entry)
	}
}
