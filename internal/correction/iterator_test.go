package correction

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	events int
	jets   map[string]int
}

func (o *countingObserver) EventProcessed() { o.events++ }

func (o *countingObserver) JetsCorrected(collection string, n int) {
	if o.jets == nil {
		o.jets = make(map[string]int)
	}
	o.jets[collection] += n
}

func threeEventSource() *memSource {
	src := &memSource{collections: []string{AK4CHS}}
	for _, pt := range []float64{30, 100, 500} {
		src.events = append(src.events, &Event{
			Rho:         10,
			Collections: map[string][]Jet{AK4CHS: jetsAt(pt)},
		})
	}
	return src
}

func loadedRegistry(t *testing.T) *Registry {
	t.Helper()
	base := t.TempDir()
	writeJEC(t, base, testJEC, LabelAK4CHS, 1.05)
	r := NewRegistry(NewLoader(base, nil), FallbackAlways, nil)
	require.NoError(t, r.Load(context.Background(), Selection{JECVersion: testJEC, Collections: []string{AK4CHS}}))
	return r
}

func TestIterator_EndToEnd(t *testing.T) {
	src := threeEventSource()
	sink := &memSink{}
	obs := &countingObserver{}
	it := &Iterator{
		Source:      src,
		Sink:        sink,
		Correctors:  loadedRegistry(t),
		Collections: []string{AK4CHS},
		MaxEvents:   -1,
		Observer:    obs,
	}

	stats, err := it.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.events, 3)
	for i, pt := range []float64{30, 100, 500} {
		jet := sink.events[i].Collections[AK4CHS][0]
		assert.InDelta(t, 1.157625, jet.CorrectionFactor, 1e-9)
		corrected := pt * 1.157625
		wantUnc := 0.02 + (corrected-10)/(1000-10)*(0.01-0.02)
		assert.InDelta(t, wantUnc, jet.Uncertainty, 1e-9)
		assert.Equal(t, pt, jet.Pt)
	}
	assert.Equal(t, int64(3), stats.Events)
	assert.False(t, stats.CopyOnly)
	assert.Equal(t, int64(3), stats.Collections[AK4CHS].Corrected)
	assert.InDelta(t, 1.157625, stats.Collections[AK4CHS].MeanFactor(), 1e-9)
	assert.Equal(t, 3, obs.events)
	assert.Equal(t, 3, obs.jets[AK4CHS])
}

func TestIterator_MaxEventsZeroCopies(t *testing.T) {
	src := threeEventSource()
	sink := &memSink{}
	it := &Iterator{
		Source:      src,
		Sink:        sink,
		Correctors:  loadedRegistry(t),
		Collections: []string{AK4CHS},
		MaxEvents:   0,
	}

	stats, err := it.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.events, 3)
	for i, evt := range sink.events {
		assert.Equal(t, src.events[i].Collections, evt.Collections)
	}
	assert.True(t, stats.CopyOnly)
}

func TestIterator_MaxEventsLimits(t *testing.T) {
	src := threeEventSource()
	sink := &memSink{}
	it := &Iterator{
		Source:      src,
		Sink:        sink,
		Correctors:  loadedRegistry(t),
		Collections: []string{AK4CHS},
		MaxEvents:   2,
	}

	stats, err := it.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, sink.events, 2)
	assert.Equal(t, int64(2), src.scanned)
	assert.Equal(t, int64(3), stats.Total)

	sink = &memSink{}
	it.Sink = sink
	it.MaxEvents = 50
	_, err = it.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, sink.events, 3)
}

func TestIterator_PassThrough(t *testing.T) {
	src := threeEventSource()
	sink := &memSink{}
	it := &Iterator{Source: src, Sink: sink, Collections: []string{AK4CHS}, MaxEvents: -1}

	stats, err := it.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.CopyOnly)
	require.Len(t, sink.events, 3)
	assert.Zero(t, sink.events[0].Collections[AK4CHS][0].CorrectionFactor)
}

func TestIterator_SkipsAbsentCollection(t *testing.T) {
	src := threeEventSource()
	sink := &memSink{}
	it := &Iterator{
		Source:      src,
		Sink:        sink,
		Correctors:  loadedRegistry(t),
		Collections: []string{AK4CHS, AK4Puppi},
		MaxEvents:   -1,
	}

	stats, err := it.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, stats.Collections, AK4CHS)
	assert.NotContains(t, stats.Collections, AK4Puppi)
}

func TestIterator_Progress(t *testing.T) {
	src := &memSource{collections: []string{AK4CHS}}
	for i := 0; i < 5; i++ {
		src.events = append(src.events, &Event{Collections: map[string][]Jet{AK4CHS: nil}})
	}
	var out bytes.Buffer
	it := &Iterator{
		Source:         src,
		Sink:           &memSink{},
		Collections:    []string{AK4CHS},
		MaxEvents:      -1,
		ReportInterval: 2,
		Progress:       &out,
	}

	_, err := it.Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Processing event 1 of 5",
		"Processing event 3 of 5",
		"Processing event 5 of 5",
	}, lines)
}

type failingSink struct{}

func (failingSink) Write(*Event) error { return errors.New("disk full") }

func TestIterator_SinkError(t *testing.T) {
	it := &Iterator{Source: threeEventSource(), Sink: failingSink{}, MaxEvents: -1}
	_, err := it.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestIterator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &memSink{}
	it := &Iterator{Source: threeEventSource(), Sink: sink, MaxEvents: -1}

	_, err := it.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.events)
}
