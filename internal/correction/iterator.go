package correction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/time/rate"
)

// Source yields the events of an input dataset in entry order.
type Source interface {
	Entries() int64
	// Collections lists the jet collections present in the dataset.
	Collections() []string
	// Scan calls fn for the first limit events. The event passed to fn is
	// only valid until fn returns.
	Scan(ctx context.Context, limit int64, fn func(*Event) error) error
}

// Sink receives every event the iterator forwards.
type Sink interface {
	Write(evt *Event) error
}

// Observer is notified of loop progress.
type Observer interface {
	EventProcessed()
	JetsCorrected(collection string, n int)
}

// CollectionStats summarises the jets of one collection.
type CollectionStats struct {
	Jets           int64
	Corrected      int64
	SumFactor      float64
	SumUncertainty float64
	SumJERScale    float64
}

// MeanFactor is the mean correction factor of the corrected jets.
func (s CollectionStats) MeanFactor() float64 { return mean(s.SumFactor, s.Corrected) }

// MeanUncertainty is the mean uncertainty of the corrected jets.
func (s CollectionStats) MeanUncertainty() float64 { return mean(s.SumUncertainty, s.Corrected) }

// MeanJERScale is the mean nominal resolution scale factor.
func (s CollectionStats) MeanJERScale() float64 { return mean(s.SumJERScale, s.Corrected) }

func mean(sum float64, n int64) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RunStats is the outcome of Iterator.Run.
type RunStats struct {
	Total       int64
	Events      int64
	CopyOnly    bool
	Collections map[string]*CollectionStats
}

// Iterator drives the correction engine over a dataset.
type Iterator struct {
	Source      Source
	Sink        Sink
	Correctors  CorrectorSet
	Collections []string
	// MaxEvents: negative reads every event, 0 copies every event untouched.
	MaxEvents      int
	ReportInterval int
	Progress       io.Writer
	Observer       Observer
	Logger         *slog.Logger
}

// Run processes the events and forwards each one to the sink.
func (it *Iterator) Run(ctx context.Context) (RunStats, error) {
	logger := it.Logger
	if logger == nil {
		logger = slog.Default()
	}

	total := it.Source.Entries()
	stats := RunStats{Total: total, Collections: make(map[string]*CollectionStats)}
	limit := total
	switch {
	case it.MaxEvents == 0:
		stats.CopyOnly = true
	case it.MaxEvents > 0 && int64(it.MaxEvents) < total:
		limit = int64(it.MaxEvents)
	}

	active := it.activeCollections(logger)
	if it.Correctors == nil || len(active) == 0 {
		stats.CopyOnly = true
	}
	for _, name := range active {
		stats.Collections[name] = &CollectionStats{}
	}

	var progress *rate.Sometimes
	if it.ReportInterval > 0 {
		progress = &rate.Sometimes{Every: it.ReportInterval}
	}

	err := it.Source.Scan(ctx, limit, func(evt *Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if progress != nil {
			progress.Do(func() {
				if it.Progress != nil {
					fmt.Fprintf(it.Progress, "Processing event %d of %d\n", evt.Entry+1, limit)
				}
				logger.Debug("progress", slog.Int64("event", evt.Entry+1), slog.Int64("of", limit))
			})
		}
		if !stats.CopyOnly {
			it.correctEvent(evt, active, stats.Collections)
		}
		if err := it.Sink.Write(evt); err != nil {
			return fmt.Errorf("write event %d: %w", evt.Entry, err)
		}
		stats.Events++
		if it.Observer != nil {
			it.Observer.EventProcessed()
		}
		return nil
	})
	return stats, err
}

func (it *Iterator) correctEvent(evt *Event, active []string, stats map[string]*CollectionStats) {
	for _, name := range active {
		st := stats[name]
		jets := evt.Collections[name]
		st.Jets += int64(len(jets))
		c, ok := it.Correctors.For(name)
		if !ok || c.Empty() {
			continue
		}
		for i := range jets {
			Correct(&jets[i], evt.Rho, c)
			st.Corrected++
			st.SumFactor += jets[i].CorrectionFactor
			st.SumUncertainty += jets[i].Uncertainty
			st.SumJERScale += jets[i].JERScale
		}
		if it.Observer != nil && len(jets) > 0 {
			it.Observer.JetsCorrected(name, len(jets))
		}
	}
}

// activeCollections intersects the requested collections with those
// present in the source.
func (it *Iterator) activeCollections(logger *slog.Logger) []string {
	present := it.Source.Collections()
	var out []string
	for _, name := range it.Collections {
		if !slices.Contains(present, name) {
			logger.Warn("jet collection not in dataset, skipping", slog.String("collection", name))
			continue
		}
		out = append(out, name)
	}
	return out
}
