package correction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FallbackPolicy decides which calibration the wide Puppi collections use.
type FallbackPolicy string

const (
	// FallbackAlways corrects AK8/CA8 Puppi jets with the AK4 Puppi calibration.
	FallbackAlways FallbackPolicy = "always"
	// FallbackMissing uses the AK8 Puppi calibration when its files exist.
	FallbackMissing FallbackPolicy = "missing"
	// FallbackNever requires the AK8 Puppi calibration.
	FallbackNever FallbackPolicy = "never"
)

// ParseFallbackPolicy accepts the policy names case-insensitively.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FallbackAlways, FallbackMissing, FallbackNever:
		return p, nil
	case "":
		return FallbackAlways, nil
	}
	return "", fmt.Errorf("unknown puppi fallback policy %q", s)
}

// CorrectorSet resolves the corrector of a collection.
type CorrectorSet interface {
	For(collection string) (*Corrector, bool)
}

// Registry owns the correctors of one run. Correctors are built by Load
// before the event loop and released by Close.
type Registry struct {
	loader      *Loader
	policy      FallbackPolicy
	logger      *slog.Logger
	concurrency int

	mu           sync.RWMutex
	byLabel      map[string]*Corrector
	byCollection map[string]*Corrector
	fellBack     map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry(loader *Loader, policy FallbackPolicy, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = FallbackAlways
	}
	return &Registry{
		loader:       loader,
		policy:       policy,
		logger:       logger,
		concurrency:  4,
		byLabel:      make(map[string]*Corrector),
		byCollection: make(map[string]*Corrector),
		fellBack:     make(map[string]bool),
	}
}

// SetConcurrency bounds the number of labels loaded at once.
func (r *Registry) SetConcurrency(n int) {
	if n > 0 {
		r.concurrency = n
	}
}

// LabelFor returns the calibration label used for collection under the
// registry's fallback policy.
func (r *Registry) LabelFor(collection string, sel Selection) (string, error) {
	info, ok := knownCollections[collection]
	if !ok {
		return "", fmt.Errorf("unknown jet collection %q", collection)
	}
	if !info.wide {
		return info.label, nil
	}
	switch r.policy {
	case FallbackNever:
		return info.label, nil
	case FallbackMissing:
		if r.hasFiles(sel, info.label) {
			return info.label, nil
		}
		r.warnFallback(info.label)
		return LabelAK4Puppi, nil
	default:
		return LabelAK4Puppi, nil
	}
}

// warnFallback logs the fallback once per missing label; AK8 and CA8 Puppi
// share a label.
func (r *Registry) warnFallback(label string) {
	r.mu.Lock()
	seen := r.fellBack[label]
	r.fellBack[label] = true
	r.mu.Unlock()
	if seen {
		return
	}
	r.logger.Warn("dedicated calibration not found, falling back",
		slog.String("label", label),
		slog.String("fallback", LabelAK4Puppi))
}

func (r *Registry) hasFiles(sel Selection, label string) bool {
	var paths []string
	if sel.JECVersion != "" {
		paths = append(paths, NewJECFileSet(r.loader.BaseDir, sel.JECVersion, label).Paths()...)
	}
	if sel.JERVersion != "" {
		paths = append(paths, NewJERFileSet(r.loader.BaseDir, sel.JERVersion, label).Paths()...)
	}
	return len(missing(paths)) == 0
}

// Load builds one corrector per distinct label needed by sel.Collections.
// Labels load concurrently; every failure is reported in the joined error.
// Cancellation of ctx aborts the remaining loads.
func (r *Registry) Load(ctx context.Context, sel Selection) error {
	if !sel.Active() {
		return nil
	}

	labelOf := make(map[string]string, len(sel.Collections))
	labelSet := make(map[string]struct{})
	for _, name := range sel.Collections {
		label, err := r.LabelFor(name, sel)
		if err != nil {
			return err
		}
		labelOf[name] = label
		labelSet[label] = struct{}{}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var (
		mu     sync.Mutex
		errs   = make([]error, len(labels))
		loaded = make(map[string]*Corrector, len(labels))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, label := range labels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := r.loader.LoadCorrector(sel.JECVersion, sel.JERVersion, label)
			if err != nil {
				errs[i] = err
				return nil
			}
			mu.Lock()
			loaded[label] = c
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load calibrations: %w", err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for label, c := range loaded {
		r.byLabel[label] = c
	}
	for name, label := range labelOf {
		r.byCollection[name] = loaded[label]
	}
	return nil
}

// For returns the corrector assigned to collection.
func (r *Registry) For(collection string) (*Corrector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byCollection[collection]
	return c, ok
}

// Labels lists the loaded calibration labels.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byLabel))
	for l := range r.byLabel {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Close releases every corrector. The registry can be loaded again afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLabel = make(map[string]*Corrector)
	r.byCollection = make(map[string]*Corrector)
	return nil
}
