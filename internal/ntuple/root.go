package ntuple

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"bpkupdate/internal/correction"
	apperrors "bpkupdate/internal/errors"
)

// ROOTSource reads a chain of ROOT files. Every branch of the tree is bound
// to a buffer; a ROOTSink created from the source writes the same buffers.
type ROOTSource struct {
	schema      Schema
	files       []string
	tree        rtree.Tree
	closeChain  func() error
	wvars       []rtree.WriteVar
	buffers     map[string]any
	columns     []string
	collections []string
	evt         correction.Event
}

// OpenROOT chains the schema's tree across files.
func OpenROOT(schema Schema, files ...string) (*ROOTSource, error) {
	if len(files) == 0 {
		return nil, apperrors.NewDatasetError("no input files", nil)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, apperrors.NewDatasetError("cannot open input", err).WithContext("file", f)
		}
	}
	tree, closeChain, err := openChain(schema.Tree, files)
	if err != nil {
		return nil, err
	}

	wvars := rtree.WriteVarsFromTree(tree)
	buffers := make(map[string]any, len(wvars))
	columns := make([]string, 0, len(wvars))
	for _, v := range wvars {
		buffers[v.Name] = v.Value
		columns = append(columns, v.Name)
	}
	sort.Strings(columns)

	src := &ROOTSource{
		schema:      schema,
		files:       append([]string(nil), files...),
		tree:        tree,
		closeChain:  closeChain,
		wvars:       wvars,
		buffers:     buffers,
		columns:     columns,
		collections: schema.Detect(columns),
		evt:         correction.Event{Collections: make(map[string][]correction.Jet)},
	}
	for _, name := range src.collections {
		if _, err := count(buffers[schema.Column(name, FieldSize)]); err != nil {
			closeChain()
			return nil, apperrors.NewDatasetError("bad jet count column", err).WithContext("collection", name)
		}
	}
	return src, nil
}

// openChain resolves tree, which may sit in a sub-directory, in every file
// and chains the results. The returned func closes every file.
func openChain(tree string, files []string) (rtree.Tree, func() error, error) {
	opened := make([]*riofs.File, 0, len(files))
	closeAll := func() error {
		var errs []error
		for _, f := range opened {
			if err := f.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	trees := make([]rtree.Tree, 0, len(files))
	for _, name := range files {
		f, err := riofs.Open(name)
		if err != nil {
			closeAll()
			return nil, nil, apperrors.NewDatasetError("cannot open input", err).WithContext("file", name)
		}
		opened = append(opened, f)

		obj, err := riofs.Dir(f).Get(tree)
		if err != nil {
			closeAll()
			return nil, nil, apperrors.NewDatasetError("cannot find tree "+tree, err).WithContext("file", name)
		}
		t, ok := obj.(rtree.Tree)
		if !ok {
			closeAll()
			return nil, nil, apperrors.NewDatasetError(fmt.Sprintf("%s is a %T, not a tree", tree, obj), nil).WithContext("file", name)
		}
		trees = append(trees, t)
	}
	return rtree.Chain(trees...), closeAll, nil
}

func (s *ROOTSource) Entries() int64        { return s.tree.Entries() }
func (s *ROOTSource) Columns() []string     { return s.columns }
func (s *ROOTSource) Collections() []string { return s.collections }

// Close releases the input files.
func (s *ROOTSource) Close() error {
	if s.closeChain == nil {
		return nil
	}
	err := s.closeChain()
	s.closeChain = nil
	return err
}

// Scan reads the first limit entries. The event passed to fn is reused.
func (s *ROOTSource) Scan(ctx context.Context, limit int64, fn func(*correction.Event) error) error {
	if n := s.Entries(); limit > n {
		limit = n
	}
	if limit <= 0 {
		return nil
	}
	rvars := make([]rtree.ReadVar, len(s.wvars))
	for i, v := range s.wvars {
		rvars[i] = rtree.ReadVar{Name: v.Name, Value: v.Value}
	}
	r, err := rtree.NewReader(s.tree, rvars, rtree.WithRange(0, limit))
	if err != nil {
		return apperrors.NewDatasetError("cannot read tree "+s.schema.Tree, err)
	}
	defer r.Close()

	return r.Read(func(rc rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.fill(rc.Entry)
		return fn(&s.evt)
	})
}

func (s *ROOTSource) fill(entry int64) {
	s.evt.Entry = entry
	s.evt.Rho = 0
	if rho, ok := s.buffers[s.schema.Rho]; ok {
		s.evt.Rho = floatAt(rho, 0)
	}
	for _, name := range s.collections {
		col := func(field string) any { return s.buffers[s.schema.Column(name, field)] }
		n, _ := count(col(FieldSize))
		jets := s.evt.Collections[name][:0]
		for i := 0; i < n; i++ {
			jet := correction.Jet{Pt: floatAt(col(FieldPt), i)}
			jet.RawPt = jet.Pt
			if v := col(FieldRawPt); v != nil {
				jet.RawPt = floatAt(v, i)
			}
			jet.Eta = s.optional(col(FieldEta), i)
			jet.Phi = s.optional(col(FieldPhi), i)
			jet.Area = s.optional(col(FieldArea), i)
			jet.CorrectionFactor = s.optional(col(FieldFactor), i)
			jet.Uncertainty = s.optional(col(FieldUnc), i)
			jet.JERPt = s.optional(col(FieldJERPt), i)
			jet.JERScale = s.optional(col(FieldJERScale), i)
			jet.JERScaleUp = s.optional(col(FieldJERUp), i)
			jet.JERScaleDown = s.optional(col(FieldJERDown), i)
			jets = append(jets, jet)
		}
		s.evt.Collections[name] = jets
	}
}

func (s *ROOTSource) optional(v any, i int) float64 {
	if v == nil {
		return 0
	}
	return floatAt(v, i)
}

// ROOTSink writes a copy of its source's tree with the correction columns
// filled. It must only receive events produced by that source.
type ROOTSink struct {
	src     *ROOTSource
	path    string
	partial string
	file    *riofs.File
	w       rtree.Writer
	// outputs[collection][field] is the buffer of an output column.
	outputs map[string]map[string]any
	closed  bool
}

// CreateROOT creates <path>.partial holding the schema of src plus any
// missing output columns.
func CreateROOT(src *ROOTSource, outPath string) (*ROOTSink, error) {
	partial := outPath + ".partial"
	f, err := groot.Create(partial)
	if err != nil {
		return nil, apperrors.NewDatasetError("cannot create output", err).WithContext("file", outPath)
	}
	sink := &ROOTSink{
		src:     src,
		path:    outPath,
		partial: partial,
		file:    f,
		outputs: make(map[string]map[string]any),
	}

	wvars := append([]rtree.WriteVar(nil), src.wvars...)
	for _, name := range src.collections {
		fields := make(map[string]any, len(OutputFields))
		for _, field := range OutputFields {
			column := src.schema.Column(name, field)
			if buf, ok := src.buffers[column]; ok {
				fields[field] = buf
				continue
			}
			buf := new([]float32)
			fields[field] = buf
			wvars = append(wvars, rtree.WriteVar{
				Name:  column,
				Value: buf,
				Count: src.schema.Column(name, FieldSize),
			})
		}
		sink.outputs[name] = fields
	}

	var dir riofs.Directory = f
	treeDir, treeName := path.Split(src.schema.Tree)
	if treeDir = strings.Trim(treeDir, "/"); treeDir != "" {
		if dir, err = riofs.Dir(f).Mkdir(treeDir); err != nil {
			sink.discard()
			return nil, apperrors.NewDatasetError("cannot create directory "+treeDir, err)
		}
	}
	sink.w, err = rtree.NewWriter(dir, treeName, wvars)
	if err != nil {
		sink.discard()
		return nil, apperrors.NewDatasetError("cannot create output tree", err).WithContext("file", outPath)
	}
	return sink, nil
}

// Write stores the correction fields of evt and appends the entry.
func (s *ROOTSink) Write(evt *correction.Event) error {
	for name, fields := range s.outputs {
		jets := evt.Collections[name]
		for field, buf := range fields {
			resize(buf, len(jets))
			for i := range jets {
				setFloatAt(buf, i, outputValue(&jets[i], field))
			}
		}
	}
	if _, err := s.w.Write(); err != nil {
		return apperrors.NewDatasetError(fmt.Sprintf("cannot write entry %d", evt.Entry), err)
	}
	return nil
}

func outputValue(j *correction.Jet, field string) float64 {
	switch field {
	case FieldFactor:
		return j.CorrectionFactor
	case FieldUnc:
		return j.Uncertainty
	case FieldJERPt:
		return j.JERPt
	case FieldJERScale:
		return j.JERScale
	case FieldJERUp:
		return j.JERScaleUp
	case FieldJERDown:
		return j.JERScaleDown
	}
	return 0
}

// Commit closes the output and moves it to its final path.
func (s *ROOTSink) Commit() error {
	if s.closed {
		return fmt.Errorf("output %s already closed", s.path)
	}
	s.closed = true
	if err := s.w.Close(); err != nil {
		s.file.Close()
		os.Remove(s.partial)
		return apperrors.NewDatasetError("cannot flush output tree", err).WithContext("file", s.path)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.partial)
		return apperrors.NewDatasetError("cannot close output", err).WithContext("file", s.path)
	}
	if err := os.Rename(s.partial, s.path); err != nil {
		os.Remove(s.partial)
		return apperrors.NewDatasetError("cannot publish output", err).WithContext("file", s.path)
	}
	return nil
}

// Abort closes and removes the partial output.
func (s *ROOTSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.w != nil {
		s.w.Close()
	}
	return s.discard()
}

func (s *ROOTSink) discard() error {
	s.file.Close()
	if err := os.Remove(s.partial); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
