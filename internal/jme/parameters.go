package jme

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "bpkupdate/internal/errors"
)

// Definition is the braced header line of a calibration file.
type Definition struct {
	BinVars []string
	ParVars []string
	Formula string
	Level   string
}

// Record is one bin of a calibration file.
type Record struct {
	BinMin []float64
	BinMax []float64
	Values []float64
}

// Parameters is a parsed calibration file.
type Parameters struct {
	Source     string
	Definition Definition
	Records    []Record
}

// LoadParameters parses the calibration file at path.
func LoadParameters(path string) (*Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError("cannot open calibration file", err).WithContext("path", path)
	}
	defer f.Close()

	p, err := ParseParameters(f)
	if err != nil {
		return nil, apperrors.NewParsingError("cannot parse "+path, err).WithContext("path", path)
	}
	p.Source = path
	return p, nil
}

// ParseParameters parses a calibration file. Blank lines and lines starting
// with '#' are ignored.
func ParseParameters(r io.Reader) (*Parameters, error) {
	var (
		p      Parameters
		header bool
		lineNo int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "{") {
			if header {
				return nil, fmt.Errorf("line %d: second definition line", lineNo)
			}
			def, err := parseDefinition(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.Definition = def
			header = true
			continue
		}
		if !header {
			return nil, fmt.Errorf("line %d: record before definition line", lineNo)
		}
		rec, err := parseRecord(line, len(p.Definition.BinVars))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		p.Records = append(p.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !header {
		return nil, fmt.Errorf("missing definition line")
	}
	if len(p.Records) == 0 {
		return nil, fmt.Errorf("no records")
	}
	return &p, nil
}

func parseDefinition(line string) (Definition, error) {
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "{"), "}"))
	tok := strings.Fields(line)

	var def Definition
	pos := 0
	next := func() (string, error) {
		if pos >= len(tok) {
			return "", fmt.Errorf("truncated definition %q", line)
		}
		pos++
		return tok[pos-1], nil
	}
	count := func() (int, error) {
		s, err := next()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad variable count %q", s)
		}
		return n, nil
	}

	nBin, err := count()
	if err != nil {
		return def, err
	}
	for i := 0; i < nBin; i++ {
		v, err := next()
		if err != nil {
			return def, err
		}
		def.BinVars = append(def.BinVars, v)
	}
	nPar, err := count()
	if err != nil {
		return def, err
	}
	for i := 0; i < nPar; i++ {
		v, err := next()
		if err != nil {
			return def, err
		}
		def.ParVars = append(def.ParVars, v)
	}
	formula, err := next()
	if err != nil {
		return def, err
	}
	def.Formula = strings.Trim(formula, `"`)
	if def.Formula == "None" {
		def.Formula = ""
	}
	def.Level = tok[len(tok)-1]
	return def, nil
}

func parseRecord(line string, nBin int) (Record, error) {
	tok := strings.Fields(line)
	if len(tok) < 2*nBin+1 {
		return Record{}, fmt.Errorf("record has %d fields, need at least %d", len(tok), 2*nBin+1)
	}
	vals := make([]float64, len(tok))
	for i, s := range tok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Record{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}

	rec := Record{
		BinMin: make([]float64, nBin),
		BinMax: make([]float64, nBin),
		Values: vals[2*nBin+1:],
	}
	for i := 0; i < nBin; i++ {
		rec.BinMin[i] = vals[2*i]
		rec.BinMax[i] = vals[2*i+1]
	}
	if n := int(vals[2*nBin]); n != len(rec.Values) {
		return Record{}, fmt.Errorf("record declares %d values, has %d", n, len(rec.Values))
	}
	return rec, nil
}

// BinIndex returns the index of the first record whose bin contains every
// value of x, or -1.
func (p *Parameters) BinIndex(x []float64) int {
	for i, rec := range p.Records {
		if rec.contains(x) {
			return i
		}
	}
	return -1
}

func (r Record) contains(x []float64) bool {
	if len(x) != len(r.BinMin) {
		return false
	}
	for i := range x {
		if x[i] < r.BinMin[i] || x[i] >= r.BinMax[i] {
			return false
		}
	}
	return true
}

// parRange returns the range of parameter variable i.
func (r Record) parRange(i int) (float64, float64) {
	return r.Values[2*i], r.Values[2*i+1]
}

// params returns the formula parameters once nPar ranges are skipped.
func (r Record) params(nPar int) []float64 {
	if 2*nPar > len(r.Values) {
		return nil
	}
	return r.Values[2*nPar:]
}
