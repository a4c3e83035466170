package jme

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxVariables is the number of formula variables (x, y, z, t).
const MaxVariables = 4

// Formula is a compiled TFormula expression. It is safe for concurrent use.
type Formula struct {
	expr   string
	eval   func(x *[MaxVariables]float64, p []float64) float64
	nParam int
}

var paramRe = regexp.MustCompile(`\[(\d+)\]`)

var unary = map[string]func(float64) float64{
	"log":   math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"fabs":  math.Abs,
	"cos":   math.Cos,
	"sin":   math.Sin,
	"tanh":  math.Tanh,
	"atan":  math.Atan,
	"erf":   math.Erf,
}

var binary = map[string]func(float64, float64) float64{
	"pow":   math.Pow,
	"power": math.Pow,
	"max":   math.Max,
	"min":   math.Min,
}

// CompileFormula parses a TFormula expression such as
// "max(0.0001,pow(x,[0]))". Parameters are written [i], variables x y z t,
// and TMath:: prefixes are accepted.
func CompileFormula(expr string) (*Formula, error) {
	src := strings.ReplaceAll(strings.TrimSpace(expr), "TMath::", "")
	if src == "" {
		return nil, fmt.Errorf("empty formula")
	}
	if strings.Contains(src, "^") {
		return nil, fmt.Errorf("formula %q: operator ^ is not supported, use pow", expr)
	}
	src = paramRe.ReplaceAllString(src, "p_$1")

	node, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", expr, err)
	}
	f := &Formula{expr: expr}
	f.eval, err = f.compile(node)
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", expr, err)
	}
	return f, nil
}

// NumParams is one past the highest parameter index referenced.
func (f *Formula) NumParams() int { return f.nParam }

func (f *Formula) String() string { return f.expr }

// Eval evaluates the formula. Missing parameters read as zero.
func (f *Formula) Eval(x [MaxVariables]float64, p []float64) float64 {
	return f.eval(&x, p)
}

type evalFunc = func(x *[MaxVariables]float64, p []float64) float64

func (f *Formula) compile(n ast.Expr) (evalFunc, error) {
	switch n := n.(type) {
	case *ast.ParenExpr:
		return f.compile(n.X)

	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return nil, fmt.Errorf("unexpected literal %s", n.Value)
		}
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, err
		}
		return func(*[MaxVariables]float64, []float64) float64 { return v }, nil

	case *ast.Ident:
		return f.ident(n.Name)

	case *ast.UnaryExpr:
		x, err := f.compile(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.SUB:
			return func(v *[MaxVariables]float64, p []float64) float64 { return -x(v, p) }, nil
		case token.ADD:
			return x, nil
		}
		return nil, fmt.Errorf("unsupported unary operator %s", n.Op)

	case *ast.BinaryExpr:
		l, err := f.compile(n.X)
		if err != nil {
			return nil, err
		}
		r, err := f.compile(n.Y)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return func(v *[MaxVariables]float64, p []float64) float64 { return l(v, p) + r(v, p) }, nil
		case token.SUB:
			return func(v *[MaxVariables]float64, p []float64) float64 { return l(v, p) - r(v, p) }, nil
		case token.MUL:
			return func(v *[MaxVariables]float64, p []float64) float64 { return l(v, p) * r(v, p) }, nil
		case token.QUO:
			return func(v *[MaxVariables]float64, p []float64) float64 { return l(v, p) / r(v, p) }, nil
		}
		return nil, fmt.Errorf("unsupported operator %s", n.Op)

	case *ast.CallExpr:
		return f.call(n)
	}
	return nil, fmt.Errorf("unsupported expression %T", n)
}

func (f *Formula) ident(name string) (evalFunc, error) {
	switch name {
	case "x", "y", "z", "t":
		i := strings.Index("xyzt", name)
		return func(v *[MaxVariables]float64, _ []float64) float64 { return v[i] }, nil
	case "pi":
		return func(*[MaxVariables]float64, []float64) float64 { return math.Pi }, nil
	}
	if idx, ok := strings.CutPrefix(name, "p_"); ok {
		i, err := strconv.Atoi(idx)
		if err != nil {
			return nil, fmt.Errorf("bad parameter %q", name)
		}
		if i+1 > f.nParam {
			f.nParam = i + 1
		}
		return func(_ *[MaxVariables]float64, p []float64) float64 {
			if i < len(p) {
				return p[i]
			}
			return 0
		}, nil
	}
	return nil, fmt.Errorf("unknown identifier %q", name)
}

func (f *Formula) call(n *ast.CallExpr) (evalFunc, error) {
	id, ok := n.Fun.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("unsupported call target")
	}
	name := strings.ToLower(id.Name)
	args := make([]evalFunc, len(n.Args))
	for i, a := range n.Args {
		fn, err := f.compile(a)
		if err != nil {
			return nil, err
		}
		args[i] = fn
	}

	if fn, ok := unary[name]; ok {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes 1 argument, got %d", id.Name, len(args))
		}
		a := args[0]
		return func(v *[MaxVariables]float64, p []float64) float64 { return fn(a(v, p)) }, nil
	}
	if fn, ok := binary[name]; ok {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s takes 2 arguments, got %d", id.Name, len(args))
		}
		a, b := args[0], args[1]
		return func(v *[MaxVariables]float64, p []float64) float64 { return fn(a(v, p), b(v, p)) }, nil
	}
	return nil, fmt.Errorf("unknown function %q", id.Name)
}
