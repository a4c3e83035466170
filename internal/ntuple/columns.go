package ntuple

import (
	"fmt"
	"reflect"
)

// floatAt reads element i of a numeric column buffer. Scalars ignore i.
// Missing elements read as 0.
func floatAt(v any, i int) float64 {
	switch p := v.(type) {
	case *[]float32:
		if i < len(*p) {
			return float64((*p)[i])
		}
		return 0
	case *[]float64:
		if i < len(*p) {
			return (*p)[i]
		}
		return 0
	case *float32:
		return float64(*p)
	case *float64:
		return *p
	}
	rv := reflect.ValueOf(v).Elem()
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if i >= rv.Len() {
			return 0
		}
		return number(rv.Index(i))
	}
	return number(rv)
}

// setFloatAt writes element i of a column buffer, growing slices as needed.
func setFloatAt(v any, i int, x float64) {
	switch p := v.(type) {
	case *[]float32:
		if i >= len(*p) {
			resize(v, i+1)
		}
		(*p)[i] = float32(x)
		return
	case *[]float64:
		if i >= len(*p) {
			resize(v, i+1)
		}
		(*p)[i] = x
		return
	}
	rv := reflect.ValueOf(v).Elem()
	switch rv.Kind() {
	case reflect.Slice:
		if i >= rv.Len() {
			resize(v, i+1)
			rv = reflect.ValueOf(v).Elem()
		}
		setNumber(rv.Index(i), x)
	case reflect.Array:
		if i < rv.Len() {
			setNumber(rv.Index(i), x)
		}
	}
}

// resize sets the length of a slice buffer to n, keeping existing values.
func resize(v any, n int) {
	switch p := v.(type) {
	case *[]float32:
		if cap(*p) >= n {
			*p = (*p)[:n]
			return
		}
		*p = append(*p, make([]float32, n-len(*p))...)
		return
	case *[]float64:
		if cap(*p) >= n {
			*p = (*p)[:n]
			return
		}
		*p = append(*p, make([]float64, n-len(*p))...)
		return
	}
	rv := reflect.ValueOf(v).Elem()
	if rv.Kind() != reflect.Slice {
		return
	}
	if rv.Cap() >= n {
		rv.SetLen(n)
		return
	}
	grown := reflect.MakeSlice(rv.Type(), n, n)
	reflect.Copy(grown, rv)
	rv.Set(grown)
}

// count reads a jet multiplicity column.
func count(v any) (int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return 0, fmt.Errorf("count column holds %T, not a pointer", v)
	}
	rv = rv.Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	}
	return 0, fmt.Errorf("count column holds %T, not an integer", v)
}

func number(rv reflect.Value) float64 {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	}
	return 0
}

func setNumber(rv reflect.Value, x float64) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(x)
	}
}
