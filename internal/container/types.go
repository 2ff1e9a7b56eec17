// Package container is the collective container driver behind the esio
// package: shared files holding named, typed, n-dimensional datasets with
// attributes, written and read through hyperslab selections.
//
// The on-disk format is the hfile profile (an HDF5 subset). The parallel
// model is replicated metadata: structure-changing calls are collective and
// every rank evolves an identical in-memory image of the file, raw dataset
// bytes are written by each rank with positional I/O into disjoint regions,
// and rank 0 alone materializes structural metadata at flush time. This is
// the same division of labor the MPI-IO HDF5 driver exhibits.
package container

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/go-esio/internal/hfile"
)

// Kind identifies a scalar element kind.
type Kind uint8

const (
	Float64 Kind = iota
	Float32
	Int32
)

// Size returns the scalar's width in bytes.
func (k Kind) Size() int {
	if k == Float64 {
		return 8
	}
	return 4
}

func (k Kind) String() string {
	switch k {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	}
	return "unknown"
}

// ElemType is a dataset element type: a scalar kind plus a component count.
// Count > 1 denotes a one-dimensional array type of Count scalars per
// element (a vector-valued point).
type ElemType struct {
	Kind  Kind
	Count int
}

// Scalar returns the scalar element type of kind k.
func Scalar(k Kind) ElemType { return ElemType{Kind: k, Count: 1} }

// Vector returns the n-component element type of kind k.
func Vector(k Kind, n int) ElemType { return ElemType{Kind: k, Count: n} }

// Size returns the element's total width in bytes.
func (t ElemType) Size() int { return t.Kind.Size() * t.Count }

// Components returns the number of scalars per element.
func (t ElemType) Components() int { return t.Count }

func (t ElemType) String() string {
	if t.Count == 1 {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s[%d]", t.Kind, t.Count)
}

// CanConvert reports whether elements of type from can be stored into (or
// loaded from) elements of type to. Every numeric kind converts to every
// other; component counts must agree exactly.
func CanConvert(from, to ElemType) bool { return from.Count == to.Count }

// datatype builds the on-disk datatype for t.
func (t ElemType) datatype() *hfile.Datatype {
	var base *hfile.Datatype
	switch t.Kind {
	case Float64:
		base = hfile.Float64Type()
	case Float32:
		base = hfile.Float32Type()
	case Int32:
		base = hfile.Int32Type()
	}
	if t.Count == 1 {
		return base
	}
	return hfile.ArrayType(base, t.Count)
}

// typeFromDatatype recovers an ElemType from an on-disk datatype.
func typeFromDatatype(dt *hfile.Datatype) (ElemType, error) {
	count := 1
	if dt.Class == hfile.ClassArray {
		count = int(dt.ArrayLen)
		dt = dt.Base
	}
	switch dt.Class {
	case hfile.ClassFloat:
		if dt.Size == 8 {
			return ElemType{Float64, count}, nil
		}
		if dt.Size == 4 {
			return ElemType{Float32, count}, nil
		}
	case hfile.ClassFixed:
		if dt.Size == 4 {
			return ElemType{Int32, count}, nil
		}
	}
	return ElemType{}, errors.Errorf("container: unsupported stored datatype (class %d, size %d)", dt.Class, dt.Size)
}
