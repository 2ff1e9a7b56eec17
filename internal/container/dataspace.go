package container

import "github.com/pkg/errors"

// SelectOp chooses how a hyperslab combines with a dataspace's current
// selection.
type SelectOp int

const (
	// SelectSet replaces the current selection.
	SelectSet SelectOp = iota
	// SelectOr unions the hyperslab with the current selection. Applied to
	// a dataspace that still carries its implicit whole-extent selection,
	// it begins a fresh explicit selection instead of widening it.
	SelectOr
)

// run is a strided sequence of selected linear element positions.
type run struct {
	start  uint64
	stride uint64
	count  uint64
}

// Dataspace is an n-dimensional extent plus an element selection. A fresh
// dataspace selects its whole extent.
type Dataspace struct {
	dims     []uint64
	sel      []run
	explicit bool
}

// CreateSimple returns a simple dataspace of the given extents.
func CreateSimple(dims ...uint64) *Dataspace {
	d := make([]uint64, len(dims))
	copy(d, dims)
	return &Dataspace{dims: d}
}

// Dims returns a copy of the dataspace extents.
func (s *Dataspace) Dims() []uint64 {
	d := make([]uint64, len(s.dims))
	copy(d, s.dims)
	return d
}

// Rank returns the number of dimensions.
func (s *Dataspace) Rank() int { return len(s.dims) }

// Extent returns the total number of elements in the dataspace.
func (s *Dataspace) Extent() uint64 {
	n := uint64(1)
	for _, dim := range s.dims {
		n *= dim
	}
	return n
}

// SelectHyperslab selects count[d] elements spaced stride[d] apart starting
// at start[d] along each dimension d. A nil stride means unit spacing.
// Selected positions are recorded in row-major scan order, which is also
// the order transfers enumerate them in.
func (s *Dataspace) SelectHyperslab(op SelectOp, start, stride, count []uint64) error {
	rank := len(s.dims)
	if len(start) != rank || len(count) != rank || (stride != nil && len(stride) != rank) {
		return errors.Errorf("container: hyperslab rank mismatch (dataspace rank %d)", rank)
	}
	if stride == nil {
		stride = make([]uint64, rank)
		for d := range stride {
			stride[d] = 1
		}
	}
	for d := 0; d < rank; d++ {
		if count[d] == 0 {
			return errors.Errorf("container: zero hyperslab count along dimension %d", d)
		}
		if stride[d] == 0 {
			return errors.Errorf("container: zero hyperslab stride along dimension %d", d)
		}
		if last := start[d] + (count[d]-1)*stride[d]; last >= s.dims[d] {
			return errors.Errorf("container: hyperslab exceeds extent along dimension %d (%d >= %d)",
				d, last, s.dims[d])
		}
	}

	if op == SelectSet || !s.explicit {
		s.sel = s.sel[:0]
		s.explicit = true
	}

	// Row sizes: number of elements spanned by one step along dimension d.
	rowSize := make([]uint64, rank)
	size := uint64(1)
	for d := rank - 1; d >= 0; d-- {
		rowSize[d] = size
		size *= s.dims[d]
	}

	// Walk every combination of the outer dimensions; the innermost
	// dimension contributes one strided run per combination.
	idx := make([]uint64, rank)
	for {
		base := uint64(0)
		for d := 0; d < rank-1; d++ {
			base += (start[d] + idx[d]*stride[d]) * rowSize[d]
		}
		s.sel = append(s.sel, run{
			start:  base + start[rank-1],
			stride: stride[rank-1],
			count:  count[rank-1],
		})

		d := rank - 2
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < count[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			break
		}
	}
	return nil
}

// SelectNone empties the selection. A rank contributing no data to a
// collective transfer participates with an empty selection.
func (s *Dataspace) SelectNone() {
	s.sel = s.sel[:0]
	s.explicit = true
}

// SelectionBound returns one past the highest selected linear element
// position: the minimum buffer extent (in elements) a transfer touches.
func (s *Dataspace) SelectionBound() uint64 {
	if !s.explicit {
		return s.Extent()
	}
	var bound uint64
	for _, r := range s.sel {
		if last := r.start + (r.count-1)*r.stride + 1; last > bound {
			bound = last
		}
	}
	return bound
}

// SelectionCount returns the number of selected elements.
func (s *Dataspace) SelectionCount() uint64 {
	if !s.explicit {
		return s.Extent()
	}
	var n uint64
	for _, r := range s.sel {
		n += r.count
	}
	return n
}

// runs returns the selection as strided runs in scan order.
func (s *Dataspace) runs() []run {
	if !s.explicit {
		if n := s.Extent(); n > 0 {
			return []run{{start: 0, stride: 1, count: n}}
		}
		return nil
	}
	return s.sel
}
