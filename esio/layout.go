package esio

import (
	"github.com/robert-malhotra/go-esio/internal/container"
)

// extent is one direction of a transfer after stride resolution: all
// quantities are in whole elements (an element being the full vector of
// ncomponents scalars).
type extent struct {
	global int
	start  int
	local  int
	stride int
}

// transferOp distinguishes the two directions a layout kernel serves.
type transferOp int

const (
	opWrite transferOp = iota
	opRead
)

// layoutDescriptor is one entry of the closed, process-wide layout
// registry: the filespace geometry for new fields plus the matched reader
// and writer. A field's stored tag, not the handle's active tag, selects
// the descriptor used to read it.
type layoutDescriptor struct {
	tag           int
	makeFilespace func(c, b, a int) *container.Dataspace
	write         func(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent) error
	read          func(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent) error
}

// The registry is read-only after program start.
var layoutRegistry = []layoutDescriptor{
	{
		tag:           0,
		makeFilespace: layout0Filespace,
		write: func(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent) error {
			return layout0Transfer(d, buf, typ, c, b, a, opWrite)
		},
		read: func(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent) error {
			return layout0Transfer(d, buf, typ, c, b, a, opRead)
		},
	},
	{
		tag:           1,
		makeFilespace: layout1Filespace,
		write: func(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent) error {
			return layout1Transfer(d, buf, typ, c, b, a, opWrite)
		},
		read: func(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent) error {
			return layout1Transfer(d, buf, typ, c, b, a, opRead)
		},
	},
}

// LayoutCount returns the number of registered field layouts.
func LayoutCount() int { return len(layoutRegistry) }

// Layout returns the tag used when this handle creates new fields.
func (h *Handle) Layout() int { return h.layout }

// SetLayout selects the tag used when this handle creates new fields.
// Reading always honors the tag stored in a field's metadata.
func (h *Handle) SetLayout(tag int) error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if tag < 0 || tag >= LayoutCount() {
		return raisef(EINVAL, "unknown layout tag %d", tag)
	}
	h.layout = tag
	return nil
}

// selectMemspace describes the caller's buffer as a one-dimensional region
// of c.local*c.stride elements and unions in one strided run per (k, j)
// pair, enumerating the local sub-block in scan order. Shared by every
// layout: the memory side of a transfer is layout-independent.
func selectMemspace(c, b, a extent) (*container.Dataspace, error) {
	memspace := container.CreateSimple(uint64(c.local * c.stride))
	for k := 0; k < c.local; k++ {
		for j := 0; j < b.local; j++ {
			start := []uint64{uint64(k*c.stride + j*b.stride)}
			stride := []uint64{uint64(a.stride)}
			count := []uint64{uint64(a.local)}
			if err := memspace.SelectHyperslab(container.SelectOr, start, stride, count); err != nil {
				return nil, err
			}
		}
	}
	return memspace, nil
}

// layout0Filespace arranges a field as one contiguous 3-D dataset in
// natural (C, B, A) order.
func layout0Filespace(c, b, a int) *container.Dataspace {
	return container.CreateSimple(uint64(c), uint64(b), uint64(a))
}

// layout0Transfer is the baseline kernel: a strided memory selection
// against a single contiguous file hyperslab, moved collectively.
func layout0Transfer(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent, op transferOp) error {
	// Collective mode is mandatory: correctness depends on every rank
	// participating in every transfer.
	props := &container.TransferProps{Mode: container.Collective}

	memspace, err := selectMemspace(c, b, a)
	if err != nil {
		return raiseCause(EFAILED, err, "selecting memory hyperslab failed")
	}

	filespace := d.Space()
	start := []uint64{uint64(c.start), uint64(b.start), uint64(a.start)}
	count := []uint64{uint64(c.local), uint64(b.local), uint64(a.local)}
	if err := filespace.SelectHyperslab(container.SelectSet, start, nil, count); err != nil {
		return raiseCause(EFAILED, err, "selecting file hyperslab failed")
	}

	if op == opWrite {
		err = d.Write(buf, typ, memspace, filespace, props)
	} else {
		err = d.Read(buf, typ, memspace, filespace, props)
	}
	if err != nil {
		return raiseCause(EFAILED, err, "transfer failed")
	}
	return nil
}

// layout1Filespace arranges a field as a 2-D dataset of C*B rows by A
// columns, grouping each (c, b) pencil into one row.
func layout1Filespace(c, b, a int) *container.Dataspace {
	return container.CreateSimple(uint64(c*b), uint64(a))
}

// layout1Transfer pairs the shared memory selection with one 2-D file
// hyperslab per local C index, unioned in ascending order so file
// enumeration matches the memory side's scan order.
func layout1Transfer(d *container.Dataset, buf []byte, typ container.ElemType, c, b, a extent, op transferOp) error {
	props := &container.TransferProps{Mode: container.Collective}

	memspace, err := selectMemspace(c, b, a)
	if err != nil {
		return raiseCause(EFAILED, err, "selecting memory hyperslab failed")
	}

	filespace := d.Space()
	for k := 0; k < c.local; k++ {
		sop := container.SelectOr
		if k == 0 {
			sop = container.SelectSet
		}
		start := []uint64{uint64((c.start+k)*b.global + b.start), uint64(a.start)}
		count := []uint64{uint64(b.local), uint64(a.local)}
		if err := filespace.SelectHyperslab(sop, start, nil, count); err != nil {
			return raiseCause(EFAILED, err, "selecting file hyperslab failed")
		}
	}

	if op == opWrite {
		err = d.Write(buf, typ, memspace, filespace, props)
	} else {
		err = d.Read(buf, typ, memspace, filespace, props)
	}
	if err != nil {
		return raiseCause(EFAILED, err, "transfer failed")
	}
	return nil
}
