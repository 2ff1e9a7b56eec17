package container

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// TransferMode selects how ranks coordinate a transfer.
type TransferMode int

const (
	// Independent transfers involve only the calling rank.
	Independent TransferMode = iota
	// Collective transfers are entered by every rank of the container's
	// communicator, including ranks whose selection is empty.
	Collective
)

// TransferProps parameterize a single read or write.
type TransferProps struct {
	Mode TransferMode
}

// Dataset is an open handle onto one stored dataset.
type Dataset struct {
	c   *Container
	obj *object
}

// CreateDataset collectively creates a dataset of the given element type
// and extents. Space for the data is reserved immediately; structural
// metadata lands at the next flush. Layout decisions are frozen here.
func (c *Container) CreateDataset(name string, typ ElemType, space *Dataspace) (*Dataset, error) {
	if !c.writable {
		return nil, errors.New("container: dataset create on read-only container")
	}
	if name == "" || strings.ContainsRune(name, '/') || strings.ContainsRune(name, 0) {
		return nil, errors.Errorf("container: invalid dataset name %q", name)
	}
	if _, ok := c.objects[name]; ok {
		return nil, errors.Errorf("container: dataset %q already exists", name)
	}

	size := space.Extent() * uint64(typ.Size())
	obj := &object{
		name:     name,
		typ:      typ,
		dims:     space.Dims(),
		dataSize: size,
	}
	obj.dataAddr = c.alloc.take(size)
	c.objects[name] = obj
	c.order = append(c.order, name)
	c.dirty = true
	return &Dataset{c: c, obj: obj}, nil
}

// OpenDataset opens an existing dataset by name.
func (c *Container) OpenDataset(name string) (*Dataset, error) {
	obj, ok := c.objects[name]
	if !ok {
		err := errors.WithMessagef(ErrNotFound, "dataset %q", name)
		report("opening dataset "+name, err)
		return nil, err
	}
	return &Dataset{c: c, obj: obj}, nil
}

// Name returns the dataset's name.
func (d *Dataset) Name() string { return d.obj.name }

// Type returns the stored element type.
func (d *Dataset) Type() ElemType { return d.obj.typ }

// Space returns a fresh dataspace over the dataset's extents.
func (d *Dataset) Space() *Dataspace { return CreateSimple(d.obj.dims...) }

// Size returns the dataset's raw storage size in bytes.
func (d *Dataset) Size() uint64 { return d.obj.dataSize }

// Close releases the handle. The underlying object stays addressable
// through the container.
func (d *Dataset) Close() error {
	d.obj = nil
	d.c = nil
	return nil
}

// Write transfers selected elements from buf into the dataset. buf holds
// elements of memType in native order and must reach at least
// memspace.SelectionBound() of them; the memspace
// selection and the filespace selection pair up element-for-element in
// scan order.
func (d *Dataset) Write(buf []byte, memType ElemType, memspace, filespace *Dataspace, props *TransferProps) error {
	return d.transfer(buf, memType, memspace, filespace, props, true)
}

// Read transfers selected elements from the dataset into buf.
func (d *Dataset) Read(buf []byte, memType ElemType, memspace, filespace *Dataspace, props *TransferProps) error {
	return d.transfer(buf, memType, memspace, filespace, props, false)
}

func (d *Dataset) transfer(buf []byte, memType ElemType, memspace, filespace *Dataspace,
	props *TransferProps, writing bool) error {

	collective := props != nil && props.Mode == Collective
	err := d.transferLocal(buf, memType, memspace, filespace, writing)

	// Collective transfers synchronize on exit so no rank races ahead of
	// another rank's data; a rank with an empty selection still arrives.
	if collective {
		if berr := d.c.comm.Barrier(); berr != nil && err == nil {
			err = berr
		}
	}
	return err
}

func (d *Dataset) transferLocal(buf []byte, memType ElemType, memspace, filespace *Dataspace, writing bool) error {
	if d.obj == nil {
		return errors.New("container: transfer on closed dataset")
	}
	if writing && !d.c.writable {
		return errors.New("container: write to read-only container")
	}
	if !CanConvert(memType, d.obj.typ) {
		return errors.Errorf("container: no conversion from %s to %s", memType, d.obj.typ)
	}
	nsel := memspace.SelectionCount()
	if fsel := filespace.SelectionCount(); fsel != nsel {
		return errors.Errorf("container: selection size mismatch (memory %d, file %d)", nsel, fsel)
	}
	// The buffer must reach the last selected element; the declared
	// memory extent may overshoot a strided tail the transfer never
	// touches.
	if need := memspace.SelectionBound() * uint64(memType.Size()); uint64(len(buf)) < need {
		return errors.Errorf("container: buffer holds %d bytes, memory selection reaches %d", len(buf), need)
	}
	if nsel == 0 {
		return nil
	}

	stored := d.obj.typ
	memSize := uint64(memType.Size())
	fileSize := uint64(stored.Size())
	sameKind := memType.Kind == stored.Kind

	// Scratch staging for strided or converting segments, sized to the
	// longest file-side run.
	var scratch []byte

	mc := newRunCursor(memspace.runs())
	fc := newRunCursor(filespace.runs())
	for !fc.done() {
		// Pair the next stretch of selected elements: file-side stretches
		// are capped at contiguity, memory-side at the current run.
		n := fc.contiguous()
		if m := mc.remaining(); m < n {
			n = m
		}

		fileOff := int64(d.obj.dataAddr + fc.pos()*fileSize)
		memOff := mc.pos()
		memStride := mc.strideOf()

		if writing {
			if sameKind && memStride == 1 {
				start := memOff * memSize
				if _, err := d.c.file.WriteAt(buf[start:start+n*memSize], fileOff); err != nil {
					return errors.Wrap(err, "container: dataset write")
				}
			} else {
				scratch = grow(scratch, int(n*fileSize))
				for i := uint64(0); i < n; i++ {
					src := (memOff + i*memStride) * memSize
					convertScalars(scratch[i*fileSize:], stored.Kind,
						buf[src:src+memSize], memType.Kind, memType.Count)
				}
				if _, err := d.c.file.WriteAt(scratch[:n*fileSize], fileOff); err != nil {
					return errors.Wrap(err, "container: dataset write")
				}
			}
		} else {
			scratch = grow(scratch, int(n*fileSize))
			if got, err := d.c.file.ReadAt(scratch[:n*fileSize], fileOff); err != nil {
				if err != io.EOF {
					return errors.Wrap(err, "container: dataset read")
				}
				// Reserved storage no rank has written yet lies past the
				// end of the file and reads as zeros.
				clear(scratch[got : n*fileSize])
			}
			if sameKind && memStride == 1 {
				copy(buf[memOff*memSize:], scratch[:n*fileSize])
			} else {
				for i := uint64(0); i < n; i++ {
					dst := (memOff + i*memStride) * memSize
					convertScalars(buf[dst:], memType.Kind,
						scratch[i*fileSize:i*fileSize+fileSize], stored.Kind, stored.Count)
				}
			}
		}

		fc.advance(n)
		mc.advance(n)
	}
	return nil
}

func grow(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

// runCursor walks a selection's runs element by element.
type runCursor struct {
	runs []run
	ri   int
	ei   uint64 // elements consumed within runs[ri]
}

func newRunCursor(rs []run) *runCursor { return &runCursor{runs: rs} }

func (c *runCursor) done() bool { return c.ri >= len(c.runs) }

// pos returns the linear element position of the cursor.
func (c *runCursor) pos() uint64 {
	r := c.runs[c.ri]
	return r.start + c.ei*r.stride
}

// strideOf returns the element stride of the current run.
func (c *runCursor) strideOf() uint64 { return c.runs[c.ri].stride }

// remaining returns the elements left in the current run.
func (c *runCursor) remaining() uint64 { return c.runs[c.ri].count - c.ei }

// contiguous returns the longest stretch from the cursor whose positions
// are consecutive: the rest of a unit-stride run, or a single element.
func (c *runCursor) contiguous() uint64 {
	if c.runs[c.ri].stride == 1 {
		return c.remaining()
	}
	return 1
}

// advance consumes n elements, which must not cross a run boundary.
func (c *runCursor) advance(n uint64) {
	c.ei += n
	if c.ei >= c.runs[c.ri].count {
		c.ri++
		c.ei = 0
	}
}
