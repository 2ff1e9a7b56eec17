package esio

import (
	"github.com/robert-malhotra/go-esio/internal/container"
)

// FieldWrite collectively writes this rank's local sub-block of the named
// 3-D scalar field. Directions are ordered slowest (c) to fastest (a). On
// the field's first write the handle's active layout fixes its on-disk
// arrangement; later writes must match the stored extents exactly.
func FieldWrite[T Scalar](h *Handle, name string, data []T, c, b, a Dim) error {
	return fieldWriteInternal(h, name, asBytes(data), container.Scalar(kindOf[T]()), c, b, a)
}

// FieldRead collectively reads this rank's local sub-block of the named
// 3-D scalar field. The caller's extents must equal the stored extents;
// the stored layout tag, not the handle's active tag, governs the
// transfer.
func FieldRead[T Scalar](h *Handle, name string, data []T, c, b, a Dim) error {
	return fieldReadInternal(h, name, asBytes(data), container.Scalar(kindOf[T]()), c, b, a)
}

// FieldWriteV writes a vector-valued field of ncomponents scalars per
// point. Strides remain measured in scalars and must be multiples of
// ncomponents.
func FieldWriteV[T Scalar](h *Handle, name string, data []T, c, b, a Dim, ncomponents int) error {
	if ncomponents < 1 {
		return raise(EINVAL, "ncomponents < 1")
	}
	return fieldWriteInternal(h, name, asBytes(data), container.Vector(kindOf[T](), ncomponents), c, b, a)
}

// FieldReadV reads a vector-valued field of ncomponents scalars per point.
func FieldReadV[T Scalar](h *Handle, name string, data []T, c, b, a Dim, ncomponents int) error {
	if ncomponents < 1 {
		return raise(EINVAL, "ncomponents < 1")
	}
	return fieldReadInternal(h, name, asBytes(data), container.Vector(kindOf[T](), ncomponents), c, b, a)
}

// FieldSize returns the global extents of the named field.
func (h *Handle) FieldSize(name string) (c, b, a int, err error) {
	c, b, a, _, err = h.FieldSizeV(name)
	return c, b, a, err
}

// FieldSizeV returns the global extents and component count of the named
// field.
func (h *Handle) FieldSizeV(name string) (c, b, a, ncomponents int, err error) {
	if !h.valid() {
		return 0, 0, 0, 0, raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return 0, 0, 0, 0, raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return 0, 0, 0, 0, raise(EINVAL, "name is empty")
	}
	md, err := readFieldMetadata(h.file, name)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if md == nil {
		return 0, 0, 0, 0, raisef(EFAILED, "unable to open metadata for field %q", name)
	}
	return md.c, md.b, md.a, md.ncomponents, nil
}

// validateDims applies the engine's argument contract: non-negative
// globals and starts, positive locals. Violations raise EINVAL before any
// I/O starts.
func validateDims(c, b, a Dim) error {
	switch {
	case c.Global < 0:
		return raise(EINVAL, "cglobal < 0")
	case c.Start < 0:
		return raise(EINVAL, "cstart < 0")
	case c.Local < 1:
		return raise(EINVAL, "clocal < 1")
	case c.Stride < 0:
		return raise(EINVAL, "cstride < 0")
	case b.Global < 0:
		return raise(EINVAL, "bglobal < 0")
	case b.Start < 0:
		return raise(EINVAL, "bstart < 0")
	case b.Local < 1:
		return raise(EINVAL, "blocal < 1")
	case b.Stride < 0:
		return raise(EINVAL, "bstride < 0")
	case a.Global < 0:
		return raise(EINVAL, "aglobal < 0")
	case a.Start < 0:
		return raise(EINVAL, "astart < 0")
	case a.Local < 1:
		return raise(EINVAL, "alocal < 1")
	case a.Stride < 0:
		return raise(EINVAL, "astride < 0")
	}
	return nil
}

// resolveExtents converts caller dims (scalar-unit strides, zero meaning
// contiguous) into whole-element extents for the layout kernels. Defaults
// resolve fastest direction first: astride = ncomponents, bstride =
// alocal*astride, cstride = blocal*bstride. Explicit strides must be
// multiples of ncomponents.
func resolveExtents(c, b, a Dim, ncomponents int) (ce, be, ae extent, err error) {
	if a.Stride == 0 {
		a.Stride = ncomponents
	}
	if b.Stride == 0 {
		b.Stride = a.Local * a.Stride
	}
	if c.Stride == 0 {
		c.Stride = b.Local * b.Stride
	}
	for _, d := range [...]struct {
		stride int
		what   string
	}{
		{a.Stride, "astride"},
		{b.Stride, "bstride"},
		{c.Stride, "cstride"},
	} {
		if d.stride%ncomponents != 0 {
			return ce, be, ae, raisef(EINVAL, "%s must be a multiple of ncomponents", d.what)
		}
	}
	ce = extent{c.Global, c.Start, c.Local, c.Stride / ncomponents}
	be = extent{b.Global, b.Start, b.Local, b.Stride / ncomponents}
	ae = extent{a.Global, a.Start, a.Local, a.Stride / ncomponents}
	return ce, be, ae, nil
}

func fieldWriteInternal(h *Handle, name string, buf []byte, typ container.ElemType, c, b, a Dim) error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return raise(EINVAL, "name is empty")
	}
	if buf == nil {
		return raise(EINVAL, "field == nil")
	}
	if err := validateDims(c, b, a); err != nil {
		return err
	}
	ce, be, ae, err := resolveExtents(c, b, a, typ.Components())
	if err != nil {
		return err
	}
	if need := subBlockSpan(ce, be, ae) * typ.Size(); len(buf) < need {
		return raisef(EINVAL, "buffer holds %d bytes but local sub-block spans %d", len(buf), need)
	}

	md, err := readFieldMetadata(h.file, name)
	if err != nil {
		return err
	}

	if md == nil {
		// Field does not exist: create it with the handle's active layout.
		dset, err := h.createField(name, typ, c.Global, b.Global, a.Global)
		if err != nil {
			return err
		}
		if err := layoutRegistry[h.layout].write(dset, buf, typ, ce, be, ae); err != nil {
			dset.Close()
			return err
		}
		metricWriteBytes.Add(float64(localBytes(ce, be, ae, typ)))
		metricWrites.Inc()
		return dset.Close()
	}

	// Field exists: the stored tuple, not the caller, decides shape.
	if c.Global != md.c {
		return raise(EINVAL, "request cglobal mismatch with existing field")
	}
	if b.Global != md.b {
		return raise(EINVAL, "request bglobal mismatch with existing field")
	}
	if a.Global != md.a {
		return raise(EINVAL, "request aglobal mismatch with existing field")
	}
	if typ.Components() != md.ncomponents {
		return raise(EINVAL, "request ncomponents mismatch with existing field")
	}

	dset, err := h.file.OpenDataset(name)
	if err != nil {
		return raiseCause(EFAILED, err, "unable to open dataset")
	}
	if !container.CanConvert(typ, dset.Type()) {
		dset.Close()
		return raise(EINVAL, "request type not convertible to existing field type")
	}

	// Overwrite through the stored layout, whatever the handle's active
	// tag is now.
	if err := layoutRegistry[md.layoutTag].write(dset, buf, typ, ce, be, ae); err != nil {
		dset.Close()
		return err
	}
	metricWriteBytes.Add(float64(localBytes(ce, be, ae, typ)))
	metricWrites.Inc()
	return dset.Close()
}

func fieldReadInternal(h *Handle, name string, buf []byte, typ container.ElemType, c, b, a Dim) error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return raise(EINVAL, "name is empty")
	}
	if buf == nil {
		return raise(EINVAL, "field == nil")
	}
	if err := validateDims(c, b, a); err != nil {
		return err
	}
	ce, be, ae, err := resolveExtents(c, b, a, typ.Components())
	if err != nil {
		return err
	}
	if need := subBlockSpan(ce, be, ae) * typ.Size(); len(buf) < need {
		return raisef(EINVAL, "buffer holds %d bytes but local sub-block spans %d", len(buf), need)
	}

	md, err := readFieldMetadata(h.file, name)
	if err != nil {
		return err
	}
	if md == nil {
		return raisef(EFAILED, "unable to read metadata for field %q", name)
	}

	if c.Global != md.c {
		return raise(EINVAL, "field read request has incorrect cglobal")
	}
	if b.Global != md.b {
		return raise(EINVAL, "field read request has incorrect bglobal")
	}
	if a.Global != md.a {
		return raise(EINVAL, "field read request has incorrect aglobal")
	}
	if typ.Components() != md.ncomponents {
		return raise(EINVAL, "request ncomponents mismatch with existing field")
	}

	dset, err := h.file.OpenDataset(name)
	if err != nil {
		return raiseCause(EFAILED, err, "unable to open dataset")
	}
	if !container.CanConvert(typ, dset.Type()) {
		dset.Close()
		return raise(EINVAL, "request type not convertible to existing field type")
	}

	// Read through the metadata's layout tag: any layout this library
	// understands is readable regardless of the handle's active tag.
	if err := layoutRegistry[md.layoutTag].read(dset, buf, typ, ce, be, ae); err != nil {
		dset.Close()
		return err
	}
	metricReadBytes.Add(float64(localBytes(ce, be, ae, typ)))
	metricReads.Inc()
	return dset.Close()
}

// createField materializes a new dataset through the handle's active
// layout descriptor and stamps its metadata.
func (h *Handle) createField(name string, typ container.ElemType, cglobal, bglobal, aglobal int) (*container.Dataset, error) {
	if layoutRegistry[h.layout].tag != h.layout {
		return nil, raise(ESANITY, "layout registry inconsistent with its tags")
	}
	filespace := layoutRegistry[h.layout].makeFilespace(cglobal, bglobal, aglobal)
	dset, err := h.file.CreateDataset(name, typ, filespace)
	if err != nil {
		return nil, raiseCause(EFAILED, err, "unable to create dataset")
	}
	if err := writeFieldMetadata(h.file, name, h.layout, cglobal, bglobal, aglobal, typ.Components()); err != nil {
		dset.Close()
		return nil, raiseCause(EFAILED, err, "unable to save field metadata")
	}
	return dset, nil
}

// localBytes reports the bytes this rank moves in one transfer.
func localBytes(c, b, a extent, typ container.ElemType) int {
	return c.local * b.local * a.local * typ.Size()
}

// subBlockSpan is the element count the caller's buffer must reach: one
// past the last element the strided sub-block selects.
func subBlockSpan(c, b, a extent) int {
	return (c.local-1)*c.stride + (b.local-1)*b.stride + (a.local-1)*a.stride + 1
}
