package esio

import "github.com/robert-malhotra/go-esio/internal/container"

// Planes are 2-D datasets with directions (B, A), realized as degenerate
// projections through the 3-D field engine: the C direction is pinned to
// extent one and the layout dispatch is reused unchanged. Their metadata
// tuple therefore records cglobal == 1.

// degenerate is the pinned direction of a lower-rank transfer.
var degenerate = Dim{Global: 1, Start: 0, Local: 1, Stride: 0}

// PlaneWrite collectively writes this rank's local sub-block of the named
// 2-D scalar plane.
func PlaneWrite[T Scalar](h *Handle, name string, data []T, b, a Dim) error {
	return fieldWriteInternal(h, name, asBytes(data), container.Scalar(kindOf[T]()), degenerate, b, a)
}

// PlaneRead collectively reads this rank's local sub-block of the named
// 2-D scalar plane.
func PlaneRead[T Scalar](h *Handle, name string, data []T, b, a Dim) error {
	return fieldReadInternal(h, name, asBytes(data), container.Scalar(kindOf[T]()), degenerate, b, a)
}

// PlaneWriteV writes a vector-valued plane of ncomponents scalars per
// point.
func PlaneWriteV[T Scalar](h *Handle, name string, data []T, b, a Dim, ncomponents int) error {
	if ncomponents < 1 {
		return raise(EINVAL, "ncomponents < 1")
	}
	return fieldWriteInternal(h, name, asBytes(data), container.Vector(kindOf[T](), ncomponents), degenerate, b, a)
}

// PlaneReadV reads a vector-valued plane of ncomponents scalars per point.
func PlaneReadV[T Scalar](h *Handle, name string, data []T, b, a Dim, ncomponents int) error {
	if ncomponents < 1 {
		return raise(EINVAL, "ncomponents < 1")
	}
	return fieldReadInternal(h, name, asBytes(data), container.Vector(kindOf[T](), ncomponents), degenerate, b, a)
}

// PlaneSize returns the global extents of the named plane.
func (h *Handle) PlaneSize(name string) (b, a int, err error) {
	b, a, _, err = h.PlaneSizeV(name)
	return b, a, err
}

// PlaneSizeV returns the global extents and component count of the named
// plane.
func (h *Handle) PlaneSizeV(name string) (b, a, ncomponents int, err error) {
	c, b, a, ncomponents, err := h.FieldSizeV(name)
	if err != nil {
		return 0, 0, 0, err
	}
	if c != 1 {
		return 0, 0, 0, raisef(EINVAL, "%q is not a plane", name)
	}
	return b, a, ncomponents, nil
}
