package esio

import "github.com/robert-malhotra/go-esio/internal/container"

// Lines are 1-D datasets along the A direction, pinned to extent one along
// C and B and routed through the same engine and layout dispatch as
// fields.

// LineWrite collectively writes this rank's local span of the named 1-D
// scalar line.
func LineWrite[T Scalar](h *Handle, name string, data []T, a Dim) error {
	return fieldWriteInternal(h, name, asBytes(data), container.Scalar(kindOf[T]()), degenerate, degenerate, a)
}

// LineRead collectively reads this rank's local span of the named 1-D
// scalar line.
func LineRead[T Scalar](h *Handle, name string, data []T, a Dim) error {
	return fieldReadInternal(h, name, asBytes(data), container.Scalar(kindOf[T]()), degenerate, degenerate, a)
}

// LineWriteV writes a vector-valued line of ncomponents scalars per point.
func LineWriteV[T Scalar](h *Handle, name string, data []T, a Dim, ncomponents int) error {
	if ncomponents < 1 {
		return raise(EINVAL, "ncomponents < 1")
	}
	return fieldWriteInternal(h, name, asBytes(data), container.Vector(kindOf[T](), ncomponents), degenerate, degenerate, a)
}

// LineReadV reads a vector-valued line of ncomponents scalars per point.
func LineReadV[T Scalar](h *Handle, name string, data []T, a Dim, ncomponents int) error {
	if ncomponents < 1 {
		return raise(EINVAL, "ncomponents < 1")
	}
	return fieldReadInternal(h, name, asBytes(data), container.Vector(kindOf[T](), ncomponents), degenerate, degenerate, a)
}

// LineSize returns the global extent of the named line.
func (h *Handle) LineSize(name string) (a int, err error) {
	a, _, err = h.LineSizeV(name)
	return a, err
}

// LineSizeV returns the global extent and component count of the named
// line.
func (h *Handle) LineSizeV(name string) (a, ncomponents int, err error) {
	c, b, a, ncomponents, err := h.FieldSizeV(name)
	if err != nil {
		return 0, 0, err
	}
	if c != 1 || b != 1 {
		return 0, 0, raisef(EINVAL, "%q is not a line", name)
	}
	return a, ncomponents, nil
}
