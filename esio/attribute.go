package esio

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/go-esio/internal/container"
)

// Attributes are small values attached to the container root: scalar or
// vector numerics and strings. Like every other operation touching the
// shared container they are collective; each rank records the identical
// value.

// AttributeWrite stores a scalar numeric attribute.
func AttributeWrite[T Scalar](h *Handle, name string, value T) error {
	return AttributeWriteV(h, name, []T{value})
}

// AttributeRead loads a scalar numeric attribute, converting from the
// stored kind as needed.
func AttributeRead[T Scalar](h *Handle, name string) (T, error) {
	var zero T
	vals, err := AttributeReadV[T](h, name, 1)
	if err != nil {
		return zero, err
	}
	return vals[0], nil
}

// AttributeWriteV stores a vector numeric attribute of len(values)
// components.
func AttributeWriteV[T Scalar](h *Handle, name string, values []T) error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return raise(EINVAL, "name is empty")
	}
	if len(values) < 1 {
		return raise(EINVAL, "ncomponents < 1")
	}
	if err := h.file.SetAttr("", name, kindOf[T](), len(values), asBytes(values)); err != nil {
		return raiseCause(EFAILED, err, "unable to write attribute")
	}
	return nil
}

// AttributeReadV loads a vector numeric attribute. ncomponents must equal
// the stored component count.
func AttributeReadV[T Scalar](h *Handle, name string, ncomponents int) ([]T, error) {
	if !h.valid() {
		return nil, raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return nil, raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return nil, raise(EINVAL, "name is empty")
	}
	if ncomponents < 1 {
		return nil, raise(EINVAL, "ncomponents < 1")
	}

	values := make([]T, ncomponents)
	stored, err := h.file.Attr("", name, kindOf[T](), ncomponents, asBytes(values))
	if err != nil {
		if errors.Is(err, container.ErrNotFound) {
			return nil, raisef(EFAILED, "attribute %q not found", name)
		}
		return nil, raiseCause(EFAILED, err, "unable to read attribute")
	}
	if stored != ncomponents {
		return nil, raisef(EINVAL, "attribute %q holds %d components, requested %d", name, stored, ncomponents)
	}
	return values, nil
}

// AttributeSizeV returns the component count of the named attribute.
func (h *Handle) AttributeSizeV(name string) (int, error) {
	if !h.valid() {
		return 0, raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return 0, raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return 0, raise(EINVAL, "name is empty")
	}
	stored, err := h.file.Attr("", name, container.Float64, 0, nil)
	if err != nil {
		return 0, raiseCause(EFAILED, err, "unable to read attribute")
	}
	return stored, nil
}

// StringSet stores a string attribute on the container root.
func (h *Handle) StringSet(name, value string) error {
	if !h.valid() {
		return raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return raise(EINVAL, "name is empty")
	}
	if err := h.file.SetAttrString("", name, value); err != nil {
		return raiseCause(EFAILED, err, "unable to write string")
	}
	return nil
}

// StringGet loads a string attribute from the container root.
func (h *Handle) StringGet(name string) (string, error) {
	if !h.valid() {
		return "", raise(EINVAL, "handle not initialized")
	}
	if h.file == nil {
		return "", raise(EINVAL, "no file currently open")
	}
	if name == "" {
		return "", raise(EINVAL, "name is empty")
	}
	s, err := h.file.AttrString("", name)
	if err != nil {
		return "", raiseCause(EFAILED, err, "unable to read string")
	}
	return s, nil
}
