package container

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/go-esio/internal/hfile"
)

// Attributes live on the container root (objName == "") or on a named
// dataset. Setting an attribute is collective in the replicated-metadata
// sense: every rank records the identical value, and rank 0 writes it out
// at the next flush. Layout follows the hfile attribute message: a scalar
// dataspace for single values, a one-dimensional dataspace otherwise.

// attrSlot locates the attribute list for objName, creating nothing.
func (c *Container) attrSlot(objName string) (*[]*attrValue, error) {
	if objName == "" {
		return &c.rootAttrs, nil
	}
	obj, ok := c.objects[objName]
	if !ok {
		return nil, errors.WithMessagef(ErrNotFound, "object %q", objName)
	}
	return &obj.attrs, nil
}

func (c *Container) setAttr(objName, name string, typ *hfile.Datatype, dims []uint64, data []byte) error {
	if !c.writable {
		return errors.New("container: attribute write on read-only container")
	}
	slot, err := c.attrSlot(objName)
	if err != nil {
		report("setting attribute "+name, err)
		return err
	}
	for _, a := range *slot {
		if a.name == name {
			a.typ, a.dims, a.data = typ, dims, data
			c.dirty = true
			return nil
		}
	}
	*slot = append(*slot, &attrValue{name: name, typ: typ, dims: dims, data: data})
	c.dirty = true
	return nil
}

func (c *Container) getAttr(objName, name string) (*attrValue, error) {
	slot, err := c.attrSlot(objName)
	if err != nil {
		report("reading attribute "+name, err)
		return nil, err
	}
	for _, a := range *slot {
		if a.name == name {
			return a, nil
		}
	}
	err = errors.WithMessagef(ErrNotFound, "attribute %q on %q", name, objName)
	report("reading attribute "+name, err)
	return nil, err
}

// SetAttr stores a numeric attribute of n elements of kind k. data holds
// the native-order bytes of those elements.
func (c *Container) SetAttr(objName, name string, k Kind, n int, data []byte) error {
	var dims []uint64
	if n != 1 {
		dims = []uint64{uint64(n)}
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	return c.setAttr(objName, name, Scalar(k).datatype(), dims, stored)
}

// Attr loads a numeric attribute into dst (n elements of kind k, converted
// from the stored kind as needed). It returns the stored element count;
// only min(n, stored) elements are filled. The error is ErrNotFound-based
// when the object or attribute is absent.
func (c *Container) Attr(objName, name string, k Kind, n int, dst []byte) (int, error) {
	a, err := c.getAttr(objName, name)
	if err != nil {
		return 0, err
	}
	typ, err := typeFromDatatype(a.typ)
	if err != nil {
		return 0, err
	}
	if typ.Count != 1 {
		return 0, errors.Errorf("container: attribute %q holds array elements", name)
	}
	stored := 1
	if len(a.dims) == 1 {
		stored = int(a.dims[0])
	} else if len(a.dims) > 1 {
		return 0, errors.Errorf("container: attribute %q is multidimensional", name)
	}
	fill := stored
	if n < fill {
		fill = n
	}
	convertScalars(dst, k, a.data, typ.Kind, fill)
	return stored, nil
}

// SetAttrString stores a NUL-padded string attribute.
func (c *Container) SetAttrString(objName, name, value string) error {
	data := append([]byte(value), 0)
	return c.setAttr(objName, name, hfile.StringType(len(data)), nil, data)
}

// AttrString loads a string attribute.
func (c *Container) AttrString(objName, name string) (string, error) {
	a, err := c.getAttr(objName, name)
	if err != nil {
		return "", err
	}
	if a.typ.Class != hfile.ClassString {
		return "", errors.Errorf("container: attribute %q is not a string", name)
	}
	data := a.data
	for i, b := range data {
		if b == 0 {
			data = data[:i]
			break
		}
	}
	return string(data), nil
}

// AttrNames lists the attributes of objName in creation order.
func (c *Container) AttrNames(objName string) ([]string, error) {
	slot, err := c.attrSlot(objName)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(*slot))
	for i, a := range *slot {
		names[i] = a.name
	}
	return names, nil
}
