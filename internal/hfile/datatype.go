package hfile

import "github.com/pkg/errors"

// TypeClass is the HDF5 datatype class.
type TypeClass uint8

const (
	ClassFixed  TypeClass = 0
	ClassFloat  TypeClass = 1
	ClassString TypeClass = 3
	ClassArray  TypeClass = 10
)

// Datatype is a datatype message body restricted to the profile: signed
// little-endian integers, IEEE little-endian floats, NUL-padded ASCII
// strings, and one-dimensional arrays over a numeric base.
type Datatype struct {
	Class TypeClass
	Size  uint32 // bytes per element, array base size times ArrayLen for arrays

	ArrayLen uint32    // ClassArray only
	Base     *Datatype // ClassArray only
}

// Fixed-profile constructors.

func Int32Type() *Datatype   { return &Datatype{Class: ClassFixed, Size: 4} }
func Float32Type() *Datatype { return &Datatype{Class: ClassFloat, Size: 4} }
func Float64Type() *Datatype { return &Datatype{Class: ClassFloat, Size: 8} }

func StringType(n int) *Datatype { return &Datatype{Class: ClassString, Size: uint32(n)} }

func ArrayType(base *Datatype, n int) *Datatype {
	return &Datatype{Class: ClassArray, Size: base.Size * uint32(n), ArrayLen: uint32(n), Base: base}
}

// classBits builds the 24-bit class bit field for the fixed profile.
func (dt *Datatype) classBits() uint32 {
	switch dt.Class {
	case ClassFixed:
		// LE byte order, signed.
		return 0x08
	case ClassFloat:
		// LE byte order, IEEE mantissa normalization, sign bit location
		// in byte 1.
		signLoc := uint32(dt.Size*8 - 1)
		return 1<<5 | signLoc<<8
	case ClassString:
		// NUL-padded, ASCII charset.
		return 0
	default:
		return 0
	}
}

// Encode appends the datatype message body.
func (dt *Datatype) Encode(e *Encoder) {
	version := uint8(1)
	if dt.Class == ClassArray {
		version = 2
	}
	e.U8(uint8(dt.Class) | version<<4)
	bits := dt.classBits()
	e.U8(uint8(bits))
	e.U8(uint8(bits >> 8))
	e.U8(uint8(bits >> 16))
	e.U32(dt.Size)

	switch dt.Class {
	case ClassFixed:
		e.U16(0)           // bit offset
		e.U16(uint16(8 * dt.Size)) // bit precision
	case ClassFloat:
		e.U16(0)                  // bit offset
		e.U16(uint16(8 * dt.Size)) // bit precision
		switch dt.Size {
		case 4:
			e.U8(23) // exponent location
			e.U8(8)  // exponent size
			e.U8(0)  // mantissa location
			e.U8(23) // mantissa size
			e.U32(127)
		case 8:
			e.U8(52)
			e.U8(11)
			e.U8(0)
			e.U8(52)
			e.U32(1023)
		}
	case ClassString:
		// No properties.
	case ClassArray:
		e.U8(1) // one dimension
		e.U16(0)
		e.U32(dt.ArrayLen)
		dt.Base.Encode(e)
	}
}

// EncodedSize reports the serialized length of the message body.
func (dt *Datatype) EncodedSize() int {
	switch dt.Class {
	case ClassFixed:
		return 8 + 4
	case ClassFloat:
		return 8 + 12
	case ClassString:
		return 8
	case ClassArray:
		return 8 + 7 + dt.Base.EncodedSize()
	}
	return 8
}

// DecodeDatatype parses a datatype message body.
func DecodeDatatype(d *Decoder) (*Datatype, error) {
	classAndVersion := d.U8()
	class := TypeClass(classAndVersion & 0x0F)
	bits0 := d.U8()
	d.U8()
	d.U8()
	size := d.U32()
	if err := d.Err(); err != nil {
		return nil, err
	}

	switch class {
	case ClassFixed:
		d.U16() // bit offset
		d.U16() // bit precision
		if bits0&0x01 != 0 {
			return nil, errors.WithMessage(ErrOutOfProfile, "big-endian integer")
		}
		return &Datatype{Class: ClassFixed, Size: size}, d.Err()
	case ClassFloat:
		d.Skip(12) // bit offset/precision, exponent/mantissa fields, bias
		if bits0&0x01 != 0 {
			return nil, errors.WithMessage(ErrOutOfProfile, "big-endian float")
		}
		return &Datatype{Class: ClassFloat, Size: size}, d.Err()
	case ClassString:
		return &Datatype{Class: ClassString, Size: size}, nil
	case ClassArray:
		ndims := d.U8()
		d.U16()
		if ndims != 1 {
			return nil, errors.WithMessage(ErrOutOfProfile, "multidimensional array datatype")
		}
		n := d.U32()
		base, err := DecodeDatatype(d)
		if err != nil {
			return nil, err
		}
		return &Datatype{Class: ClassArray, Size: size, ArrayLen: n, Base: base}, d.Err()
	}
	return nil, errors.WithMessagef(ErrOutOfProfile, "datatype class %d", class)
}
