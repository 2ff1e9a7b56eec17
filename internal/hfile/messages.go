package hfile

import "github.com/pkg/errors"

// Header message type identifiers used by the profile.
const (
	MsgNil       uint8 = 0x00
	MsgDataspace uint8 = 0x01
	MsgDatatype  uint8 = 0x03
	MsgLink      uint8 = 0x06
	MsgLayout    uint8 = 0x08
	MsgAttribute uint8 = 0x0C
)

// Dataspace is a dataspace message: scalar (rank 0) or simple.
type Dataspace struct {
	Dims []uint64 // nil means scalar
}

func (m *Dataspace) Encode(e *Encoder) {
	e.U8(2) // version
	e.U8(uint8(len(m.Dims)))
	e.U8(0) // no max dims
	if len(m.Dims) == 0 {
		e.U8(0) // scalar
	} else {
		e.U8(1) // simple
	}
	for _, dim := range m.Dims {
		e.Length(dim)
	}
}

func (m *Dataspace) EncodedSize() int { return 4 + LengthSize*len(m.Dims) }

func DecodeDataspace(d *Decoder) (*Dataspace, error) {
	version := d.U8()
	rank := d.U8()
	flags := d.U8()
	spaceType := d.U8()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if version != 2 || flags != 0 || spaceType > 1 {
		return nil, errors.WithMessage(ErrOutOfProfile, "dataspace")
	}
	m := &Dataspace{}
	if rank > 0 {
		m.Dims = make([]uint64, rank)
		for i := range m.Dims {
			m.Dims[i] = d.Length()
		}
	}
	return m, d.Err()
}

// Layout is a data layout message restricted to contiguous storage
// (version 3, class 1).
type Layout struct {
	Addr uint64
	Size uint64
}

func (m *Layout) Encode(e *Encoder) {
	e.U8(3) // version
	e.U8(1) // contiguous
	e.Offset(m.Addr)
	e.Length(m.Size)
}

func (m *Layout) EncodedSize() int { return 2 + OffsetSize + LengthSize }

func DecodeLayout(d *Decoder) (*Layout, error) {
	version := d.U8()
	class := d.U8()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if version != 3 || class != 1 {
		return nil, errors.WithMessage(ErrOutOfProfile, "non-contiguous data layout")
	}
	m := &Layout{Addr: d.Offset(), Size: d.Length()}
	return m, d.Err()
}

// Link is a hard link message (version 1) binding a name to an object
// header address.
type Link struct {
	Name string
	Addr uint64
}

func (m *Link) nameLenSize() (int, uint8) {
	if len(m.Name) <= 0xFF {
		return 1, 0
	}
	return 2, 1
}

func (m *Link) Encode(e *Encoder) {
	e.U8(1) // version
	size, bits := m.nameLenSize()
	e.U8(bits) // flags: name length size only; hard link, no extras
	if size == 1 {
		e.U8(uint8(len(m.Name)))
	} else {
		e.U16(uint16(len(m.Name)))
	}
	e.Raw([]byte(m.Name))
	e.Offset(m.Addr)
}

func (m *Link) EncodedSize() int {
	size, _ := m.nameLenSize()
	return 2 + size + len(m.Name) + OffsetSize
}

func DecodeLink(d *Decoder) (*Link, error) {
	version := d.U8()
	flags := d.U8()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, errors.WithMessage(ErrOutOfProfile, "link message version")
	}
	if flags&0x08 != 0 {
		return nil, errors.WithMessage(ErrOutOfProfile, "non-hard link")
	}
	var n int
	switch flags & 0x03 {
	case 0:
		n = int(d.U8())
	case 1:
		n = int(d.U16())
	default:
		return nil, errors.WithMessage(ErrOutOfProfile, "link name length size")
	}
	name := d.Raw(n)
	m := &Link{Name: string(name), Addr: d.Offset()}
	return m, d.Err()
}

// Attribute is an attribute message (version 3).
type Attribute struct {
	Name  string
	Type  *Datatype
	Space *Dataspace
	Data  []byte
}

func (m *Attribute) Encode(e *Encoder) {
	e.U8(3) // version
	e.U8(0) // flags
	e.U16(uint16(len(m.Name) + 1))
	e.U16(uint16(m.Type.EncodedSize()))
	e.U16(uint16(m.Space.EncodedSize()))
	e.U8(0) // ASCII name encoding
	e.CString(m.Name)
	m.Type.Encode(e)
	m.Space.Encode(e)
	e.Raw(m.Data)
}

func (m *Attribute) EncodedSize() int {
	return 9 + len(m.Name) + 1 + m.Type.EncodedSize() + m.Space.EncodedSize() + len(m.Data)
}

func DecodeAttribute(d *Decoder) (*Attribute, error) {
	version := d.U8()
	d.U8() // flags
	nameSize := d.U16()
	typeSize := d.U16()
	spaceSize := d.U16()
	d.U8() // encoding
	if err := d.Err(); err != nil {
		return nil, err
	}
	if version != 3 {
		return nil, errors.WithMessage(ErrOutOfProfile, "attribute message version")
	}
	rawName := d.Raw(int(nameSize))
	if d.Err() != nil {
		return nil, d.Err()
	}
	name := string(rawName)
	if n := len(name); n > 0 && name[n-1] == 0 {
		name = name[:n-1]
	}

	td := NewDecoder(d.Raw(int(typeSize)))
	if d.Err() != nil {
		return nil, d.Err()
	}
	typ, err := DecodeDatatype(td)
	if err != nil {
		return nil, err
	}
	sd := NewDecoder(d.Raw(int(spaceSize)))
	if d.Err() != nil {
		return nil, d.Err()
	}
	space, err := DecodeDataspace(sd)
	if err != nil {
		return nil, err
	}

	nelem := uint64(1)
	for _, dim := range space.Dims {
		nelem *= dim
	}
	data := d.Raw(int(nelem * uint64(typ.Size)))
	if d.Err() != nil {
		return nil, d.Err()
	}
	return &Attribute{Name: name, Type: typ, Space: space, Data: data}, nil
}
