package hfile

import "github.com/pkg/errors"

// Signature is the 8-byte HDF5 file signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// Superblock is the version 2 superblock restricted to the fixed profile.
//
// Layout:
//
//	0   8  Signature
//	8   1  Version (2)
//	9   1  Size of offsets (8)
//	10  1  Size of lengths (8)
//	11  1  File consistency flags
//	12  8  Base address (0)
//	20  8  Superblock extension address (undefined)
//	28  8  End-of-file address
//	36  8  Root group object header address
//	44  4  Checksum (lookup3)
type Superblock struct {
	EOF  uint64
	Root uint64
}

// SuperblockSize is the encoded size of the profile's superblock.
const SuperblockSize = 48

var (
	ErrBadSignature  = errors.New("hfile: missing HDF5 signature")
	ErrBadSuperblock = errors.New("hfile: malformed superblock")
	ErrOutOfProfile  = errors.New("hfile: structure outside the fixed profile")
)

// Encode serializes the superblock, including its checksum.
func (sb *Superblock) Encode() []byte {
	e := NewEncoder()
	e.Raw(Signature)
	e.U8(2) // version
	e.U8(OffsetSize)
	e.U8(LengthSize)
	e.U8(0) // file consistency flags
	e.Offset(0)
	e.Offset(Undef) // no superblock extension
	e.Offset(sb.EOF)
	e.Offset(sb.Root)
	e.U32(Lookup3(e.Bytes()))
	return e.Bytes()
}

// DecodeSuperblock parses and checksums a version 2 superblock.
func DecodeSuperblock(buf []byte) (*Superblock, error) {
	if len(buf) < SuperblockSize {
		return nil, ErrBadSuperblock
	}
	d := NewDecoder(buf[:SuperblockSize])
	sig := d.Raw(8)
	if string(sig) != string(Signature) {
		return nil, ErrBadSignature
	}
	version := d.U8()
	offsetSize := d.U8()
	lengthSize := d.U8()
	d.U8() // consistency flags
	if version != 2 || offsetSize != OffsetSize || lengthSize != LengthSize {
		return nil, errors.WithMessage(ErrOutOfProfile, "superblock")
	}
	base := d.Offset()
	d.Offset() // superblock extension
	sb := &Superblock{EOF: d.Offset(), Root: d.Offset()}
	stored := d.U32()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if base != 0 {
		return nil, errors.WithMessage(ErrOutOfProfile, "nonzero base address")
	}
	if stored != Lookup3(buf[:SuperblockSize-4]) {
		return nil, errors.WithMessage(ErrBadSuperblock, "checksum mismatch")
	}
	return sb, nil
}
