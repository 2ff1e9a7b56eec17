package hfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup3(t *testing.T) {
	// Stable across calls, sensitive to every byte, and defined for the
	// empty input.
	data := []byte("The quick brown fox jumps over the lazy dog")
	sum := Lookup3(data)
	assert.Equal(t, sum, Lookup3(data))

	mutated := append([]byte(nil), data...)
	mutated[0] ^= 1
	assert.NotEqual(t, sum, Lookup3(mutated))

	assert.Equal(t, uint32(0xdeadbeef), Lookup3(nil))

	// Exercise the >12-byte loop boundary on both sides.
	assert.NotEqual(t, Lookup3(data[:12]), Lookup3(data[:13]))
}

func TestSuperblockRoundTrip(t *testing.T) {
	sb := &Superblock{EOF: 8192, Root: 48}
	buf := sb.Encode()
	require.Len(t, buf, SuperblockSize)

	got, err := DecodeSuperblock(buf)
	require.NoError(t, err)
	assert.Equal(t, sb.EOF, got.EOF)
	assert.Equal(t, sb.Root, got.Root)
}

func TestSuperblockRejectsCorruption(t *testing.T) {
	sb := &Superblock{EOF: 100, Root: Undef}
	buf := sb.Encode()

	bad := append([]byte(nil), buf...)
	bad[0] = 'X'
	_, err := DecodeSuperblock(bad)
	assert.ErrorIs(t, err, ErrBadSignature)

	bad = append([]byte(nil), buf...)
	bad[30] ^= 0xFF // EOF field
	_, err = DecodeSuperblock(bad)
	require.Error(t, err)

	_, err = DecodeSuperblock(buf[:20])
	assert.ErrorIs(t, err, ErrBadSuperblock)
}

func TestDatatypeRoundTrip(t *testing.T) {
	for _, dt := range []*Datatype{
		Float64Type(),
		Float32Type(),
		Int32Type(),
		ArrayType(Float64Type(), 3),
		ArrayType(Int32Type(), 5),
	} {
		e := NewEncoder()
		dt.Encode(e)
		require.Equal(t, dt.EncodedSize(), e.Len(), "%+v", dt)

		got, err := DecodeDatatype(NewDecoder(e.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, dt.Class, got.Class)
		assert.Equal(t, dt.Size, got.Size)
		if dt.Class == ClassArray {
			assert.Equal(t, dt.ArrayLen, got.ArrayLen)
			assert.Equal(t, dt.Base.Class, got.Base.Class)
		}
	}
}

func TestDataspaceRoundTrip(t *testing.T) {
	for _, ds := range []*Dataspace{
		{},                        // scalar
		{Dims: []uint64{8}},       // 1-D
		{Dims: []uint64{4, 3, 2}}, // 3-D
	} {
		e := NewEncoder()
		ds.Encode(e)
		require.Equal(t, ds.EncodedSize(), e.Len())

		got, err := DecodeDataspace(NewDecoder(e.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, ds.Dims, got.Dims)
	}
}

func TestLinkRoundTrip(t *testing.T) {
	link := &Link{Name: "u", Addr: 0xABCD}
	e := NewEncoder()
	link.Encode(e)
	require.Equal(t, link.EncodedSize(), e.Len())

	got, err := DecodeLink(NewDecoder(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, link.Name, got.Name)
	assert.Equal(t, link.Addr, got.Addr)
}

func TestAttributeRoundTrip(t *testing.T) {
	attr := &Attribute{
		Name:  "esio_metadata",
		Type:  Int32Type(),
		Space: &Dataspace{Dims: []uint64{8}},
		Data:  []byte{1, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4, 0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0},
	}
	e := NewEncoder()
	attr.Encode(e)
	require.Equal(t, attr.EncodedSize(), e.Len())

	got, err := DecodeAttribute(NewDecoder(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, attr.Name, got.Name)
	assert.Equal(t, attr.Space.Dims, got.Space.Dims)
	assert.Equal(t, attr.Data, got.Data)
}

func TestObjectHeaderRoundTrip(t *testing.T) {
	msgs := []Message{
		EncodeBody(MsgDataspace, &Dataspace{Dims: []uint64{4, 3, 2}}),
		EncodeBody(MsgDatatype, Float64Type()),
		EncodeBody(MsgLayout, &Layout{Addr: 2048, Size: 4 * 3 * 2 * 8}),
		EncodeBody(MsgLink, &Link{Name: "u", Addr: 48}),
	}
	buf := EncodeHeader(msgs)
	require.Equal(t, HeaderSize(msgs), len(buf))

	total, err := DecodeHeaderPrefix(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), total)

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	require.Len(t, got, len(msgs))
	for i := range msgs {
		assert.Equal(t, msgs[i].Type, got[i].Type)
		assert.Equal(t, msgs[i].Body, got[i].Body)
	}
}

func TestObjectHeaderChecksum(t *testing.T) {
	buf := EncodeHeader([]Message{EncodeBody(MsgDataspace, &Dataspace{Dims: []uint64{1}})})
	buf[len(buf)-5] ^= 0x40 // flip a message byte, not the checksum
	_, err := DecodeHeader(buf)
	require.Error(t, err)
}
