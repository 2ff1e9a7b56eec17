package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-esio/comm"
)

func newPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.h5")
}

func selfProps() AccessProps { return AccessProps{Comm: comm.Self()} }

func f64asBytes(vals []float64) []byte {
	out := make([]byte, len(vals)*8)
	d := f64view(out, len(vals))
	copy(d, vals)
	return out
}

func TestCreateFlushOpen(t *testing.T) {
	path := newPath(t)

	c, err := Create(path, true, selfProps())
	require.NoError(t, err)
	require.True(t, c.Writable())
	require.NoError(t, c.Close())

	// The closed file must carry a parseable structure.
	c2, err := Open(path, false, selfProps())
	require.NoError(t, err)
	assert.Empty(t, c2.List())
	assert.False(t, c2.Writable())
	require.NoError(t, c2.Close())
}

func TestCreateExclusive(t *testing.T) {
	path := newPath(t)

	c, err := Create(path, false, selfProps())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	restore := Silence()
	_, err = Create(path, false, selfProps())
	restore()
	require.Error(t, err)

	require.NoError(t, os.Remove(path))
	c, err = Create(path, false, selfProps())
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestDatasetRoundTrip(t *testing.T) {
	path := newPath(t)

	c, err := Create(path, true, selfProps())
	require.NoError(t, err)

	space := CreateSimple(2, 3)
	dset, err := c.CreateDataset("u", Scalar(Float64), space)
	require.NoError(t, err)

	vals := []float64{0, 1, 2, 3, 4, 5}
	require.NoError(t, dset.Write(f64asBytes(vals), Scalar(Float64), CreateSimple(6), dset.Space(), nil))
	require.NoError(t, c.Close())

	c2, err := Open(path, false, selfProps())
	require.NoError(t, err)
	assert.Equal(t, []string{"u"}, c2.List())

	dset2, err := c2.OpenDataset("u")
	require.NoError(t, err)
	assert.Equal(t, Scalar(Float64), dset2.Type())
	assert.Equal(t, []uint64{2, 3}, dset2.Space().Dims())

	got := make([]float64, 6)
	buf := make([]byte, 6*8)
	require.NoError(t, dset2.Read(buf, Scalar(Float64), CreateSimple(6), dset2.Space(), nil))
	copy(got, f64view(buf, 6))
	assert.Equal(t, vals, got)
	require.NoError(t, c2.Close())
}

func TestHyperslabSubset(t *testing.T) {
	path := newPath(t)
	c, err := Create(path, true, selfProps())
	require.NoError(t, err)

	dset, err := c.CreateDataset("grid", Scalar(Int32), CreateSimple(4, 4))
	require.NoError(t, err)

	// Write the 2x2 block at (1,1) out of a contiguous 4-element buffer.
	mem := CreateSimple(4)
	file := dset.Space()
	require.NoError(t, file.SelectHyperslab(SelectSet, []uint64{1, 1}, nil, []uint64{2, 2}))

	src := make([]byte, 4*4)
	s := i32view(src, 4)
	copy(s, []int32{10, 11, 12, 13})
	require.NoError(t, dset.Write(src, Scalar(Int32), mem, file, nil))

	// Read back the full extent and verify placement.
	full := make([]byte, 16*4)
	require.NoError(t, dset.Read(full, Scalar(Int32), CreateSimple(16), dset.Space(), nil))
	got := i32view(full, 16)
	assert.Equal(t, int32(10), got[1*4+1])
	assert.Equal(t, int32(11), got[1*4+2])
	assert.Equal(t, int32(12), got[2*4+1])
	assert.Equal(t, int32(13), got[2*4+2])
	require.NoError(t, c.Close())
}

func TestSelectionMismatch(t *testing.T) {
	path := newPath(t)
	c, err := Create(path, true, selfProps())
	require.NoError(t, err)
	defer c.Close()

	dset, err := c.CreateDataset("u", Scalar(Float64), CreateSimple(4))
	require.NoError(t, err)

	mem := CreateSimple(2)
	err = dset.Write(make([]byte, 2*8), Scalar(Float64), mem, dset.Space(), nil)
	require.Error(t, err)
}

func TestTypeConversion(t *testing.T) {
	path := newPath(t)
	c, err := Create(path, true, selfProps())
	require.NoError(t, err)

	dset, err := c.CreateDataset("u", Scalar(Float32), CreateSimple(3))
	require.NoError(t, err)

	// Write float64 values into float32 storage.
	src := f64asBytes([]float64{1.5, -2.25, 8})
	require.NoError(t, dset.Write(src, Scalar(Float64), CreateSimple(3), dset.Space(), nil))

	out := make([]byte, 3*4)
	require.NoError(t, dset.Read(out, Scalar(Float32), CreateSimple(3), dset.Space(), nil))
	got := f32view(out, 3)
	assert.Equal(t, []float32{1.5, -2.25, 8}, []float32(got))
	require.NoError(t, c.Close())
}

func TestAttributes(t *testing.T) {
	path := newPath(t)
	c, err := Create(path, true, selfProps())
	require.NoError(t, err)

	_, err = c.CreateDataset("u", Scalar(Float64), CreateSimple(2))
	require.NoError(t, err)

	meta := make([]byte, 8*4)
	m := i32view(meta, 8)
	copy(m, []int32{0, 2, 0, 0, 4, 3, 2, 1})
	require.NoError(t, c.SetAttr("u", "esio_metadata", Int32, 8, meta))
	require.NoError(t, c.SetAttrString("", "creator", "esio test"))

	require.NoError(t, c.Close())

	c2, err := Open(path, false, selfProps())
	require.NoError(t, err)

	out := make([]byte, 9*4)
	stored, err := c2.Attr("u", "esio_metadata", Int32, 9, out)
	require.NoError(t, err)
	assert.Equal(t, 8, stored)
	assert.Equal(t, []int32{0, 2, 0, 0, 4, 3, 2, 1}, []int32(i32view(out, 9)[:8]))

	s, err := c2.AttrString("", "creator")
	require.NoError(t, err)
	assert.Equal(t, "esio test", s)

	restore := Silence()
	_, err = c2.Attr("u", "missing", Int32, 1, make([]byte, 4))
	restore()
	assert.ErrorIs(t, err, ErrNotFound)

	restore = Silence()
	_, err = c2.Attr("ghost", "esio_metadata", Int32, 1, make([]byte, 4))
	restore()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c2.Close())
}

func TestReopenReadWrite(t *testing.T) {
	path := newPath(t)
	c, err := Create(path, true, selfProps())
	require.NoError(t, err)
	_, err = c.CreateDataset("first", Scalar(Int32), CreateSimple(2))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c2, err := Open(path, true, selfProps())
	require.NoError(t, err)
	_, err = c2.CreateDataset("second", Scalar(Float64), CreateSimple(3))
	require.NoError(t, err)
	require.NoError(t, c2.Close())

	c3, err := Open(path, false, selfProps())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, c3.List())
	require.NoError(t, c3.Close())
}

func TestRepeatedFlush(t *testing.T) {
	path := newPath(t)
	c, err := Create(path, true, selfProps())
	require.NoError(t, err)
	require.NoError(t, c.Flush())
	require.NoError(t, c.Flush())
	require.NoError(t, c.Flush())
	require.NoError(t, c.Close())
}
