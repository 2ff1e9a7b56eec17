package esio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-esio/comm"
	"github.com/robert-malhotra/go-esio/internal/container"
)

// quiet installs a pass-through error handler for the duration of a test:
// the default handler aborts the process, which is exactly wrong under
// "go test".
func quiet(t *testing.T) {
	t.Helper()
	prev := SetErrorHandlerOff()
	restoreSink := container.Silence()
	t.Cleanup(func() {
		SetErrorHandler(prev)
		restoreSink()
	})
}

func newHandle(t *testing.T) *Handle {
	t.Helper()
	h, err := Init(comm.Self())
	require.NoError(t, err)
	t.Cleanup(func() { h.Finalize() })
	return h
}

func testPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func TestInitRequiresComm(t *testing.T) {
	quiet(t)
	h, err := Init(nil)
	assert.Nil(t, h)
	assert.Equal(t, EINVAL, StatusOf(err))
}

func TestFinalizeIdempotent(t *testing.T) {
	quiet(t)
	h, err := Init(comm.Self())
	require.NoError(t, err)
	require.NoError(t, h.Finalize())
	require.NoError(t, h.Finalize())

	// Operations after finalization are usage errors.
	err = h.FileCreate(testPath(t, "late.h5"), true)
	assert.Equal(t, EINVAL, StatusOf(err))
}

func TestFileCreateAndOpen(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	path := testPath(t, "basic.h5")

	// Create with overwrite should always work.
	require.NoError(t, h.FileCreate(path, true))

	// Flush flush flush should always work.
	require.NoError(t, h.FileFlush())
	require.NoError(t, h.FileFlush())
	require.NoError(t, h.FileFlush())

	require.NoError(t, h.FileClose())

	// Double closure should silently succeed.
	require.NoError(t, h.FileClose())

	// Create without overwrite should fail against an existing file.
	restore := container.Silence()
	err := h.FileCreate(path, false)
	restore()
	assert.Equal(t, EFAILED, StatusOf(err))

	// After unlinking, the same call succeeds.
	require.NoError(t, os.Remove(path))
	require.NoError(t, h.FileCreate(path, false))
	require.NoError(t, h.FileClose())

	// Read-only and read-write opens both work.
	require.NoError(t, h.FileOpen(path, false))
	require.NoError(t, h.FileClose())
	require.NoError(t, h.FileOpen(path, true))
	require.NoError(t, h.FileClose())
}

func TestFileStateErrors(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	path := testPath(t, "state.h5")

	// Flush with no open file is a usage error.
	assert.Equal(t, EINVAL, StatusOf(h.FileFlush()))

	require.NoError(t, h.FileCreate(path, true))

	// A second create or open while a file is open is a usage error.
	assert.Equal(t, EINVAL, StatusOf(h.FileCreate(testPath(t, "other.h5"), true)))
	assert.Equal(t, EINVAL, StatusOf(h.FileOpen(path, false)))

	require.NoError(t, h.FileClose())

	// Opening a nonexistent file fails against the environment.
	restore := container.Silence()
	err := h.FileOpen(testPath(t, "missing.h5"), false)
	restore()
	assert.Equal(t, EFAILED, StatusOf(err))
}

func TestFinalizeForcesClose(t *testing.T) {
	quiet(t)
	h, err := Init(comm.Self())
	require.NoError(t, err)
	path := testPath(t, "forced.h5")
	require.NoError(t, h.FileCreate(path, true))
	require.NoError(t, h.Finalize())

	// The forced close must have left a readable file behind.
	h2 := newHandle(t)
	require.NoError(t, h2.FileOpen(path, false))
	require.NoError(t, h2.FileClose())
}

func TestHints(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	h.SetHint("romio_cb_write", "enable")
	v, ok := h.Hint("romio_cb_write")
	assert.True(t, ok)
	assert.Equal(t, "enable", v)
}
