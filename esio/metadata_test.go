package esio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataProbeBypassesHandler(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	require.NoError(t, h.FileCreate(testPath(t, "probe.h5"), true))
	defer h.FileClose()

	// Count handler invocations while probing for a field that does not
	// exist. Probing is how the engine tests for existence, so it must
	// never trip the handler.
	var calls int
	prev := SetErrorHandler(func(string, string, int, Status) { calls++ })
	md, err := readFieldMetadata(h.file, "does-not-exist")
	SetErrorHandler(prev)

	require.NoError(t, err)
	assert.Nil(t, md)
	assert.Zero(t, calls)
}

func TestMetadataProbeRestoresHandler(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	require.NoError(t, h.FileCreate(testPath(t, "restore.h5"), true))
	defer h.FileClose()

	var calls int
	prev := SetErrorHandler(func(string, string, int, Status) { calls++ })
	defer SetErrorHandler(prev)

	_, _ = readFieldMetadata(h.file, "ghost")

	// The probe restored the counting handler on exit: a raised error
	// afterwards must reach it.
	one := Dim{Global: 1, Local: 1}
	_ = FieldRead(h, "ghost", make([]float64, 1), one, one, one)
	assert.Equal(t, 1, calls)
}

func TestMetadataRoundTrip(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	require.NoError(t, h.FileCreate(testPath(t, "md.h5"), true))
	defer h.FileClose()

	c := Dim{Global: 4, Local: 4}
	b := Dim{Global: 3, Local: 3}
	a := Dim{Global: 2, Local: 2}
	require.NoError(t, FieldWrite(h, "u", sequence(24), c, b, a))

	md, err := readFieldMetadata(h.file, "u")
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, 0, md.layoutTag)
	assert.Equal(t, 4, md.c)
	assert.Equal(t, 3, md.b)
	assert.Equal(t, 2, md.a)
	assert.Equal(t, 1, md.ncomponents)
}

func TestStatusValues(t *testing.T) {
	// The enumeration is part of the wire-compatible surface.
	assert.Equal(t, Status(0), SUCCESS)
	assert.Equal(t, Status(3), EFAULT)
	assert.Equal(t, Status(4), EINVAL)
	assert.Equal(t, Status(5), EFAILED)
	assert.Equal(t, Status(7), ESANITY)
	assert.Equal(t, Status(8), ENOMEM)

	assert.Equal(t, SUCCESS, StatusOf(nil))
}

func TestErrorHandlerSwap(t *testing.T) {
	var got Status
	prev := SetErrorHandler(func(reason, file string, line int, status Status) {
		got = status
	})
	defer SetErrorHandler(prev)

	err := raise(EINVAL, "exercise the handler")
	assert.Equal(t, EINVAL, got)
	assert.Equal(t, EINVAL, StatusOf(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "exercise the handler", e.Reason)
	assert.NotZero(t, e.Line)
}
