package esio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineRoundTrip(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	path := testPath(t, "line.h5")
	require.NoError(t, h.FileCreate(path, true))

	a := Dim{Global: 7, Local: 7}
	buf := sequence(7)
	require.NoError(t, LineWrite(h, "l", buf, a))
	require.NoError(t, h.FileClose())

	require.NoError(t, h.FileOpen(path, false))
	ga, err := h.LineSize("l")
	require.NoError(t, err)
	assert.Equal(t, 7, ga)

	got := make([]float64, 7)
	require.NoError(t, LineRead(h, "l", got, a))
	assert.Equal(t, buf, got)
	require.NoError(t, h.FileClose())
}

func TestLineVectorStrides(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	require.NoError(t, h.FileCreate(testPath(t, "linev.h5"), true))

	// Three components per point, written from a buffer holding an extra
	// component's worth of spacing between points.
	const n, ncomp = 4, 3
	const pitch = ncomp + 1
	padded := make([]float32, n*pitch)
	for i := 0; i < n; i++ {
		for comp := 0; comp < ncomp; comp++ {
			padded[i*pitch+comp] = float32(10*i + comp)
		}
	}

	// Stride is measured in scalars and must be a multiple of
	// ncomponents, so a pitch of 4 is rejected for 3 components.
	err := LineWriteV(h, "lv", padded, Dim{Global: n, Local: n, Stride: pitch}, ncomp)
	assert.Equal(t, EINVAL, StatusOf(err))

	// A pitch of 2*ncomp works.
	spaced := make([]float32, n*2*ncomp)
	for i := 0; i < n; i++ {
		for comp := 0; comp < ncomp; comp++ {
			spaced[i*2*ncomp+comp] = float32(10*i + comp)
		}
	}
	require.NoError(t, LineWriteV(h, "lv", spaced, Dim{Global: n, Local: n, Stride: 2 * ncomp}, ncomp))

	got := make([]float32, n*ncomp)
	require.NoError(t, LineReadV(h, "lv", got, Dim{Global: n, Local: n}, ncomp))
	for i := 0; i < n; i++ {
		for comp := 0; comp < ncomp; comp++ {
			assert.Equal(t, float32(10*i+comp), got[i*ncomp+comp])
		}
	}
	require.NoError(t, h.FileClose())
}

func TestLineSizeRejectsPlane(t *testing.T) {
	quiet(t)
	h := newHandle(t)
	require.NoError(t, h.FileCreate(testPath(t, "notline.h5"), true))

	b := Dim{Global: 2, Local: 2}
	a := Dim{Global: 3, Local: 3}
	require.NoError(t, PlaneWrite(h, "p", sequence(6), b, a))

	_, err := h.LineSize("p")
	assert.Equal(t, EINVAL, StatusOf(err))
	require.NoError(t, h.FileClose())
}
