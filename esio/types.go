package esio

import (
	"unsafe"

	"github.com/robert-malhotra/go-esio/internal/container"
)

// Scalar is the closed set of element types the engine transfers.
type Scalar interface {
	float64 | float32 | int32
}

// Dim describes one direction of a rank's local sub-block within a global
// extent:
//
//	Global  global extent along the direction
//	Start   zero-based offset of this rank's first element
//	Local   elements this rank contributes (>= 1)
//	Stride  spacing in scalars between adjacent positions in the caller's
//	        buffer; 0 means contiguous (the tight product of the faster
//	        directions' locals and the component count)
//
// Across ranks the half-open spans [Start, Start+Local) must tile
// [0, Global) exactly; the engine assumes but does not verify this.
type Dim struct {
	Global int
	Start  int
	Local  int
	Stride int
}

// kindOf maps a Scalar instantiation onto the container's element kind.
func kindOf[T Scalar]() container.Kind {
	var z T
	switch any(z).(type) {
	case float64:
		return container.Float64
	case float32:
		return container.Float32
	default:
		return container.Int32
	}
}

// asBytes reinterprets a scalar slice as its native byte representation.
// The engine performs no copies on tight same-type transfers.
func asBytes[T Scalar](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(s[0])))
}
