package container

import "unsafe"

// The container stores and transfers element data in native memory order.
// Supported targets are little-endian (amd64, arm64, riscv64), so native
// order and the hfile profile's on-disk order coincide and same-kind
// transfers reduce to byte copies.

func f64view(b []byte, n int) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), n)
}

func f32view(b []byte, n int) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), n)
}

func i32view(b []byte, n int) []int32 {
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), n)
}

// convertScalars copies n scalars from src (kind sk) into dst (kind dk),
// converting element-wise. Float-to-integer conversion truncates toward
// zero, matching the container substrate's native numeric conversion.
func convertScalars(dst []byte, dk Kind, src []byte, sk Kind, n int) {
	if n == 0 {
		return
	}
	if dk == sk {
		copy(dst[:n*dk.Size()], src[:n*sk.Size()])
		return
	}
	switch sk {
	case Float64:
		s := f64view(src, n)
		switch dk {
		case Float32:
			d := f32view(dst, n)
			for i, v := range s {
				d[i] = float32(v)
			}
		case Int32:
			d := i32view(dst, n)
			for i, v := range s {
				d[i] = int32(v)
			}
		}
	case Float32:
		s := f32view(src, n)
		switch dk {
		case Float64:
			d := f64view(dst, n)
			for i, v := range s {
				d[i] = float64(v)
			}
		case Int32:
			d := i32view(dst, n)
			for i, v := range s {
				d[i] = int32(v)
			}
		}
	case Int32:
		s := i32view(src, n)
		switch dk {
		case Float64:
			d := f64view(dst, n)
			for i, v := range s {
				d[i] = float64(v)
			}
		case Float32:
			d := f32view(dst, n)
			for i, v := range s {
				d[i] = float32(v)
			}
		}
	}
}
