package esio

import (
	"math"

	"github.com/robert-malhotra/go-esio/internal/container"
)

// Library version triple recorded in every field's metadata.
const (
	VersionMajor = 0
	VersionMinor = 2
	VersionPatch = 0
)

// metadataName is the attribute attached to every field. Its value is the
// eight-integer tuple {major, minor, patch, layout_tag, C, B, A,
// ncomponents}; the tuple, not the caller, is the source of truth for a
// stored field's shape.
const metadataName = "esio_metadata"

const metadataSize = 8

// metadataSentinel guards the probe buffer against format drift.
const metadataSentinel = math.MinInt32 + 999983

// fieldMetadata is the decoded self-description of a stored field.
type fieldMetadata struct {
	layoutTag   int
	c, b, a     int
	ncomponents int
}

// writeFieldMetadata stamps the metadata tuple onto the named dataset.
// Layout decisions are frozen at first write.
func writeFieldMetadata(f *container.Container, name string, layoutTag, c, b, a, ncomponents int) error {
	tuple := [metadataSize]int32{
		VersionMajor,
		VersionMinor,
		VersionPatch,
		int32(layoutTag),
		int32(c),
		int32(b),
		int32(a),
		int32(ncomponents),
	}
	var raw [metadataSize * 4]byte
	for i, v := range tuple {
		raw[4*i] = byte(v)
		raw[4*i+1] = byte(v >> 8)
		raw[4*i+2] = byte(v >> 16)
		raw[4*i+3] = byte(v >> 24)
	}
	return f.SetAttr(name, metadataName, container.Int32, metadataSize, raw[:])
}

// readFieldMetadata probes the named dataset for its metadata tuple. A
// missing field yields (nil, nil): the probe is how callers test for
// existence, so it must not trip the error handler. Both the core handler
// and the container's diagnostic sink are silenced for the duration and
// restored on every exit path.
func readFieldMetadata(f *container.Container, name string) (*fieldMetadata, error) {
	// One slot past the tuple carries a sentinel to balk if the stored
	// attribute ever grows beyond what this version understands.
	var tuple [metadataSize + 1]int32
	tuple[metadataSize] = metadataSentinel

	var raw [(metadataSize + 1) * 4]byte
	for i, v := range tuple {
		raw[4*i] = byte(v)
		raw[4*i+1] = byte(v >> 8)
		raw[4*i+2] = byte(v >> 16)
		raw[4*i+3] = byte(v >> 24)
	}

	stored, probeErr := func() (int, error) {
		restoreHandler := silenceHandler()
		defer restoreHandler()
		restoreSink := container.Silence()
		defer restoreSink()
		return f.Attr(name, metadataName, container.Int32, metadataSize+1, raw[:])
	}()

	for i := range tuple {
		tuple[i] = int32(raw[4*i]) | int32(raw[4*i+1])<<8 | int32(raw[4*i+2])<<16 | int32(raw[4*i+3])<<24
	}
	if tuple[metadataSize] != metadataSentinel {
		return nil, raise(ESANITY, "detected metadata buffer overflow")
	}
	if probeErr != nil {
		// A failed probe reads as "absent"; existence checks are the
		// probe's whole purpose.
		return nil, nil
	}
	if stored != metadataSize {
		return nil, raisef(ESANITY, "metadata holds %d values, expected %d", stored, metadataSize)
	}

	md := &fieldMetadata{
		layoutTag:   int(tuple[3]),
		c:           int(tuple[4]),
		b:           int(tuple[5]),
		a:           int(tuple[6]),
		ncomponents: int(tuple[7]),
	}
	if md.layoutTag < 0 || md.layoutTag >= LayoutCount() {
		return nil, raise(ESANITY, "metadata contains unknown layout tag")
	}
	return md, nil
}
