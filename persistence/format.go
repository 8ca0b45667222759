package persistence

import "errors"

const (
	// MagicNumber identifies semdex binary artifacts (ASCII: "SDX0").
	MagicNumber = 0x53445830
	// Version is the current artifact format version (v1.0.0).
	Version = 0x00010000

	// IndexTypeFlat marks a flat (brute-force) index payload.
	IndexTypeFlat = 1

	// FileHeaderSize is the encoded size of FileHeader in bytes.
	FileHeaderSize = 64
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidIndex   = errors.New("invalid index type")
)

// FileHeader is the fixed 64-byte header at the start of every index
// artifact. The reserved tail leaves room for format growth without a
// version bump.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	IndexType   uint8
	Padding1    [3]byte
	VectorCount uint64
	Dimension   uint32
	Padding2    [4]byte
	Reserved    [36]byte
}
