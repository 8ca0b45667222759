// Package persistence provides binary serialization for index artifacts:
// a versioned header, little-endian sections, and CRC32 integrity.
package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"unsafe"
)

// An Encoder writes artifact sections to w, little-endian, keeping a running
// CRC32 over everything written. Finish with Checksum to append the sum.
type Encoder struct {
	w   io.Writer
	crc hash.Hash32
	n   int64
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, crc: crc32.NewIEEE()}
}

func (e *Encoder) write(p []byte) error {
	_, _ = e.crc.Write(p)
	n, err := e.w.Write(p)
	e.n += int64(n)
	return err
}

// Size returns the number of bytes written so far.
func (e *Encoder) Size() int64 {
	return e.n
}

// Header writes the artifact header, stamping magic and version.
func (e *Encoder) Header(h *FileHeader) error {
	h.Magic = MagicNumber
	h.Version = Version

	var buf [FileHeaderSize]byte
	if _, err := binary.Encode(buf[:], binary.LittleEndian, h); err != nil {
		return err
	}
	return e.write(buf[:])
}

// Uint32 writes a single little-endian uint32 section.
func (e *Encoder) Uint32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return e.write(buf[:])
}

// Float32s writes a float32 slice as raw little-endian bytes.
func (e *Encoder) Float32s(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	return e.write(unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4))
}

// Checksum appends the running CRC32 as the final section. The sum covers
// everything written before it and is not hashed itself.
func (e *Encoder) Checksum() error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], e.crc.Sum32())
	n, err := e.w.Write(buf[:])
	e.n += int64(n)
	return err
}

// A Decoder reads artifact sections written by an Encoder, recomputing the
// CRC32 as it goes. Finish with VerifyChecksum.
type Decoder struct {
	r   io.Reader
	crc hash.Hash32
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, crc: crc32.NewIEEE()}
}

func (d *Decoder) read(p []byte) error {
	if _, err := io.ReadFull(d.r, p); err != nil {
		return err
	}
	_, _ = d.crc.Write(p)
	return nil
}

// Header reads and validates the artifact header.
func (d *Decoder) Header() (*FileHeader, error) {
	var buf [FileHeaderSize]byte
	if err := d.read(buf[:]); err != nil {
		return nil, err
	}

	var h FileHeader
	if _, err := binary.Decode(buf[:], binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	}
	return &h, nil
}

// Uint32 reads a single little-endian uint32 section.
func (d *Decoder) Uint32() (uint32, error) {
	var buf [4]byte
	if err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Float32sInto reads exactly len(vec) float32 values into vec.
func (d *Decoder) Float32sInto(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	return d.read(unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4))
}

// VerifyChecksum reads the trailing CRC32 and compares it against the sum of
// everything decoded before it.
func (d *Decoder) VerifyChecksum() error {
	expected := d.crc.Sum32()

	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return fmt.Errorf("failed to read checksum: %w", err)
	}
	stored := binary.LittleEndian.Uint32(buf[:])

	if stored != expected {
		return &ChecksumMismatchError{Expected: stored, Actual: expected}
	}
	return nil
}

// ChecksumMismatchError is returned when an artifact's stored CRC32 does not
// match its content. CRC32 catches accidental storage corruption only; it is
// no defense against tampering.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// SaveToFile writes a file atomically: the payload goes to a temp file in the
// same directory, which is then renamed over the target.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}

// LoadFromFile opens a file and hands a buffered reader to readFunc.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewReaderSize(f, 256*1024)
	return readFunc(buf)
}
