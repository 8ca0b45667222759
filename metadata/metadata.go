// Package metadata stores the text payloads positionally aligned to index
// vectors: the text at position i belongs to the vector at position i. The
// list is append-only; there are no keys and no deletes.
package metadata

import (
	"errors"
	"fmt"
	"io"

	"github.com/semdex/semdex/codec"
)

// ErrCorrupt is returned when a metadata payload is present but unparsable.
//
// Callers are expected to recover by substituting an empty list: ingestion
// re-derives metadata from its input, so availability beats failing the load.
var ErrCorrupt = errors.New("corrupt metadata payload")

// List is an ordered, append-only sequence of text entries.
type List struct {
	entries []string
}

// New creates an empty list.
func New() *List {
	return &List{}
}

// FromSlice creates a list holding a copy of entries.
func FromSlice(entries []string) *List {
	l := &List{entries: make([]string, len(entries))}
	copy(l.entries, entries)
	return l
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Append adds texts to the end of the list in argument order.
func (l *List) Append(texts ...string) {
	l.entries = append(l.entries, texts...)
}

// Get returns the entry at position i, or false if i is out of range.
func (l *List) Get(i int) (string, bool) {
	if i < 0 || i >= len(l.entries) {
		return "", false
	}
	return l.entries[i], true
}

// Slice returns a copy of all entries in order.
func (l *List) Slice() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Encode writes the list to w using c (codec.Default if nil).
func (l *List) Encode(w io.Writer, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(l.entries)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a list from r using c (codec.Default if nil).
//
// A read failure is returned as-is (storage problem). A payload that reads
// fine but fails to parse is reported as ErrCorrupt so callers can
// distinguish recoverable corruption from I/O errors.
func Decode(r io.Reader, c codec.Codec) (*List, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var entries []string
	if err := c.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &List{entries: entries}, nil
}
