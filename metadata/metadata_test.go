package metadata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAppendAndGet(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Len())

	l.Append("a", "b")
	l.Append("c")
	require.Equal(t, 3, l.Len())

	text, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, "b", text)

	_, ok = l.Get(3)
	assert.False(t, ok)
	_, ok = l.Get(-1)
	assert.False(t, ok)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []string{"first", "second", "unicode éè☃", "line\nbreaks\tand \"quotes\""}
	l := FromSlice(in)

	var buf bytes.Buffer
	require.NoError(t, l.Encode(&buf, nil))

	decoded, err := Decode(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, in, decoded.Slice())
}

func TestDecodeCorrupt(t *testing.T) {
	for _, payload := range []string{"", "{not json", `{"a":1}`} {
		_, err := Decode(strings.NewReader(payload), nil)
		assert.ErrorIs(t, err, ErrCorrupt, "payload %q", payload)
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	l, err := Decode(strings.NewReader("[]"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestFromSliceCopies(t *testing.T) {
	src := []string{"a"}
	l := FromSlice(src)
	src[0] = "mutated"

	text, ok := l.Get(0)
	require.True(t, ok)
	assert.Equal(t, "a", text)
}
