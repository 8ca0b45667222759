package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	_, ok = ByName("protobuf")
	assert.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	in := []string{"a", "b", "emoji ☃", `quotes "and" commas,`}

	data, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out []string
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
