//go:build unix

package fslock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	l, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())

	// Reacquirable after release.
	l, err = Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())

	// Release is idempotent.
	assert.NoError(t, l.Release())
}
