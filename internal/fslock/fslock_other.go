//go:build !unix

package fslock

// Lock is a no-op on platforms without flock. Concurrent writers on such
// platforms are last-writer-wins, the same as on remote buckets.
type Lock struct{}

// Acquire returns a no-op lock.
func Acquire(path string) (*Lock, error) {
	return &Lock{}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return nil
}
