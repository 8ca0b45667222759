package blobstore

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
)

// Local implements Bucket using a directory on the local file system.
//
// Puts are atomic: the payload is written to a temp file in the same
// directory and renamed over the target, then the directory is fsynced.
type Local struct {
	root string
}

// NewLocal creates a Local bucket rooted at the given directory,
// creating it if necessary.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &Local{root: root}, nil
}

// Root returns the bucket's root directory.
func (l *Local) Root() string {
	return l.root
}

// Path returns the file path a blob name maps to.
func (l *Local) Path(name string) string {
	return filepath.Join(l.root, name)
}

// Open opens a blob for reading.
func (l *Local) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(l.Path(name))
}

// Put atomically replaces a blob.
func (l *Local) Put(ctx context.Context, name string, write func(w io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.root, name+".tmp-*")
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
	if err := write(buf); err != nil {
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

	if err := os.Rename(tmpName, l.Path(name)); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(l.root); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}
