// Package minio provides a blobstore.Bucket backed by MinIO or any
// S3-compatible object store.
//
// Object stores replace whole objects atomically, so Put maps to a single
// PutObject. Note that unlike the local bucket there is no advisory lock:
// two writers racing on the same prefix are last-writer-wins.
package minio

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/semdex/semdex/blobstore"
)

// Bucket implements blobstore.Bucket for MinIO and S3-compatible storage.
type Bucket struct {
	client *minio.Client
	bucket string
	prefix string
}

// Compile-time check.
var _ blobstore.Bucket = (*Bucket)(nil)

// NewBucket creates a new MinIO-backed bucket.
// rootPrefix is prepended to all blob names (e.g. "indexes/docs/").
func NewBucket(client *minio.Client, bucket, rootPrefix string) *Bucket {
	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (b *Bucket) key(name string) string {
	return path.Join(b.prefix, name)
}

// Open opens an existing blob for reading.
func (b *Bucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := b.key(name)

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	// GetObject is lazy; Stat forces the request so absence surfaces here.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return obj, nil
}

// Put replaces a blob with the bytes produced by write.
func (b *Bucket) Put(ctx context.Context, name string, write func(w io.Writer) error) error {
	key := b.key(name)

	pr, pw := io.Pipe()
	done := make(chan error, 1)

	// Upload in the background while write streams into the pipe.
	go func() {
		_, err := b.client.PutObject(ctx, b.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		done <- err
	}()

	writeErr := write(pw)
	_ = pw.CloseWithError(writeErr)
	uploadErr := <-done

	if writeErr != nil {
		return writeErr
	}
	return uploadErr
}
