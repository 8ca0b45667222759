// Package s3 provides a blobstore.Bucket backed by AWS S3.
//
// Object stores replace whole objects atomically, so Put maps to a single
// upload. Note that unlike the local bucket there is no advisory lock: two
// writers racing on the same prefix are last-writer-wins.
package s3

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/semdex/semdex/blobstore"
)

// Bucket implements blobstore.Bucket for AWS S3.
type Bucket struct {
	client *s3.Client
	bucket string
	prefix string
}

// Compile-time check.
var _ blobstore.Bucket = (*Bucket)(nil)

// NewBucket creates a new S3-backed bucket.
// rootPrefix is prepended to all blob names (e.g. "indexes/docs/").
func NewBucket(client *s3.Client, bucket, rootPrefix string) *Bucket {
	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// NewDefault creates a Bucket using the ambient AWS configuration
// (environment, shared config files, instance metadata).
func NewDefault(ctx context.Context, bucket, rootPrefix string) (*Bucket, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewBucket(s3.NewFromConfig(cfg), bucket, rootPrefix), nil
}

func (b *Bucket) key(name string) string {
	return path.Join(b.prefix, name)
}

// Open opens an existing blob for reading.
func (b *Bucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

// Put replaces a blob with the bytes produced by write.
//
// The upload streams through manager.Uploader, which handles multipart
// uploads for payloads above its part size.
func (b *Bucket) Put(ctx context.Context, name string, write func(w io.Writer) error) error {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	uploader := manager.NewUploader(b.client)

	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(b.key(name)),
			Body:   pr,
		})
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
