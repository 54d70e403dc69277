package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store is an S3-object-per-key Store, grounded on the teacher's own
// cloud-provider backend plumbing (ais/backend/common.go) which
// likewise selects and wraps a cloud SDK client behind the cluster's
// internal backend interface.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive: loading AWS config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

// NewS3StoreWithStaticCredentials bypasses the default credential chain
// (env/shared-config/IMDS) in favor of explicit access/secret keys, for
// deployments where the engine runs outside any AWS-managed environment.
func NewS3StoreWithStaticCredentials(ctx context.Context, bucket, prefix, accessKey, secretKey string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("archive: loading AWS config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Put(key string, b []byte) error {
	ctx := context.Background()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    strPtr(s.objectKey(key)),
		Body:   bytes.NewReader(b),
	})
	return err
}

func (s *S3Store) Get(key string) ([]byte, bool, error) {
	ctx := context.Background()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    strPtr(s.objectKey(key)),
	})
	if err != nil {
		var nske *types.NoSuchKey
		if errors.As(err, &nske) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *S3Store) Delete(key string) error {
	ctx := context.Background()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    strPtr(s.objectKey(key)),
	})
	return err
}

func (s *S3Store) Close() error { return nil }

func strPtr(s string) *string { return &s }
