package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"spacetraveling/internal/config"
)

// NewS3Client builds an S3 client from cfg. A custom endpoint switches to
// path-style addressing for MinIO.
func NewS3Client(cfg config.S3Config) (*s3.S3, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(cfg.DisableSSL)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return s3.New(sess), nil
}

// S3Sink uploads files to a bucket, below an optional key prefix.
type S3Sink struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Sink creates a sink uploading to bucket.
func NewS3Sink(client s3iface.S3API, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Sink) Write(ctx context.Context, name, contentType string, body []byte) error {
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
