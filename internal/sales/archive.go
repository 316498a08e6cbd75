package sales

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Archiver stores rendered receipts.
type Archiver interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}

// S3Archiver uploads receipts to a bucket.
type S3Archiver struct {
	Uploader *s3manager.Uploader
	Bucket   string
	Prefix   string
}

// NewS3Archiver builds an archiver using the default AWS credential chain.
func NewS3Archiver(region, bucket, prefix string) (*S3Archiver, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3Archiver{Uploader: s3manager.NewUploader(sess), Bucket: bucket, Prefix: prefix}, nil
}

// Put uploads body under Prefix/key and returns the object location.
func (a *S3Archiver) Put(ctx context.Context, key string, body []byte) (string, error) {
	objectKey := path.Join(strings.Trim(a.Prefix, "/"), key)
	out, err := a.Uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	return out.Location, nil
}
