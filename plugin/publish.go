package plugin

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// objectPutter is the part of the S3 client used to publish reports.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads CTRF reports to an S3-compatible bucket.
type S3Publisher struct {
	client objectPutter
	bucket string
}

// NewS3Publisher returns a publisher for the given bucket.
func NewS3Publisher(cfg aws.Config, bucket string) *S3Publisher {
	return &S3Publisher{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}
}

// newS3Publisher builds an S3 publisher from the default AWS credential chain.
func newS3Publisher(ctx context.Context, args Args) (*S3Publisher, error) {
	var opts []func(*config.LoadOptions) error
	if args.S3Region != "" {
		opts = append(opts, config.WithRegion(args.S3Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	return NewS3Publisher(cfg, args.S3Bucket), nil
}

// Publish uploads the encoded report under key.
func (p *S3Publisher) Publish(ctx context.Context, key string, data []byte) error {
	size := int64(len(data))
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		ACL:           types.ObjectCannedACLPrivate,
		Body:          bytes.NewReader(data),
		ContentLength: &size,
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upload CTRF report to s3://%s/%s", p.bucket, key)
	}
	logrus.WithFields(logrus.Fields{
		"Bucket": p.bucket,
		"Key":    key,
	}).Info("Uploaded CTRF report")
	return nil
}

// objectKey returns the configured key, or the report's file name.
func objectKey(key, outputPath string) string {
	if key != "" {
		return key
	}
	return filepath.Base(outputPath)
}
