package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ErrArchiveDisabled is returned when no archive destination is configured.
var ErrArchiveDisabled = errors.New("export archiving is disabled")

// Archiver stores a finished export and returns its location.
type Archiver interface {
	Archive(ctx context.Context, name string, body []byte) (string, error)
}

// objectPutter is the subset of the S3 client used by the archiver.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Archiver implements Archiver by uploading exports to an S3 bucket.
type s3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Archiver creates an archiver writing to bucket under prefix.
func NewS3Archiver(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Archiver, error) {
	logger = logger.With().Str("component", "s3-archiver").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 archiver initialised")

	return newS3Archiver(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3Archiver(client objectPutter, bucket, prefix string, logger zerolog.Logger) *s3Archiver {
	return &s3Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Archive uploads body as prefix+name and returns the s3:// URI.
func (a *s3Archiver) Archive(ctx context.Context, name string, body []byte) (string, error) {
	key := a.prefix + name

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("bucket", a.bucket).
			Str("key", key).
			Msg("failed to upload export to S3")
		return "", fmt.Errorf("failed to upload export (bucket=%s, key=%s): %w", a.bucket, key, err)
	}

	a.logger.Info().
		Str("bucket", a.bucket).
		Str("key", key).
		Int("bytes", len(body)).
		Msg("export archived")

	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}

// nopArchiver is used when S3 is disabled.
type nopArchiver struct{}

// NewNopArchiver returns an Archiver that always reports ErrArchiveDisabled.
func NewNopArchiver() Archiver {
	return nopArchiver{}
}

func (nopArchiver) Archive(context.Context, string, []byte) (string, error) {
	return "", ErrArchiveDisabled
}
