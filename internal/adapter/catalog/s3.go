package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// objectGetter is the part of the S3 client the source uses.
type objectGetter interface {
	GetObjectWithContext(ctx context.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// S3Source reads the catalog from an S3 (or S3-compatible) object.
type S3Source struct {
	logger *slog.Logger
	client objectGetter
	bucket string
	key    string
}

// NewS3Source creates an S3 source for bucket/key.
func NewS3Source(logger *slog.Logger, bucket, key string, cfg S3Config) (*S3Source, error) {
	awsConfig := &aws.Config{}
	if cfg.Region != "" {
		awsConfig.Region = aws.String(cfg.Region)
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}
	return newS3Source(logger, s3.New(sess), bucket, key), nil
}

func newS3Source(logger *slog.Logger, client objectGetter, bucket, key string) *S3Source {
	return &S3Source{
		logger: logger.With(slog.String("component", "catalog-s3")),
		client: client,
		bucket: bucket,
		key:    key,
	}
}

// Open implements ports.CatalogSource.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, domain.NewNetworkError("catalog", s.Location(), err)
	}
	s.logger.Debug("catalog object opened", slog.Int64("size", aws.Int64Value(out.ContentLength)))
	return out.Body, nil
}

// Location implements ports.CatalogSource.
func (s *S3Source) Location() string {
	return "s3://" + s.bucket + "/" + s.key
}

var _ ports.CatalogSource = (*S3Source)(nil)
