package s3

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	customErrors "github.com/strmhub/account-service/internal/domain/account/errors"
	"github.com/strmhub/account-service/internal/domain/account/model"
	"github.com/strmhub/account-service/internal/infra/config"
)

type S3MediaStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func New(ctx context.Context, cfg *config.Config) (*S3MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, customErrors.WrapInternal(err, "load s3 config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3MediaStore{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
	}, nil
}

// StorageKey spreads objects by upload date so buckets stay listable.
func StorageKey() string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *S3MediaStore) Upload(ctx context.Context, file model.FileUpload) (model.Media, error) {
	key := StorageKey()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          file.Reader,
		ContentLength: aws.Int64(file.Size),
		ContentType:   aws.String(file.ContentType),
	})
	if err != nil {
		return model.Media{}, customErrors.WrapInternal(err, "upload media")
	}

	return model.Media{
		URL: fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key),
		Key: key,
	}, nil
}

func (s *S3MediaStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return customErrors.WrapInternal(err, "delete media")
	}
	return nil
}
