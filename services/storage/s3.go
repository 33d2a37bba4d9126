package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/tracing"
)

// s3Storage spools large attachment payloads to an S3 bucket. The recorded
// storage path is the object key.
type s3Storage struct {
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	bucket     string
}

func NewS3Storage(region, accessKeyID, accessKeySecret, bucket string) (interfaces.BlobStorage, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKeyID, accessKeySecret, ""),
	}
	sess := session.Must(session.NewSession(awsCfg))

	return &s3Storage{
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
		bucket:     bucket,
	}, nil
}

func (s *s3Storage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "s3Storage.Put")
	defer span.Finish()
	tracing.TagComponentService(span)

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to upload attachment")
	}
	return key, nil
}

func (s *s3Storage) Get(ctx context.Context, path string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "s3Storage.Get")
	defer span.Finish()
	tracing.TagComponentService(span)

	buffer := &aws.WriteAtBuffer{}
	_, err := s.downloader.DownloadWithContext(ctx, buffer, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to download attachment")
	}
	return buffer.Bytes(), nil
}
