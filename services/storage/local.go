package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/tracing"
)

// localStorage writes payloads under a dedicated attachments directory on
// the local filesystem.
type localStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (interfaces.BlobStorage, error) {
	if baseDir == "" {
		return nil, errors.New("attachments directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create attachments directory")
	}
	return &localStorage{baseDir: baseDir}, nil
}

func (s *localStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "localStorage.Put")
	defer span.Finish()
	tracing.TagComponentService(span)

	path := filepath.Join(s.baseDir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to write attachment")
	}
	return path, nil
}

func (s *localStorage) Get(ctx context.Context, path string) ([]byte, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "localStorage.Get")
	defer span.Finish()
	tracing.TagComponentService(span)

	data, err := os.ReadFile(path)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read attachment")
	}
	return data, nil
}
