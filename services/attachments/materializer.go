package attachments

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/models"
	"github.com/prismateams/mailroom/internal/tracing"
	"github.com/prismateams/mailroom/internal/utils"
)

// InlineThreshold is the largest payload stored directly in the attachment
// row. Anything bigger goes to blob storage.
const InlineThreshold = 1 << 20

type Materializer struct {
	storage interfaces.BlobStorage
}

func NewMaterializer(storage interfaces.BlobStorage) *Materializer {
	return &Materializer{storage: storage}
}

// Materialize builds an attachment row for a payload. Payloads at or below
// the threshold are inlined; larger ones are written to blob storage under a
// unique key and only the path is recorded.
func (m *Materializer) Materialize(ctx context.Context, emailID, filename, contentType string, content []byte) (*models.EmailAttachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Materializer.Materialize")
	defer span.Finish()
	tracing.TagComponentService(span)

	attachment := &models.EmailAttachment{
		EmailID:     emailID,
		Filename:    utils.SanitizeFilename(utils.DecodeHeader(filename)),
		ContentType: contentType,
		Size:        len(content),
	}

	if len(content) <= InlineThreshold {
		attachment.Content = content
		return attachment, nil
	}

	key := utils.UniqueFilename(utils.DecodeHeader(filename))
	path, err := m.storage.Put(ctx, key, content, contentType)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	attachment.StoragePath = path
	attachment.IsLargeFile = true
	return attachment, nil
}

// Load returns the payload for an attachment row regardless of where it is
// stored.
func (m *Materializer) Load(ctx context.Context, attachment *models.EmailAttachment) ([]byte, error) {
	if !attachment.IsLargeFile {
		return attachment.Content, nil
	}
	return m.storage.Get(ctx, attachment.StoragePath)
}
