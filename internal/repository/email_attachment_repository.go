package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/database"
	"github.com/prismateams/mailroom/internal/models"
	"github.com/prismateams/mailroom/internal/tracing"
)

type emailAttachmentRepository struct {
	session *database.Session
}

func NewEmailAttachmentRepository(session *database.Session) interfaces.EmailAttachmentRepository {
	return &emailAttachmentRepository{session: session}
}

func (r *emailAttachmentRepository) Create(ctx context.Context, attachment *models.EmailAttachment) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailAttachmentRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.session.DB().WithContext(ctx).Create(attachment).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

func (r *emailAttachmentRepository) GetByID(ctx context.Context, id string) (*models.EmailAttachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailAttachmentRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var attachment models.EmailAttachment
	result := r.session.DB().WithContext(ctx).Where("id = ?", id).First(&attachment)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get attachment: %w", result.Error)
	}
	return &attachment, nil
}

func (r *emailAttachmentRepository) GetByEmailID(ctx context.Context, emailID string) ([]models.EmailAttachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailAttachmentRepository.GetByEmailID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var attachments []models.EmailAttachment
	if err := r.session.DB().WithContext(ctx).
		Where("email_id = ?", emailID).
		Order("created_at asc").
		Find(&attachments).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}
	return attachments, nil
}
