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
	"github.com/prismateams/mailroom/internal/utils"
)

type emailRepository struct {
	session *database.Session
}

func NewEmailRepository(session *database.Session) interfaces.EmailRepository {
	return &emailRepository{session: session}
}

func (r *emailRepository) GetByID(ctx context.Context, id string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var email models.Email
	result := r.session.DB().WithContext(ctx).
		Preload("Attachments").
		Where("id = ?", id).
		First(&email)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get email: %w", result.Error)
	}
	return &email, nil
}

func (r *emailRepository) GetByFolderAndUID(ctx context.Context, folder string, uid uint32) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetByFolderAndUID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, folder)

	var email models.Email
	result := r.session.DB().WithContext(ctx).
		Where("folder = ? AND imap_uid = ?", folder, uid).
		First(&email)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get email by folder and uid: %w", result.Error)
	}
	return &email, nil
}

func (r *emailRepository) GetByMessageIDInOtherFolder(ctx context.Context, messageID, excludeFolder string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetByMessageIDInOtherFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var email models.Email
	result := r.session.DB().WithContext(ctx).
		Where("message_id = ? AND folder <> ?", messageID, excludeFolder).
		First(&email)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get email by message id: %w", result.Error)
	}
	return &email, nil
}

func (r *emailRepository) GetAllByFolder(ctx context.Context, folder string) ([]models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetAllByFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, folder)

	var emails []models.Email
	if err := r.session.DB().WithContext(ctx).
		Where("folder = ?", folder).
		Order("imap_uid asc").
		Find(&emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get emails by folder: %w", err)
	}
	return emails, nil
}

func (r *emailRepository) CountByFolder(ctx context.Context, folder string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.CountByFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, folder)

	var count int64
	if err := r.session.DB().WithContext(ctx).
		Model(&models.Email{}).
		Where("folder = ?", folder).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return 0, fmt.Errorf("failed to count emails by folder: %w", err)
	}
	return count, nil
}

func (r *emailRepository) ListByFolder(ctx context.Context, folder string, limit, offset int) ([]models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.ListByFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, folder)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var emails []models.Email
	if err := r.session.DB().WithContext(ctx).
		Where("folder = ? AND deleted_on_server = ?", folder, false).
		Order("received_at desc NULLS LAST").
		Limit(limit).
		Offset(offset).
		Find(&emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, nil
}

func (r *emailRepository) Create(ctx context.Context, email *models.Email) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, email.Folder)

	if err := r.session.DB().WithContext(ctx).Create(email).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to create email: %w", err)
	}
	return nil
}

func (r *emailRepository) Update(ctx context.Context, email *models.Email) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, email.Folder)

	email.UpdatedAt = utils.Now()
	if err := r.session.DB().WithContext(ctx).Save(email).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to update email: %w", err)
	}
	return nil
}

func (r *emailRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.session.DB().WithContext(ctx).Where("id = ?", id).Delete(&models.Email{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to delete email: %w", err)
	}
	return nil
}

func (r *emailRepository) MarkSynced(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.MarkSynced")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	now := utils.Now()
	result := r.session.DB().WithContext(ctx).
		Model(&models.Email{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_synced_at":    now,
			"deleted_on_server": false,
			"updated_at":        now,
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to mark email synced: %w", result.Error)
	}
	return nil
}
