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

type folderRepository struct {
	session *database.Session
}

func NewFolderRepository(session *database.Session) interfaces.FolderRepository {
	return &folderRepository{session: session}
}

func (r *folderRepository) GetAll(ctx context.Context) ([]models.Folder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.GetAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var folders []models.Folder
	if err := r.session.DB().WithContext(ctx).Order("name asc").Find(&folders).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get folders: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) GetByName(ctx context.Context, name string) (*models.Folder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.GetByName")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, name)

	var folder models.Folder
	result := r.session.DB().WithContext(ctx).Where("name = ?", name).First(&folder)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get folder: %w", result.Error)
	}
	return &folder, nil
}

func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, folder.Name)

	if err := r.session.DB().WithContext(ctx).Create(folder).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (r *folderRepository) Update(ctx context.Context, folder *models.Folder) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFolder(span, folder.Name)

	folder.UpdatedAt = utils.Now()
	if err := r.session.DB().WithContext(ctx).Save(folder).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to update folder: %w", err)
	}
	return nil
}

func (r *folderRepository) DeleteByNames(ctx context.Context, names []string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.DeleteByNames")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if len(names) == 0 {
		return 0, nil
	}

	result := r.session.DB().WithContext(ctx).Where("name IN ?", names).Delete(&models.Folder{})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, fmt.Errorf("failed to delete folders: %w", result.Error)
	}
	return result.RowsAffected, nil
}
