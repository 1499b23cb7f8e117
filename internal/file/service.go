package file

import (
	"context"
	"errors"
	"fmt"
	"io"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/storage"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	recentLimit     = 3
)

type FileService struct {
	DB    *gorm.DB
	Store storage.Store
}

// ReadyFiles lists the owner's downloadable files, newest first.
func (fs *FileService) ReadyFiles(userID uint, page, limit int) ([]File, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	files := []File{}
	err := fs.DB.
		Where("user_id = ? AND status = ?", userID, StatusReady).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list ready files: %w", err)
	}
	return files, nil
}

func (fs *FileService) RecentFiles(userID uint, status string) ([]File, error) {
	q := fs.DB.Where("user_id = ?", userID)
	switch status {
	case "", "All":
	case StatusReady, StatusWaiting:
		q = q.Where("status = ?", status)
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown file status %q", status)
	}

	files := []File{}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(recentLimit).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list recent files: %w", err)
	}
	return files, nil
}

func (fs *FileService) CountFiles(userID uint) (FileCount, error) {
	var out FileCount
	err := fs.DB.Model(&File{}).
		Where("user_id = ?", userID).
		Select("COUNT(*) AS total_files, COALESCE(SUM(volume), 0) AS total_leads").
		Scan(&out).Error
	if err != nil {
		return FileCount{}, fmt.Errorf("count files: %w", err)
	}
	return out, nil
}

// OpenFile returns a reader over the stored extract. Files of other users
// are reported as missing.
func (fs *FileService) OpenFile(ctx context.Context, userID, fileID uint) (io.ReadCloser, *File, error) {
	var f File
	err := fs.DB.WithContext(ctx).Where("id = ? AND user_id = ?", fileID, userID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("file")
	}
	if err != nil {
		return nil, nil, err
	}
	if f.Status != StatusReady {
		return nil, nil, apperr.Validation("file is not ready for download")
	}

	rc, err := fs.Store.Open(ctx, f.Path)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, apperr.NotFound("file content")
	}
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindStorage, err, "failed to open file")
	}
	return rc, &f, nil
}
