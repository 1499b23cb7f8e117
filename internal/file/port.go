package file

import (
	"context"
	"io"
)

type FileServiceAPI interface {
	ReadyFiles(userID uint, page, limit int) ([]File, error)
	RecentFiles(userID uint, status string) ([]File, error)
	CountFiles(userID uint) (FileCount, error)
	OpenFile(ctx context.Context, userID, fileID uint) (io.ReadCloser, *File, error)
}
