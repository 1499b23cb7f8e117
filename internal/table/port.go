package table

import (
	"context"
	"mime/multipart"

	"hexapink-api/internal/csvio"
	"hexapink-api/internal/tag"
)

type TableServiceAPI interface {
	CreateTable(ctx context.Context, ownerID uint, in CreateTableInput, upload *multipart.FileHeader) (*Table, error)
	ListTables(filter TableFilter) (*TablePage, error)
	AllTables() ([]Table, error)
	FetchTableRows(ctx context.Context, ids []uint) ([]TableRows, error)
	ReadFile(ctx context.Context, path, delimiter string) ([]csvio.Record, error)
	RenameTable(id uint, name string) (*Table, error)
	DeleteTable(ctx context.Context, id uint) error
	AddTag(id uint, name string) (*Table, error)
	RenameTag(id uint, oldName, newName string) (*Table, error)
	RemoveTag(id uint, name string) (*Table, error)
	SumLeads(ids []uint) (int64, error)
}

// TagReconciler keeps the global tag catalog in step with table tags.
type TagReconciler interface {
	Reconcile(names []string) ([]tag.Tag, error)
	Ensure(name string) error
}
