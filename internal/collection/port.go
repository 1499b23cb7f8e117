package collection

import (
	"context"
	"mime/multipart"
)

type CollectionServiceAPI interface {
	CreateCollection(ctx context.Context, in CollectionInput, image *multipart.FileHeader) (*Collection, error)
	UpdateCollection(ctx context.Context, id uint, in CollectionInput, image *multipart.FileHeader) (*Collection, error)
	UpdateFields(id uint, in FieldsInput) (*Collection, error)
	GetCollection(id uint) (*Collection, error)
	ListCollections(page, limit int) (*CollectionPage, error)
	FeaturedCollections() ([]Collection, error)
	MatchingCollections(typ string, countries []string) ([]Collection, error)
	DeleteCollection(ctx context.Context, id uint) error
}
