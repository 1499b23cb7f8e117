package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStore maps store paths to object names in one bucket.
type GCSStore struct {
	Client *storage.Client
	Bucket string
}

// NewGCSStore uses application default credentials unless credentialsFile is set.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{Client: client, Bucket: bucket}, nil
}

func (s *GCSStore) Close() error { return s.Client.Close() }

func (s *GCSStore) object(p string) (*storage.ObjectHandle, string, error) {
	c, err := CleanPath(p)
	if err != nil {
		return nil, "", err
	}
	return s.Client.Bucket(s.Bucket).Object(c), c, nil
}

func (s *GCSStore) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	p := path.Join(dir, name)
	obj, c, err := s.object(p)
	if err != nil {
		return "", err
	}
	w := newObjectWriter(ctx, obj, c)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", c, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", c, err)
	}
	return c, nil
}

// objectWriter only creates objects that do not exist yet. The precondition
// is checked by the server when the upload is finalised in Close.
type objectWriter struct {
	*storage.Writer
	name string
}

func newObjectWriter(ctx context.Context, obj *storage.ObjectHandle, name string) *objectWriter {
	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	return &objectWriter{Writer: w, name: name}
}

func (w *objectWriter) Close() error {
	err := w.Writer.Close()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("create %s: %w", w.name, ErrExist)
	}
	return err
}

func (s *GCSStore) Create(ctx context.Context, p string) (io.WriteCloser, error) {
	obj, c, err := s.object(p)
	if err != nil {
		return nil, err
	}
	w := newObjectWriter(ctx, obj, c)
	w.ContentType = "text/csv"
	return w, nil
}

func (s *GCSStore) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	obj, c, err := s.object(p)
	if err != nil {
		return nil, err
	}
	r, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("open %s: %w", c, ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c, err)
	}
	return r, nil
}

func (s *GCSStore) Remove(ctx context.Context, p string) error {
	obj, c, err := s.object(p)
	if err != nil {
		return err
	}
	err = obj.Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("remove %s: %w", c, ErrNotExist)
	}
	return err
}
