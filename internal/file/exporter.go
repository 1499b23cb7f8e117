package file

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/csvio"
	"hexapink-api/internal/metrics"
	"hexapink-api/internal/storage"
	"hexapink-api/internal/util"

	"golang.org/x/sync/errgroup"
)

// ExportError reports a batch export that failed after some files were
// already written. Exported lists those paths in input order.
type ExportError struct {
	Exported []string
	Err      error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed after %d file(s) written: %v", len(e.Exported), e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exporter writes order row data as comma separated UTF-8 files.
type Exporter struct {
	Store storage.Store
	Dir   string
}

func NewExporter(store storage.Store) *Exporter {
	return &Exporter{Store: store, Dir: ExportDir}
}

// ExportPath is the destination for a title inside batch. A batch is the
// directory one order writes into, so equal titles from different orders
// never share a file.
func (e *Exporter) ExportPath(batch, title string) string {
	return path.Join(e.Dir, batch, util.SanitizeName(title)+".csv")
}

// BatchDir names the export directory of an order placed by userID at t.
func BatchDir(userID uint, t time.Time) string {
	return fmt.Sprintf("%d/%d", userID, t.UnixNano())
}

// Export writes rows to a new file. It never replaces an existing one, and on
// failure only the file it created itself is removed.
func (e *Exporter) Export(ctx context.Context, batch, title string, rows []csvio.Record) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", apperr.Validation("file title is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := e.ExportPath(batch, title)
	w, err := e.Store.Create(ctx, p)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, storage.ErrExist) {
			return "", apperr.Wrap(apperr.KindStorage, err, "export file already exists")
		}
		return "", apperr.Wrap(apperr.KindStorage, err, "failed to create export file")
	}
	if err := csvio.NewWriter(w, ',').WriteAll(rows); err != nil {
		_ = w.Close()
		_ = e.Store.Remove(context.Background(), p)
		metrics.ExportsTotal.WithLabelValues("failed").Inc()
		return "", apperr.Wrap(apperr.KindStorage, err, "failed to write export file")
	}
	if err := w.Close(); err != nil {
		_ = e.Store.Remove(context.Background(), p)
		metrics.ExportsTotal.WithLabelValues("failed").Inc()
		return "", apperr.Wrap(apperr.KindStorage, err, "failed to write export file")
	}

	metrics.ExportsTotal.WithLabelValues("written").Inc()
	return p, nil
}

// ExportAll exports every item concurrently. The returned paths are aligned
// with items. Titles that sanitise to the same path are rejected before
// anything is written.
func (e *Exporter) ExportAll(ctx context.Context, batch string, items []ExportItem) ([]string, error) {
	seen := make(map[string]string, len(items))
	for _, it := range items {
		p := e.ExportPath(batch, it.Title)
		if prev, ok := seen[p]; ok {
			return nil, apperr.Newf(apperr.KindValidation, "file titles %q and %q map to the same export path", prev, it.Title)
		}
		seen[p] = it.Title
	}

	paths := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			p, err := e.Export(gctx, batch, it.Title, it.Rows)
			if err != nil {
				return fmt.Errorf("export %q: %w", it.Title, err)
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var done []string
		for _, p := range paths {
			if p != "" {
				done = append(done, p)
			}
		}
		return nil, &ExportError{Exported: done, Err: err}
	}
	return paths, nil
}

// RemoveAll deletes exported files, ignoring individual failures.
func (e *Exporter) RemoveAll(paths []string) {
	for _, p := range paths {
		if p != "" {
			_ = e.Store.Remove(context.Background(), p)
		}
	}
}
