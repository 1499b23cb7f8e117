package table

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/csvio"
	"hexapink-api/internal/metrics"
	"hexapink-api/internal/storage"
	"hexapink-api/internal/tag"
	"hexapink-api/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPageSize = 5

var errStoredFileUnavailable = errors.New("stored file is missing or unreadable")

type TableService struct {
	DB     *gorm.DB
	Store  storage.Store
	Tags   TagReconciler
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *TableService) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *TableService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.Validation("table name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperr.Newf(apperr.KindValidation, "table name exceeds %d characters", MaxNameLength)
	}
	return name, nil
}

// CreateTable ingests an uploaded file. Nothing is persisted unless every
// step succeeds; the stored upload is removed again on failure.
func (s *TableService) CreateTable(ctx context.Context, ownerID uint, in CreateTableInput, upload *multipart.FileHeader) (_ *Table, err error) {
	defer func() {
		if err != nil {
			metrics.IngestFailures.WithLabelValues(string(apperr.KindOf(err))).Inc()
		}
	}()

	delim, err := csvio.ParseDelimiter(in.Delimiter)
	if err != nil {
		return nil, err
	}
	sep, _ := csvio.ResolveDelimiter(delim)

	name, err := validateName(in.TableName)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, apperr.Validation("file is required")
	}
	// the table keeps its list as sent; only the catalog is deduplicated
	tags, err := tag.Clean(in.Tags)
	if err != nil {
		return nil, err
	}

	if s.Tags != nil {
		if _, err := s.Tags.Reconcile(tags); err != nil {
			return nil, err
		}
	}

	stored, enc, err := s.storeUpload(ctx, upload, sep)
	if err != nil {
		return nil, err
	}
	keep := false
	defer func() {
		if !keep {
			s.removeQuietly(stored)
		}
	}()

	parsed, err := s.parseStored(ctx, stored, enc, sep, true)
	if err != nil {
		return nil, err
	}
	schema, err := csvio.InferSchema(parsed.header, parsed.records)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := &Table{
		UserID:      ownerID,
		Name:        name,
		Columns:     schema.Columns,
		ColumnCount: len(schema.Columns),
		Leads:       schema.Leads,
		Tags:        tags,
		File:        stored,
		Delimiter:   string(delim),
		Encoding:    string(parsed.encoding),
	}
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	keep = true

	metrics.TablesIngested.Inc()
	metrics.LeadsIngested.Add(float64(schema.Leads))
	s.log().Info("table ingested",
		zap.Uint("table_id", t.ID),
		zap.Uint("user_id", ownerID),
		zap.Int("leads", schema.Leads),
		zap.Int("columns", len(schema.Columns)),
	)
	return t, nil
}

// storeUpload writes the raw upload and returns its path and the encoding it
// must be decoded with. Workbooks are stored as converted UTF-8 text.
func (s *TableService) storeUpload(ctx context.Context, upload *multipart.FileHeader, sep rune) (string, csvio.Encoding, error) {
	src, err := upload.Open()
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindValidation, err, "cannot read uploaded file")
	}
	defer src.Close()

	name := util.TimestampedName(s.now(), upload.Filename)
	if !csvio.IsWorkbook(upload.Filename) {
		p, err := s.Store.Save(ctx, TablesDir, name, src)
		if err != nil {
			return "", "", apperr.Wrap(apperr.KindStorage, err, "failed to store upload")
		}
		return p, csvio.EncodingWindows1252, nil
	}

	p := path.Join(TablesDir, strings.TrimSuffix(name, path.Ext(name))+".csv")
	w, err := s.Store.Create(ctx, p)
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindStorage, err, "failed to store upload")
	}
	if err := csvio.ConvertWorkbook(src, w, sep); err != nil {
		_ = w.Close()
		s.removeQuietly(p)
		return "", "", err
	}
	if err := w.Close(); err != nil {
		s.removeQuietly(p)
		return "", "", apperr.Wrap(apperr.KindStorage, err, "failed to store upload")
	}
	return p, csvio.EncodingUTF8, nil
}

type parsedFile struct {
	header   []string
	records  []csvio.Record
	encoding csvio.Encoding
}

// parseStored re-opens a stored file and parses it completely. A leading
// byte-order mark is dropped; on a fresh upload it also marks the file as
// UTF-8 whatever encoding was assumed.
func (s *TableService) parseStored(ctx context.Context, p string, enc csvio.Encoding, sep rune, sniff bool) (*parsedFile, error) {
	rc, err := s.Store.Open(ctx, p)
	if err != nil {
		s.log().Warn("stored table file unavailable", zap.String("path", p), zap.Error(err))
		return nil, &csvio.ParseError{Err: errStoredFileUnavailable}
	}
	defer rc.Close()

	body, hadBOM := csvio.SkipBOM(rc)
	if hadBOM && sniff {
		enc = csvio.EncodingUTF8
	}
	text, err := csvio.Decode(body, enc)
	if err != nil {
		return nil, err
	}

	r := csvio.NewReader(text, sep)
	records, err := r.ReadAll(ctx)
	if err != nil {
		s.logReadCause(p, err)
		return nil, err
	}
	header, err := r.Header()
	if err != nil {
		return nil, err
	}
	return &parsedFile{header: header, records: records, encoding: enc}, nil
}

// logReadCause records the I/O error behind a parse failure, which is kept
// out of the error message returned to callers.
func (s *TableService) logReadCause(p string, err error) {
	var pe *csvio.ParseError
	if errors.As(err, &pe) && pe.Cause != nil {
		s.log().Warn("stored file read failed", zap.String("path", p), zap.Error(pe.Cause))
	}
}

func (s *TableService) removeQuietly(p string) {
	if p == "" {
		return
	}
	// the request context may already be cancelled here
	if err := s.Store.Remove(context.Background(), p); err != nil && !errors.Is(err, storage.ErrNotExist) {
		s.log().Warn("failed to remove stored file", zap.String("path", p), zap.Error(err))
	}
}

func (s *TableService) findTable(db *gorm.DB, id uint) (*Table, error) {
	var t Table
	if err := db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("table %d", id))
		}
		return nil, err
	}
	return &t, nil
}

// FetchTableRows re-reads the stored files of the given tables in request
// order. The first failure aborts the batch and no rows are returned.
func (s *TableService) FetchTableRows(ctx context.Context, ids []uint) ([]TableRows, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("tableIds must not be empty")
	}

	out := make([]TableRows, 0, len(ids))
	for _, id := range ids {
		t, err := s.findTable(s.DB.WithContext(ctx), id)
		if err != nil {
			return nil, err
		}
		sep, err := csvio.ResolveDelimiter(csvio.Delimiter(t.Delimiter))
		if err != nil {
			return nil, err
		}
		enc := csvio.EncodingWindows1252
		if t.Encoding != "" {
			if enc, err = csvio.ParseEncoding(t.Encoding); err != nil {
				return nil, err
			}
		}

		parsed, err := s.parseStored(ctx, t.File, enc, sep, false)
		if err != nil {
			s.log().Warn("table rehydration failed", zap.Uint("table_id", id), zap.Error(err))
			return nil, err
		}
		out = append(out, TableRows{
			ID:        t.ID,
			TableName: t.Name,
			Columns:   parsed.header,
			Data:      parsed.records,
		})
	}
	return out, nil
}

// ReadFile parses any stored file as UTF-8 with the given delimiter.
func (s *TableService) ReadFile(ctx context.Context, p, delimiter string) ([]csvio.Record, error) {
	delim, err := csvio.ParseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	sep, _ := csvio.ResolveDelimiter(delim)

	clean, err := storage.CleanPath(p)
	if err != nil {
		return nil, apperr.Validation("invalid file path")
	}
	rc, err := s.Store.Open(ctx, clean)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, apperr.NotFound("file")
		}
		return nil, apperr.Wrap(apperr.KindStorage, err, "failed to open file")
	}
	defer rc.Close()

	text, err := csvio.Decode(csvio.StripBOM(rc), csvio.EncodingUTF8)
	if err != nil {
		return nil, err
	}
	records, err := csvio.NewReader(text, sep).ReadAll(ctx)
	if err != nil {
		s.logReadCause(clean, err)
		return nil, err
	}
	return records, nil
}

func (s *TableService) ListTables(filter TableFilter) (*TablePage, error) {
	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > util.MaxPageSize {
		limit = util.MaxPageSize
	}

	dates, err := util.ParseDateRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, err.Error())
	}

	q := s.DB.Model(&Table{})
	if filter.MinColumns != nil {
		q = q.Where("column_count >= ?", *filter.MinColumns)
	}
	if filter.MaxColumns != nil {
		q = q.Where("column_count <= ?", *filter.MaxColumns)
	}
	if filter.MinLeads != nil {
		q = q.Where("leads >= ?", *filter.MinLeads)
	}
	if filter.MaxLeads != nil {
		q = q.Where("leads <= ?", *filter.MaxLeads)
	}
	q = dates.Apply(q, "created_at")

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	tables := []Table{}
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&tables).Error; err != nil {
		return nil, err
	}

	return &TablePage{
		Tables:      tables,
		TotalPages:  util.TotalPages(total, limit),
		CurrentPage: page,
	}, nil
}

func (s *TableService) AllTables() ([]Table, error) {
	tables := []Table{}
	if err := s.DB.Order("created_at DESC").Order("id DESC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *TableService) RenameTable(id uint, name string) (*Table, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	t, err := s.findTable(s.DB, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(t).Update("table_name", name).Error; err != nil {
		return nil, fmt.Errorf("rename table: %w", err)
	}
	t.Name = name
	return t, nil
}

// DeleteTable removes the record. The raw file is removed best effort.
func (s *TableService) DeleteTable(ctx context.Context, id uint) error {
	t, err := s.findTable(s.DB.WithContext(ctx), id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(&Table{}, t.ID).Error; err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	s.removeQuietly(t.File)
	return nil
}

func singleTag(raw string) (string, error) {
	names, err := tag.Normalize([]string{raw})
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", apperr.Validation("tag is required")
	}
	return names[0], nil
}

func hasTag(tags []string, name string) bool {
	for _, t := range tags {
		if t == name {
			return true
		}
	}
	return false
}

// updateTags runs fn over the table's tag list inside a transaction and
// stores the result.
func (s *TableService) updateTags(id uint, fn func(tags []string) ([]string, error)) (*Table, error) {
	var out *Table
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		t, err := s.findTable(tx, id)
		if err != nil {
			return err
		}
		next, err := fn(append([]string(nil), t.Tags...))
		if err != nil {
			return err
		}
		if next == nil {
			next = []string{}
		}
		t.Tags = next
		if err := tx.Model(t).Update("tags", t.Tags).Error; err != nil {
			return fmt.Errorf("update tags: %w", err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TableService) ensureTag(name string) error {
	if s.Tags == nil {
		return nil
	}
	return s.Tags.Ensure(name)
}

func (s *TableService) AddTag(id uint, raw string) (*Table, error) {
	name, err := singleTag(raw)
	if err != nil {
		return nil, err
	}
	t, err := s.updateTags(id, func(tags []string) ([]string, error) {
		if hasTag(tags, name) {
			return nil, apperr.Newf(apperr.KindTagConflict, "tag %q already exists on this table", name)
		}
		return append(tags, name), nil
	})
	if err != nil {
		return nil, err
	}
	return t, s.ensureTag(name)
}

func (s *TableService) RenameTag(id uint, oldRaw, newRaw string) (*Table, error) {
	oldName := strings.TrimSpace(oldRaw)
	if oldName == "" {
		return nil, apperr.Validation("current tag is required")
	}
	newName, err := singleTag(newRaw)
	if err != nil {
		return nil, err
	}
	t, err := s.updateTags(id, func(tags []string) ([]string, error) {
		if !hasTag(tags, oldName) {
			return nil, apperr.Newf(apperr.KindTagConflict, "tag %q is not on this table", oldName)
		}
		if hasTag(tags, newName) {
			return nil, apperr.Newf(apperr.KindTagConflict, "tag %q already exists on this table", newName)
		}
		for i, tg := range tags {
			if tg == oldName {
				tags[i] = newName
			}
		}
		return tags, nil
	})
	if err != nil {
		return nil, err
	}
	return t, s.ensureTag(newName)
}

// RemoveTag drops every occurrence of name. The catalog entry stays.
func (s *TableService) RemoveTag(id uint, raw string) (*Table, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil, apperr.Validation("tag is required")
	}
	return s.updateTags(id, func(tags []string) ([]string, error) {
		kept := tags[:0]
		for _, tg := range tags {
			if tg != name {
				kept = append(kept, tg)
			}
		}
		return kept, nil
	})
}

// SumLeads adds up leads of the tables that exist; unknown ids count as zero.
func (s *TableService) SumLeads(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var total int64
	if err := s.DB.Model(&Table{}).
		Where("id IN ?", ids).
		Select("COALESCE(SUM(leads), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
