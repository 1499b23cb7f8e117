package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/storage"
	"hexapink-api/internal/table"
	"hexapink-api/internal/util"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPageSize = 10

type CollectionService struct {
	DB     *gorm.DB
	Store  storage.Store
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *CollectionService) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *CollectionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateInput(in *CollectionInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return apperr.Newf(apperr.KindValidation, "title cannot exceed %d characters", MaxTitleLength)
	}
	if in.Fee < 0 {
		return apperr.Validation("fee must not be negative")
	}
	if in.Discount < 0 {
		return apperr.Validation("discount must not be negative")
	}
	in.Type = strings.TrimSpace(in.Type)

	countries := in.Countries[:0]
	for _, c := range in.Countries {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}
	in.Countries = countries

	for i := range in.Columns {
		col := &in.Columns[i]
		col.Name = strings.TrimSpace(col.Name)
		col.Type = strings.TrimSpace(col.Type)
		if col.Name == "" || col.Type == "" {
			return apperr.Newf(apperr.KindValidation, "column %d: name and type are required", i+1)
		}
		if col.AdditionalFee != nil && *col.AdditionalFee < 0 {
			return apperr.Newf(apperr.KindValidation, "column %q: additional fee must not be negative", col.Name)
		}
	}
	return nil
}

// checkTableColumns makes sure every mapped table exists and has the mapped
// column. Table names are filled in from the table rows.
func (s *CollectionService) checkTableColumns(db *gorm.DB, cols []Column) error {
	ids := make([]uint, 0)
	seen := make(map[uint]struct{})
	for _, col := range cols {
		for _, tc := range col.TableColumns {
			if _, ok := seen[tc.TableID]; !ok {
				seen[tc.TableID] = struct{}{}
				ids = append(ids, tc.TableID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var tables []table.Table
	if err := db.Where("id IN ?", ids).Find(&tables).Error; err != nil {
		return fmt.Errorf("load mapped tables: %w", err)
	}
	byID := make(map[uint]table.Table, len(tables))
	for _, t := range tables {
		byID[t.ID] = t
	}

	for i := range cols {
		for j := range cols[i].TableColumns {
			tc := &cols[i].TableColumns[j]
			t, ok := byID[tc.TableID]
			if !ok {
				return apperr.NotFound(fmt.Sprintf("table %d", tc.TableID))
			}
			if !hasColumn(t.Columns, tc.TableColumn) {
				return apperr.Newf(apperr.KindValidation, "column %q: table %d has no column %q", cols[i].Name, t.ID, tc.TableColumn)
			}
			tc.TableName = t.Name
		}
	}
	return nil
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func (s *CollectionService) saveImage(ctx context.Context, image *multipart.FileHeader) (string, error) {
	if image == nil {
		return "", nil
	}
	src, err := image.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "cannot read image")
	}
	defer src.Close()

	p, err := s.Store.Save(ctx, ImagesDir, util.TimestampedName(s.now(), image.Filename), src)
	if err != nil {
		return "", apperr.Wrap(apperr.KindStorage, err, "failed to store image")
	}
	return p, nil
}

func (s *CollectionService) removeQuietly(p string) {
	if p == "" {
		return
	}
	if err := s.Store.Remove(context.Background(), p); err != nil && !errors.Is(err, storage.ErrNotExist) {
		s.log().Warn("failed to remove collection image", zap.String("path", p), zap.Error(err))
	}
}

func (s *CollectionService) CreateCollection(ctx context.Context, in CollectionInput, image *multipart.FileHeader) (*Collection, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	if err := s.checkTableColumns(db, in.Columns); err != nil {
		return nil, err
	}
	cols, err := json.Marshal(columnsOrEmpty(in.Columns))
	if err != nil {
		return nil, fmt.Errorf("encode columns: %w", err)
	}

	img, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	c := &Collection{
		Title:       in.Title,
		Image:       img,
		Type:        in.Type,
		Description: in.Description,
		Countries:   pq.StringArray(in.Countries),
		Fee:         in.Fee,
		Discount:    in.Discount,
		Columns:     datatypes.JSON(cols),
		Status:      StatusActive,
		Featured:    in.Featured,
	}
	if err := db.Create(c).Error; err != nil {
		s.removeQuietly(img)
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.log().Info("collection created", zap.Uint("collection_id", c.ID), zap.Int("columns", len(in.Columns)))
	return c, nil
}

// UpdateCollection replaces every attribute but the status. The image is
// only replaced when a new one is uploaded; the old file is then removed.
func (s *CollectionService) UpdateCollection(ctx context.Context, id uint, in CollectionInput, image *multipart.FileHeader) (*Collection, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	c, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTableColumns(db, in.Columns); err != nil {
		return nil, err
	}
	cols, err := json.Marshal(columnsOrEmpty(in.Columns))
	if err != nil {
		return nil, fmt.Errorf("encode columns: %w", err)
	}

	img, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       in.Title,
		"type":        in.Type,
		"description": in.Description,
		"countries":   pq.StringArray(in.Countries),
		"fee":         in.Fee,
		"discount":    in.Discount,
		"columns":     datatypes.JSON(cols),
		"featured":    in.Featured,
	}
	old := c.Image
	if img != "" {
		updates["image"] = img
	}
	if err := db.Model(c).Updates(updates).Error; err != nil {
		s.removeQuietly(img)
		return nil, fmt.Errorf("update collection: %w", err)
	}
	if img != "" && old != img {
		s.removeQuietly(old)
	}
	return s.find(db, id)
}

func (s *CollectionService) UpdateFields(id uint, in FieldsInput) (*Collection, error) {
	c, err := s.find(s.DB, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" || utf8.RuneCountInString(t) > MaxTitleLength {
			return nil, apperr.Newf(apperr.KindValidation, "title must be 1 to %d characters", MaxTitleLength)
		}
		updates["title"] = t
	}
	if in.Status != nil {
		if *in.Status != StatusActive && *in.Status != StatusInactive {
			return nil, apperr.Newf(apperr.KindValidation, "status must be %s or %s", StatusActive, StatusInactive)
		}
		updates["status"] = *in.Status
	}
	if in.Featured != nil {
		updates["featured"] = *in.Featured
	}
	if in.Fee != nil {
		if *in.Fee < 0 {
			return nil, apperr.Validation("fee must not be negative")
		}
		updates["fee"] = *in.Fee
	}
	if in.Discount != nil {
		if *in.Discount < 0 {
			return nil, apperr.Validation("discount must not be negative")
		}
		updates["discount"] = *in.Discount
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	if err := s.DB.Model(c).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update collection fields: %w", err)
	}
	return s.find(s.DB, id)
}

func (s *CollectionService) find(db *gorm.DB, id uint) (*Collection, error) {
	var c Collection
	if err := db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("collection")
		}
		return nil, err
	}
	return &c, nil
}

func (s *CollectionService) GetCollection(id uint) (*Collection, error) {
	return s.find(s.DB, id)
}

func (s *CollectionService) ListCollections(page, limit int) (*CollectionPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > util.MaxPageSize {
		limit = util.MaxPageSize
	}

	var total int64
	if err := s.DB.Model(&Collection{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var cols []Collection
	if err := s.DB.Order("id").Limit(limit).Offset((page - 1) * limit).Find(&cols).Error; err != nil {
		return nil, err
	}
	return &CollectionPage{
		Collections: cols,
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  util.TotalPages(total, limit),
	}, nil
}

func (s *CollectionService) FeaturedCollections() ([]Collection, error) {
	var cols []Collection
	if err := s.DB.Where("featured = ?", true).Order("id").Find(&cols).Error; err != nil {
		return nil, err
	}
	return cols, nil
}

// MatchingCollections returns the active collections of a type that cover at
// least one of the given countries.
func (s *CollectionService) MatchingCollections(typ string, countries []string) ([]Collection, error) {
	var active []Collection
	if err := s.DB.Where("type = ? AND status = ?", strings.TrimSpace(typ), StatusActive).Order("id").Find(&active).Error; err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		want[strings.TrimSpace(c)] = struct{}{}
	}

	out := make([]Collection, 0, len(active))
	for _, c := range active {
		for _, country := range c.Countries {
			if _, ok := want[country]; ok {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (s *CollectionService) DeleteCollection(ctx context.Context, id uint) error {
	db := s.DB.WithContext(ctx)
	c, err := s.find(db, id)
	if err != nil {
		return err
	}
	if err := db.Delete(&Collection{}, id).Error; err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	s.removeQuietly(c.Image)
	return nil
}

// Exists fails with not_found unless every id names a collection.
func Exists(db *gorm.DB, ids []uint) error {
	uniq := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	if len(uniq) == 0 {
		return nil
	}
	var n int64
	if err := db.Model(&Collection{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return fmt.Errorf("check collections: %w", err)
	}
	if int(n) != len(uniq) {
		return apperr.NotFound("collection")
	}
	return nil
}

func columnsOrEmpty(cols []Column) []Column {
	if cols == nil {
		return []Column{}
	}
	return cols
}
