package order

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
	"hexapink-api/internal/collection"
	"hexapink-api/internal/file"
	"hexapink-api/internal/storage"
	"hexapink-api/internal/user"
	"hexapink-api/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	recentLimit     = 5
)

type OrderService struct {
	DB       *gorm.DB
	Store    storage.Store
	Exporter *file.Exporter
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *OrderService) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateOrder(in *CreateOrderInput) error {
	if len(in.Files) == 0 {
		return apperr.Validation("order must contain at least one file")
	}
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if in.PaymentMethod == "" {
		return apperr.Validation("payment method is required")
	}
	switch in.Paid {
	case "":
		in.Paid = StatusUnpaid
	case StatusPaid, StatusUnpaid:
	default:
		return apperr.Newf(apperr.KindValidation, "paid must be %s or %s", StatusPaid, StatusUnpaid)
	}
	if in.Prix < 0 {
		return apperr.Validation("prix must not be negative")
	}
	if in.Volume < 0 {
		return apperr.Validation("volume must not be negative")
	}
	for i := range in.Files {
		it := &in.Files[i]
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			return apperr.Newf(apperr.KindValidation, "file %d: title is required", i+1)
		}
		if utf8.RuneCountInString(it.Title) > file.MaxTitleLength {
			return apperr.Newf(apperr.KindValidation, "file %d: title exceeds %d characters", i+1, file.MaxTitleLength)
		}
		if it.UnitPrice < 0 {
			return apperr.Newf(apperr.KindValidation, "file %d: unit price must not be negative", i+1)
		}
	}
	return nil
}

// CreateOrder exports the line items, then records the order, its files,
// the transaction and any balance debit in one database transaction.
// Receipts and extracts go to a directory of their own for this order, and
// only the files written here are removed if the order cannot be recorded.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in CreateOrderInput, receipts []*multipart.FileHeader) (*Order, error) {
	if err := validateOrder(&in); err != nil {
		return nil, err
	}
	var collectionIDs []uint
	for _, it := range in.Files {
		if it.CollectionID != nil {
			collectionIDs = append(collectionIDs, *it.CollectionID)
		}
	}
	if err := collection.Exists(s.DB.WithContext(ctx), collectionIDs); err != nil {
		return nil, err
	}

	var written []string
	committed := false
	defer func() {
		if !committed {
			s.Exporter.RemoveAll(written)
		}
	}()

	batch := file.BatchDir(userID, s.now())
	receiptPaths, err := s.saveReceipts(ctx, batch, receipts)
	written = append(written, receiptPaths...)
	if err != nil {
		return nil, err
	}

	items := make([]file.ExportItem, len(in.Files))
	for i, it := range in.Files {
		items[i] = file.ExportItem{Title: it.Title, Rows: it.Data}
	}
	paths, err := s.Exporter.ExportAll(ctx, batch, items)
	if err != nil {
		var ee *file.ExportError
		if errors.As(err, &ee) {
			written = append(written, ee.Exported...)
			s.log().Warn("order export failed", zap.Uint("user_id", userID), zap.Strings("exported", ee.Exported), zap.Error(err))
		}
		return nil, err
	}
	written = append(written, paths...)

	status := file.StatusWaiting
	if in.Paid == StatusPaid {
		status = file.StatusReady
	}

	o := &Order{
		UserID:        userID,
		Volume:        in.Volume,
		Prix:          in.Prix,
		Paid:          in.Paid,
		PaymentMethod: in.PaymentMethod,
		Receipts:      receiptPaths,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		files := make([]file.File, len(in.Files))
		for i, it := range in.Files {
			files[i] = file.File{
				UserID:       userID,
				Title:        it.Title,
				Type:         it.Type,
				Countries:    it.Countries,
				CollectionID: it.CollectionID,
				Image:        it.Image,
				UnitPrice:    it.UnitPrice,
				Volume:       it.Volume,
				Columns:      map[string]interface{}(it.Columns),
				Status:       status,
				Path:         paths[i],
				OrderID:      o.ID,
			}
		}
		if err := tx.Create(&files).Error; err != nil {
			return fmt.Errorf("create order files: %w", err)
		}
		o.Files = files

		t := &Transaction{
			UserID:        userID,
			OrderID:       o.ID,
			Price:         in.Prix,
			Type:          TransactionTypeOrder,
			PaymentMethod: in.PaymentMethod,
			Receipts:      receiptPaths,
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		if in.PaymentMethod == PaymentBalance {
			return user.Debit(tx, userID, in.Prix)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	committed = true

	s.log().Info("order created",
		zap.Uint("order_id", o.ID),
		zap.Uint("user_id", userID),
		zap.Int("files", len(o.Files)),
		zap.String("paid", o.Paid),
	)
	return o, nil
}

func (s *OrderService) saveReceipts(ctx context.Context, batch string, receipts []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(receipts))
	dir := path.Join(ReceiptsDir, batch)
	for i, fh := range receipts {
		src, err := fh.Open()
		if err != nil {
			return paths, apperr.Wrap(apperr.KindValidation, err, "cannot read receipt")
		}
		p, err := s.Store.Save(ctx, dir, fmt.Sprintf("%d_%s", i+1, util.SanitizeName(path.Base(fh.Filename))), src)
		src.Close()
		if err != nil {
			return paths, apperr.Wrap(apperr.KindStorage, err, "failed to store receipt")
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// PayOrder marks the order paid and releases its waiting files.
func (s *OrderService) PayOrder(orderID uint) (*Order, error) {
	var o Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order")
			}
			return err
		}
		if o.Paid != StatusPaid {
			if err := tx.Model(&o).Update("paid", StatusPaid).Error; err != nil {
				return fmt.Errorf("pay order: %w", err)
			}
		}
		if err := tx.Model(&file.File{}).
			Where("order_id = ? AND status = ?", o.ID, file.StatusWaiting).
			Update("status", file.StatusReady).Error; err != nil {
			return fmt.Errorf("release order files: %w", err)
		}
		return tx.Where("order_id = ?", o.ID).Order("id").Find(&o.Files).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func paidFilter(q *gorm.DB, paid string) (*gorm.DB, error) {
	switch paid {
	case "", "All":
		return q, nil
	case StatusPaid, StatusUnpaid:
		return q.Where("paid = ?", paid), nil
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown paid status %q", paid)
	}
}

func (s *OrderService) RecentOrders(userID uint, paid string) ([]Order, error) {
	q, err := paidFilter(s.DB.Where("user_id = ?", userID), paid)
	if err != nil {
		return nil, err
	}
	orders := []Order{}
	if err := q.Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(recentLimit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) OrdersByUser(userID uint, filter OrderFilter) (*OrderPage, error) {
	return s.listOrders(s.DB.Where("user_id = ?", userID), filter)
}

func (s *OrderService) ListOrders(filter OrderFilter) (*OrderPage, error) {
	return s.listOrders(s.DB, filter)
}

func (s *OrderService) listOrders(base *gorm.DB, f OrderFilter) (*OrderPage, error) {
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > util.MaxPageSize {
		limit = util.MaxPageSize
	}

	dates, err := util.ParseDateRange(f.MinDate, f.MaxDate)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, err.Error())
	}

	q, err := paidFilter(base.Model(&Order{}), f.Paid)
	if err != nil {
		return nil, err
	}
	if f.MinVolume != nil {
		q = q.Where("volume >= ?", *f.MinVolume)
	}
	if f.MaxVolume != nil {
		q = q.Where("volume <= ?", *f.MaxVolume)
	}
	if f.MinPrix != nil {
		q = q.Where("prix >= ?", *f.MinPrix)
	}
	if f.MaxPrix != nil {
		q = q.Where("prix <= ?", *f.MaxPrix)
	}
	q = dates.Apply(q, "created_at")

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	orders := []Order{}
	if err := q.Session(&gorm.Session{}).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &OrderPage{
		Orders:      orders,
		TotalPages:  util.TotalPages(total, limit),
		TotalOrders: total,
	}, nil
}
