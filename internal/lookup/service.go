package lookup

import (
	"context"
	"fmt"
	"strings"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/metrics"
	"hexapink-api/internal/util"

	"gorm.io/gorm"
)

const defaultPageSize = 10

type LookupServiceAPI interface {
	CreateLookup(ctx context.Context, userID uint, in CreateLookupInput) (*Lookup, error)
	LookupsByUser(userID uint, page, limit int) (*LookupPage, error)
	DeleteLookup(userID, id uint) error
}

type LookupService struct {
	DB        *gorm.DB
	Validator PhoneValidator
}

func NewLookupService(db *gorm.DB, validator PhoneValidator) *LookupService {
	return &LookupService{DB: db, Validator: validator}
}

func (ls *LookupService) CreateLookup(ctx context.Context, userID uint, in CreateLookupInput) (*Lookup, error) {
	phone := strings.TrimSpace(in.Phone)
	if !phonePattern.MatchString(phone) {
		return nil, apperr.Validation("please enter a valid phone number")
	}
	country := strings.TrimSpace(in.Country)

	valid, err := ls.Validator.Validate(ctx, phone, country)
	if err != nil {
		metrics.PhoneLookups.WithLabelValues("error").Inc()
		return nil, apperr.Wrap(apperr.KindStorage, err, "phone validation unavailable")
	}

	l := &Lookup{UserID: userID, Phone: phone, Country: country, Result: ResultUnvalid}
	if valid {
		l.Result = ResultValid
	}
	if err := ls.DB.WithContext(ctx).Create(l).Error; err != nil {
		return nil, fmt.Errorf("create lookup: %w", err)
	}
	metrics.PhoneLookups.WithLabelValues(strings.ToLower(l.Result)).Inc()
	return l, nil
}

func (ls *LookupService) LookupsByUser(userID uint, page, limit int) (*LookupPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	var total int64
	q := ls.DB.Model(&Lookup{}).Where("user_id = ?", userID)
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count lookups: %w", err)
	}

	lookups := []Lookup{}
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&lookups).Error; err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}

	return &LookupPage{
		Lookups:      lookups,
		TotalPages:   util.TotalPages(total, limit),
		TotalLookups: total,
	}, nil
}

// DeleteLookup removes one of the user's lookups. Lookups of other users are
// reported as missing.
func (ls *LookupService) DeleteLookup(userID, id uint) error {
	res := ls.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&Lookup{})
	if res.Error != nil {
		return fmt.Errorf("delete lookup: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("lookup")
	}
	return nil
}
