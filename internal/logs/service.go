package logs

import (
	"encoding/json"
	"strings"
	"time"

	"hexapink-api/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const aggLimit = 12

type LogService struct {
	DB *gorm.DB
}

// Recorder is the write side of the audit log used by request handlers.
type Recorder interface {
	Log(entry SystemLog, metadata interface{}) error
}

func (ls *LogService) Log(entry SystemLog, metadata interface{}) error {
	var metaStr *string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			s := string(b)
			metaStr = &s
		}
	}

	row := SystemLog{
		Level:     entry.Level,
		Service:   entry.Service,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Message:   entry.Message,
		Resource:  entry.Resource,
		Metadata:  metaStr,
		CreatedAt: time.Now(),
	}
	if row.Level == "" {
		row.Level = LevelInfo
	}
	return ls.DB.Create(&row).Error
}

// Record writes an audit row. A failed write is reported on logger and never
// returned, so auditing cannot fail the request it describes.
func Record(r Recorder, logger *zap.Logger, entry SystemLog, metadata interface{}) {
	if r == nil {
		return
	}
	if err := r.Log(entry, metadata); err != nil && logger != nil {
		logger.Warn("audit log write failed",
			zap.String("service", entry.Service),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func (ls *LogService) GetLogs(input LogFilterInput) ([]LogRow, LogAggregates, int64, int, error) {
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.PageSize <= 0 || input.PageSize > util.MaxPageSize {
		input.PageSize = 20
	}

	dates, err := util.ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, LogAggregates{}, 0, 0, err
	}

	base := ls.DB.
		Table("logs").
		Select("logs.*, a.first_name AS firstname, a.last_name AS lastname").
		Joins("LEFT JOIN users a ON logs.user_id = a.id")

	// last 30 days unless a range is given
	if !dates.HasFrom && !dates.HasUntil {
		base = base.Where("logs.created_at >= ?", time.Now().AddDate(0, 0, -30))
	}
	base = dates.Apply(base, "logs.created_at")

	if input.UserID != nil {
		base = base.Where("logs.user_id = ?", *input.UserID)
	}
	if v := strings.TrimSpace(input.Level); v != "" {
		base = base.Where("logs.level = ?", v)
	}
	if v := strings.TrimSpace(input.Service); v != "" {
		base = base.Where("logs.service = ?", v)
	}
	if v := strings.TrimSpace(input.Action); v != "" {
		base = base.Where("logs.action = ?", v)
	}
	if v := strings.TrimSpace(input.Resource); v != "" {
		base = base.Where("LOWER(COALESCE(logs.resource,'')) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if v := strings.TrimSpace(input.Search); v != "" {
		like := "%" + strings.ToLower(v) + "%"
		base = base.Where(
			`LOWER(logs.level) LIKE ?
			 OR LOWER(logs.service) LIKE ?
			 OR LOWER(logs.action) LIKE ?
			 OR LOWER(logs.message) LIKE ?
			 OR LOWER(COALESCE(logs.resource,'')) LIKE ?
			 OR LOWER(COALESCE(a.first_name,'')) LIKE ?
			 OR LOWER(COALESCE(a.last_name,'')) LIKE ?`,
			like, like, like, like, like, like, like,
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, LogAggregates{}, 0, 0, err
	}
	totalPages := util.TotalPages(total, input.PageSize)

	var rows []LogRow
	if err := base.
		Session(&gorm.Session{}).
		Order("logs.created_at DESC").
		Limit(input.PageSize).
		Offset((input.Page - 1) * input.PageSize).
		Scan(&rows).Error; err != nil {
		return nil, LogAggregates{}, 0, 0, err
	}

	aggs, err := ls.aggregates(base)
	if err != nil {
		return nil, LogAggregates{}, 0, 0, err
	}
	return rows, aggs, total, totalPages, nil
}

func (ls *LogService) aggregates(base *gorm.DB) (LogAggregates, error) {
	sub := base.Session(&gorm.Session{}).
		Select("logs.user_id, logs.action, logs.resource, a.first_name, a.last_name")
	derived := ls.DB.Table("(?) AS x", sub)

	var aggs LogAggregates

	if err := derived.Session(&gorm.Session{}).
		Select("x.action AS label, COUNT(*) AS count").
		Group("x.action").
		Order("count DESC").
		Limit(aggLimit).
		Scan(&aggs.ByAction).Error; err != nil {
		return LogAggregates{}, err
	}

	if err := derived.Session(&gorm.Session{}).
		Select("COALESCE(NULLIF(TRIM(x.resource), ''), 'No resource') AS label, COUNT(*) AS count").
		Group("label").
		Order("count DESC").
		Limit(aggLimit).
		Scan(&aggs.ByResource).Error; err != nil {
		return LogAggregates{}, err
	}

	if err := derived.Session(&gorm.Session{}).
		Select(`
			x.user_id,
			COALESCE(x.first_name,'') AS first_name,
			COALESCE(x.last_name,'') AS last_name,
			CASE
				WHEN (COALESCE(x.first_name,'') = '' AND COALESCE(x.last_name,'') = '')
				THEN 'Unknown'
				ELSE TRIM(COALESCE(x.first_name,'') || ' ' || COALESCE(x.last_name,''))
			END AS label,
			COUNT(*) AS count
		`).
		Group("x.user_id, x.first_name, x.last_name").
		Order("count DESC").
		Limit(aggLimit).
		Scan(&aggs.ByPerson).Error; err != nil {
		return LogAggregates{}, err
	}

	if aggs.ByAction == nil {
		aggs.ByAction = []AggItem{}
	}
	if aggs.ByResource == nil {
		aggs.ByResource = []AggItem{}
	}
	if aggs.ByPerson == nil {
		aggs.ByPerson = []PersonAggItem{}
	}
	return aggs, nil
}
