package logs

import "time"

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

type SystemLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Level     string    `gorm:"size:20;not null" json:"level"`
	Service   string    `gorm:"size:100;not null" json:"service"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Resource  *string   `gorm:"size:512" json:"resource,omitempty"`
	Metadata  *string   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SystemLog) TableName() string {
	return "logs"
}

type LogFilterInput struct {
	UserID    *uint  `form:"user_id"`
	Level     string `form:"level"`
	Service   string `form:"service"`
	Action    string `form:"action"`
	Resource  string `form:"resource"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

type AggItem struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type PersonAggItem struct {
	UserID    *uint  `json:"user_id,omitempty"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Label     string `json:"label"`
	Count     int64  `json:"count"`
}

type LogAggregates struct {
	ByAction   []AggItem       `json:"by_action"`
	ByResource []AggItem       `json:"by_resource"`
	ByPerson   []PersonAggItem `json:"by_person"`
}

type LogRow struct {
	SystemLog
	FirstName string `json:"firstname" gorm:"column:firstname"`
	LastName  string `json:"lastname" gorm:"column:lastname"`
}
