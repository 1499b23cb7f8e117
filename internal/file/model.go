package file

import (
	"time"

	"hexapink-api/internal/csvio"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const (
	StatusReady   = "Ready"
	StatusWaiting = "Waiting"

	// ExportDir is where order extracts are written.
	ExportDir      = "uploads"
	MaxTitleLength = 100
)

// File is a purchasable extract generated for an order line item.
type File struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint              `gorm:"index:idx_files_user_title;not null" json:"userId"`
	Title        string            `gorm:"index:idx_files_user_title;size:100;not null" json:"title"`
	Type         string            `gorm:"size:50;index" json:"type"`
	Countries    pq.StringArray    `gorm:"type:text[]" json:"countries"`
	CollectionID *uint             `json:"collectionId,omitempty"`
	Image        string            `json:"image"`
	UnitPrice    float64           `gorm:"not null;default:0" json:"unitPrice"`
	Volume       int               `gorm:"index;not null;default:0" json:"volume"`
	Columns      datatypes.JSONMap `json:"columns"`
	Status       string            `gorm:"size:10;not null;default:Waiting;index" json:"status"`
	Path         string            `gorm:"size:512" json:"path"`
	OrderID      uint              `gorm:"index" json:"orderId"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (File) TableName() string {
	return "files"
}

type FileCount struct {
	TotalFiles int64 `json:"totalFiles"`
	TotalLeads int64 `json:"totalLeads"`
}

type ExportItem struct {
	Title string
	Rows  []csvio.Record
}
