package collection

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"

	ImagesDir      = "uploads/collections"
	MaxTitleLength = 100
)

// TableColumn points a collection column at a column of an ingested table.
type TableColumn struct {
	TableID     uint   `json:"tableId"`
	TableName   string `json:"tableName,omitempty"`
	TableColumn string `json:"tableColumn"`
}

// Column is one field a buyer can pick from a collection.
type Column struct {
	ID              int           `json:"id"`
	Name            string        `json:"name"`
	Type            string        `json:"type"`
	ShowToClient    bool          `json:"showToClient"`
	IsAdditionalFee bool          `json:"isAdditionalFee"`
	AdditionalFee   *float64      `json:"additionalFee,omitempty"`
	TableColumns    []TableColumn `json:"tableColumns"`
	Optional        bool          `json:"optional,omitempty"`
	StepName        string        `json:"stepName,omitempty"`
}

// Collection is a curated product assembled from columns of one or more
// tables.
type Collection struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string         `gorm:"index:idx_collections_title_type;size:100;not null" json:"title"`
	Image       string         `gorm:"size:512" json:"image"`
	Type        string         `gorm:"index:idx_collections_title_type;size:50" json:"type"`
	Description string         `gorm:"type:text" json:"description"`
	Countries   pq.StringArray `gorm:"type:text[]" json:"countries"`
	Fee         float64        `gorm:"not null;default:0" json:"fee"`
	Discount    float64        `gorm:"not null;default:0" json:"discount"`
	Columns     datatypes.JSON `json:"columns"`
	Status      string         `gorm:"size:10;not null;default:Active;index" json:"status"`
	Featured    bool           `gorm:"not null;default:false;index" json:"featured"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Collection) TableName() string {
	return "collections"
}

// ColumnList decodes the stored column descriptors.
func (c *Collection) ColumnList() ([]Column, error) {
	if len(c.Columns) == 0 {
		return nil, nil
	}
	var cols []Column
	if err := json.Unmarshal(c.Columns, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

type CollectionInput struct {
	Title       string
	Type        string
	Description string
	Featured    bool
	Countries   []string
	Fee         float64
	Discount    float64
	Columns     []Column
}

// FieldsInput changes single attributes without touching columns or image.
type FieldsInput struct {
	Title    *string  `json:"title"`
	Status   *string  `json:"status"`
	Featured *bool    `json:"featured"`
	Fee      *float64 `json:"fee"`
	Discount *float64 `json:"discount"`
}

type CollectionPage struct {
	Collections []Collection `json:"collections"`
	Total       int64        `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
	TotalPages  int          `json:"totalPages"`
}
