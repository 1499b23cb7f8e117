package table

import (
	"time"

	"hexapink-api/internal/csvio"

	"github.com/lib/pq"
)

const (
	MaxNameLength = 100
	TablesDir     = "uploads/tables"
)

// Table is an ingested dataset. Columns and Leads describe the file as it was
// parsed at upload time and are not re-checked on later reads.
type Table struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"userId"`
	Name        string         `gorm:"column:table_name;size:100;not null" json:"tableName"`
	Columns     pq.StringArray `gorm:"type:text[];column:columns" json:"columns"`
	ColumnCount int            `gorm:"not null;default:0" json:"columnCount"`
	Leads       int            `gorm:"not null;default:0" json:"leads"`
	Tags        pq.StringArray `gorm:"type:text[];column:tags" json:"tags"`
	File        string         `gorm:"size:512;not null" json:"file"`
	Delimiter   string         `gorm:"size:20;not null" json:"delimiter"`
	Encoding    string         `gorm:"size:20;not null" json:"encoding"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Table) TableName() string {
	return "tables"
}

type CreateTableInput struct {
	TableName string
	Delimiter string
	Tags      []string
}

// TableRows is one rehydrated table.
type TableRows struct {
	ID        uint           `json:"id"`
	TableName string         `json:"tableName"`
	Columns   []string       `json:"columns"`
	Data      []csvio.Record `json:"data"`
}

type TableFilter struct {
	MinColumns *int
	MaxColumns *int
	MinLeads   *int
	MaxLeads   *int
	StartDate  string
	EndDate    string
	Page       int
	Limit      int
}

type TablePage struct {
	Tables      []Table `json:"tables"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}
