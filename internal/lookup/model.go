package lookup

import (
	"regexp"
	"time"
)

const (
	ResultValid   = "Valid"
	ResultUnvalid = "Unvalid"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

type Lookup struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index:idx_lookups_user_phone;not null" json:"userId"`
	Phone     string    `gorm:"index:idx_lookups_user_phone;size:16;not null" json:"phone"`
	Country   string    `gorm:"size:64;index" json:"country"`
	Result    string    `gorm:"size:10;not null;index" json:"result"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Lookup) TableName() string {
	return "lookups"
}

type CreateLookupInput struct {
	Phone   string `json:"phone" binding:"required"`
	Country string `json:"country"`
}

type LookupPage struct {
	Lookups      []Lookup `json:"lookups"`
	TotalPages   int      `json:"totalPages"`
	TotalLookups int64    `json:"totalLookups"`
}
