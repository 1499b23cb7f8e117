package tag

import "time"

const MaxNameLength = 50

// Tag is one entry of the global tag catalog. Names are unique and
// case-sensitive; tags are never removed when no table uses them anymore.
type Tag struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Tag) TableName() string {
	return "tags"
}
