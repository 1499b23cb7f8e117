package user

import "time"

const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User is read for its role and debited for balance payments. Accounts are
// managed elsewhere.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	FirstName string    `gorm:"column:first_name;size:100" json:"firstName"`
	LastName  string    `gorm:"column:last_name;size:100" json:"lastName"`
	Role      string    `gorm:"size:20;not null;default:user" json:"role"`
	Balance   float64   `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
