package order

import (
	"bytes"
	"encoding/json"
	"time"

	"hexapink-api/internal/csvio"
	"hexapink-api/internal/file"
	"hexapink-api/internal/user"

	"github.com/lib/pq"
)

const (
	StatusPaid   = "Paid"
	StatusUnpaid = "Unpaid"

	PaymentBalance = "Balance"

	TransactionTypeOrder = "Order"

	ReceiptsDir = "uploads/receipts"
)

type Order struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint           `gorm:"index;not null" json:"userId"`
	User          *user.User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Volume        int            `gorm:"not null;default:0;index" json:"volume"`
	Prix          float64        `gorm:"not null;default:0;index" json:"prix"`
	Paid          string         `gorm:"size:10;not null;default:Unpaid;index" json:"paid"`
	PaymentMethod string         `gorm:"size:30;not null" json:"paymentMethod"`
	Receipts      pq.StringArray `gorm:"type:text[]" json:"receipts"`
	Files         []file.File    `gorm:"foreignKey:OrderID" json:"files"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

type Transaction struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint           `gorm:"index:idx_transactions_user_type;not null" json:"userId"`
	OrderID       uint           `gorm:"index" json:"orderId"`
	Price         float64        `gorm:"not null" json:"price"`
	Type          string         `gorm:"index:idx_transactions_user_type;size:20;not null" json:"type"`
	PaymentMethod string         `gorm:"size:30" json:"paymentMethod"`
	Receipts      pq.StringArray `gorm:"type:text[]" json:"receipts"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// LineItem is one purchased extract of an order. Columns and Data accept
// either JSON values or JSON-encoded strings.
type LineItem struct {
	Title        string       `json:"title"`
	Type         string       `json:"type"`
	Countries    []string     `json:"countries"`
	CollectionID *uint        `json:"collectionId"`
	Image        string       `json:"image"`
	UnitPrice    float64      `json:"unitPrice"`
	Volume       int          `json:"volume"`
	Columns      ColumnsField `json:"columns"`
	Data         RowsField    `json:"data"`
}

type ColumnsField map[string]interface{}

func (f *ColumnsField) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	if err := unmarshalMaybeString(b, &m); err != nil {
		return err
	}
	*f = m
	return nil
}

type RowsField []csvio.Record

func (f *RowsField) UnmarshalJSON(b []byte) error {
	var rows []csvio.Record
	if err := unmarshalMaybeString(b, &rows); err != nil {
		return err
	}
	*f = rows
	return nil
}

func unmarshalMaybeString(b []byte, v interface{}) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, v)
}

type CreateOrderInput struct {
	Files         []LineItem
	Volume        int
	Prix          float64
	Paid          string
	PaymentMethod string
}

type OrderFilter struct {
	Paid      string
	MinVolume *int
	MaxVolume *int
	MinPrix   *float64
	MaxPrix   *float64
	MinDate   string
	MaxDate   string
	Page      int
	Limit     int
}

type OrderPage struct {
	Orders      []Order `json:"orders"`
	TotalPages  int     `json:"totalPages"`
	TotalOrders int64   `json:"totalOrders"`
}
