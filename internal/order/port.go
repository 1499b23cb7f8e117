package order

import (
	"context"
	"mime/multipart"
)

type OrderServiceAPI interface {
	CreateOrder(ctx context.Context, userID uint, in CreateOrderInput, receipts []*multipart.FileHeader) (*Order, error)
	PayOrder(orderID uint) (*Order, error)
	RecentOrders(userID uint, paid string) ([]Order, error)
	OrdersByUser(userID uint, filter OrderFilter) (*OrderPage, error)
	ListOrders(filter OrderFilter) (*OrderPage, error)
}
