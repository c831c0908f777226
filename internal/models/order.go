// internal/models/order.go
package models

import (
	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int64           `json:"userId" gorm:"not null"`
	Status      OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"type:decimal(10,2);not null"`
	Timestamps

	// Relationships
	User       *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	OrderItems []OrderItem `json:"orderItems,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem.Price is the unit price captured when the order was placed.
type OrderItem struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   int64           `json:"orderId" gorm:"not null"`
	ProductID int64           `json:"productId" gorm:"not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`

	// Relationships
	Order   *Order   `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is quantity times the snapshot price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums the line totals of the given items.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
