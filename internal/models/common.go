// internal/models/common.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps shared by entities that track updates. CreatedAt is left
// without an index on purpose; the date range scans rely on that.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Enums
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// AllModels lists the entities in dependency order: parents before children.
func AllModels() []interface{} {
	return []interface{}{
		&Category{},
		&Product{},
		&User{},
		&Order{},
		&OrderItem{},
	}
}

// DropOrder is the reverse of AllModels so child tables go first.
func DropOrder() []interface{} {
	all := AllModels()
	out := make([]interface{}, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out
}

// OrderByNewest sorts by creation time with the id as a stable tie-break.
func OrderByNewest(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
