// internal/services/fetch_plan.go
package services

import (
	"strings"

	"gorm.io/gorm"
)

// Relation is one preload step. Path uses gorm's dotted association names.
// A positive Limit caps the rows fetched at that level.
type Relation struct {
	Path  string
	Limit int
}

// FetchPlan is an ordered list of relations to load along with the root rows.
type FetchPlan []Relation

// Apply registers the plan's preloads on db. Limited levels are ordered by id
// descending so the newest rows win.
func (p FetchPlan) Apply(db *gorm.DB) *gorm.DB {
	for _, rel := range p {
		if rel.Limit > 0 {
			limit := rel.Limit
			db = db.Preload(rel.Path, func(tx *gorm.DB) *gorm.DB {
				return tx.Order("id DESC").Limit(limit)
			})
			continue
		}
		db = db.Preload(rel.Path, func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		})
	}
	return db
}

// Depth is the number of hops in the longest path.
func (p FetchPlan) Depth() int {
	depth := 0
	for _, rel := range p {
		if d := strings.Count(rel.Path, ".") + 1; d > depth {
			depth = d
		}
	}
	return depth
}

func (p FetchPlan) Paths() []string {
	paths := make([]string, len(p))
	for i, rel := range p {
		paths[i] = rel.Path
	}
	return paths
}

var (
	// UserOrdersPlan loads what a user's order history screen needs.
	UserOrdersPlan = FetchPlan{
		{Path: "OrderItems"},
		{Path: "OrderItems.Product"},
		{Path: "OrderItems.Product.Category"},
	}

	OrderSearchPlan = FetchPlan{
		{Path: "User"},
		{Path: "OrderItems"},
		{Path: "OrderItems.Product"},
		{Path: "OrderItems.Product.Category"},
	}

	OrderDetailPlan = FetchPlan{
		{Path: "User"},
		{Path: "OrderItems"},
	}

	// OrderFullDetailPlan walks out from the order to the buyer's other orders
	// and to other order lines for the same products.
	OrderFullDetailPlan = FetchPlan{
		{Path: "User"},
		{Path: "User.Orders", Limit: 10},
		{Path: "User.Orders.OrderItems"},
		{Path: "User.Orders.OrderItems.Product"},
		{Path: "User.Orders.OrderItems.Product.Category"},
		{Path: "OrderItems"},
		{Path: "OrderItems.Product"},
		{Path: "OrderItems.Product.Category"},
		{Path: "OrderItems.Product.OrderItems", Limit: 5},
	}
)
