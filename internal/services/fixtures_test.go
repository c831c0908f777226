package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/database/dbtest"
	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/seeder"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

// fixture is a small hand-built catalog with known prices and dates.
type fixture struct {
	db        *gorm.DB
	gadgets   models.Category
	books     models.Category
	widget    models.Product // 10.00
	gizmo     models.Product // 2.50
	novel     models.Product // 7.25, never ordered
	alice     models.User
	bob       models.User
	carol     models.User // no orders
	aliceOld  models.Order
	aliceNew  models.Order
	bobOrder  models.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: dbtest.Open(t)}
	db := f.db

	f.gadgets = models.Category{Name: "Gadgets", Description: "Small devices"}
	f.books = models.Category{Name: "Books"}
	require.NoError(t, db.Create(&f.gadgets).Error)
	require.NoError(t, db.Create(&f.books).Error)

	f.widget = models.Product{Name: "Blue Widget", Price: dec("10.00"), Stock: 5, CategoryID: f.gadgets.ID}
	f.gizmo = models.Product{Name: "gizmo deluxe", Price: dec("2.50"), Stock: 50, CategoryID: f.gadgets.ID}
	f.novel = models.Product{Name: "A Novel", Price: dec("7.25"), Stock: 1, CategoryID: f.books.ID}
	for _, p := range []*models.Product{&f.widget, &f.gizmo, &f.novel} {
		require.NoError(t, db.Create(p).Error)
	}

	f.alice = models.User{Email: "alice@example.com", Name: "Alice", CreatedAt: day(2021, time.March, 1)}
	f.bob = models.User{Email: "bob@example.com", Name: "Bob", CreatedAt: day(2023, time.July, 10)}
	f.carol = models.User{Email: "carol@example.com", Name: "Carol", CreatedAt: day(2019, time.May, 5)}
	for _, u := range []*models.User{&f.alice, &f.bob, &f.carol} {
		require.NoError(t, db.Create(u).Error)
	}

	f.aliceOld = f.order(t, f.alice.ID, models.OrderStatusDelivered, day(2022, time.January, 15),
		models.OrderItem{ProductID: f.widget.ID, Quantity: 1, Price: dec("10.00")})
	f.aliceNew = f.order(t, f.alice.ID, models.OrderStatusPending, day(2024, time.February, 2),
		models.OrderItem{ProductID: f.widget.ID, Quantity: 2, Price: dec("10.00")},
		models.OrderItem{ProductID: f.gizmo.ID, Quantity: 2, Price: dec("2.50")})
	f.bobOrder = f.order(t, f.bob.ID, models.OrderStatusShipped, day(2023, time.August, 1),
		models.OrderItem{ProductID: f.gizmo.ID, Quantity: 4, Price: dec("2.50")})

	return f
}

func (f *fixture) order(t *testing.T, userID int64, status models.OrderStatus, at time.Time, items ...models.OrderItem) models.Order {
	t.Helper()
	order := models.Order{
		UserID:      userID,
		Status:      status,
		TotalAmount: models.ComputeTotal(items),
		Timestamps:  models.Timestamps{CreatedAt: at, UpdatedAt: at},
	}
	require.NoError(t, f.db.Omit("OrderItems", "User").Create(&order).Error)
	for i := range items {
		items[i].OrderID = order.ID
	}
	require.NoError(t, f.db.Omit("Order", "Product").Create(&items).Error)
	return order
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

// seededDB returns a database filled by the generator with a deterministic seed.
func seededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := dbtest.Open(t)
	counts := seeder.Counts{Categories: 4, Products: 30, Users: 25, Orders: 120, MinItems: 1, MaxItems: 5}
	_, err := seeder.NewGenerator(db, nil).Run(context.Background(), seeder.Options{
		RunID:     "svc",
		BatchSize: 50,
		Seed:      2024,
		Counts:    &counts,
	})
	require.NoError(t, err)
	return db
}
