// internal/seeder/seeder.go
package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/querylab/internal/database"
	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/telemetry"
)

const (
	DefaultBatchSize = 500
	lookback         = 2 // years
	maxQuantity      = 5

	EventBatch = "seed.batch"
	EventReset = "seed.reset"
	EventDone  = "seed.done"
)

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

var categoryBases = []string{
	"Electronics", "Books", "Home & Kitchen", "Toys", "Sports", "Clothing", "Beauty",
	"Garden", "Automotive", "Grocery", "Office", "Music", "Health", "Pet Supplies", "Jewelry",
}

type Options struct {
	Tier      Tier
	Reset     bool
	RunID     string
	BatchSize int
	// Seed fixes the random source; zero picks one from the clock.
	Seed uint64
	// Counts overrides the tier's row counts when set.
	Counts *Counts
}

type Summary struct {
	RunID      string        `json:"runId"`
	Tier       Tier          `json:"tier"`
	Categories int64         `json:"categories"`
	Products   int64         `json:"products"`
	Users      int64         `json:"users"`
	Orders     int64         `json:"orders"`
	OrderItems int64         `json:"orderItems"`
	Duration   time.Duration `json:"duration"`
}

type Generator struct {
	db       *gorm.DB
	recorder telemetry.Recorder
	now      func() time.Time
}

func NewGenerator(db *gorm.DB, recorder telemetry.Recorder) *Generator {
	return &Generator{
		db:       db,
		recorder: telemetry.OrNop(recorder),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// run holds the per-invocation state.
type run struct {
	*Generator
	opts    Options
	counts  Counts
	faker   *gofakeit.Faker
	rng     *rand.Rand
	from    time.Time
	to      time.Time
	summary Summary
}

type pricedProduct struct {
	ID    int64
	Price decimal.Decimal
}

// Run inserts one tier's worth of rows: categories, products, users, then
// orders with their items. Any error aborts the run; batches already written stay.
func (g *Generator) Run(ctx context.Context, opts Options) (*Summary, error) {
	r, err := g.newRun(opts)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	if opts.Reset {
		if err := database.ResetSchema(g.db.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("failed to reset schema: %w", err)
		}
		g.recorder.Record(ctx, EventReset, telemetry.Attrs{"run_id": r.opts.RunID})
	}

	steps := []func(context.Context) error{
		r.seedCategories,
		r.seedProducts,
		r.seedUsers,
		r.seedOrders,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return &r.summary, err
		}
	}

	r.summary.Duration = time.Since(started)
	g.recorder.Record(ctx, EventDone, telemetry.Attrs{
		"run_id":      r.summary.RunID,
		"tier":        string(r.summary.Tier),
		"categories":  r.summary.Categories,
		"products":    r.summary.Products,
		"users":       r.summary.Users,
		"orders":      r.summary.Orders,
		"order_items": r.summary.OrderItems,
		"duration_ms": r.summary.Duration.Milliseconds(),
	})
	return &r.summary, nil
}

func (g *Generator) newRun(opts Options) (*run, error) {
	if opts.Tier == "" {
		opts.Tier = TierSmall
	}
	tier, err := ParseTier(string(opts.Tier))
	if err != nil {
		return nil, err
	}
	opts.Tier = tier
	counts := tier.Counts()
	if opts.Counts != nil {
		counts = *opts.Counts
	}
	if err := counts.validate(); err != nil {
		return nil, err
	}

	if opts.RunID == "" {
		opts.RunID = strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	if !runIDPattern.MatchString(opts.RunID) {
		return nil, fmt.Errorf("run id %q must be 1-32 letters, digits, '-' or '_'", opts.RunID)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}

	to := g.now().Truncate(time.Microsecond)
	return &run{
		Generator: g,
		opts:      opts,
		counts:    counts,
		faker:     gofakeit.New(opts.Seed),
		rng:       rand.New(rand.NewPCG(opts.Seed, opts.Seed>>1|1)),
		from:      to.AddDate(-lookback, 0, 0),
		to:        to,
		summary:   Summary{RunID: opts.RunID, Tier: opts.Tier},
	}, nil
}

// insertGenerated builds and inserts n rows in chunks of size, so only one
// chunk is held in memory at a time.
func insertGenerated[T any](ctx context.Context, r *run, entity string, n int, build func(seq int) T) (int64, error) {
	var inserted int64
	for start := 0; start < n; start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, n)
		chunk := make([]T, 0, end-start)
		for seq := start; seq < end; seq++ {
			chunk = append(chunk, build(seq+1))
		}

		if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&chunk).Error; err != nil {
			return inserted, fmt.Errorf("failed to insert %s batch starting at %d: %w", entity, start+1, err)
		}
		inserted += int64(len(chunk))
		r.recorder.Record(ctx, EventBatch, telemetry.Attrs{
			"run_id": r.opts.RunID, "entity": entity, "inserted": inserted, "target": n,
		})
	}
	return inserted, nil
}

func (r *run) seedCategories(ctx context.Context) error {
	n, err := insertGenerated(ctx, r, "categories", r.counts.Categories, func(seq int) models.Category {
		return models.Category{
			Name:        CategoryName(r.opts.RunID, seq),
			Description: r.faker.ProductDescription(),
		}
	})
	r.summary.Categories = n
	return err
}

func (r *run) seedProducts(ctx context.Context) error {
	if r.counts.Products == 0 {
		return nil
	}
	var categoryIDs []int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Order("id").Pluck("id", &categoryIDs).Error; err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categoryIDs) == 0 {
		return errors.New("cannot generate products without categories")
	}

	n, err := insertGenerated(ctx, r, "products", r.counts.Products, func(int) models.Product {
		created := r.timestamp()
		return models.Product{
			Name:        r.faker.ProductName(),
			Description: r.faker.ProductDescription(),
			Price:       decimal.NewFromFloat(r.faker.Price(1, 500)).Round(2),
			Stock:       r.rng.IntN(1000),
			CategoryID:  categoryIDs[r.rng.IntN(len(categoryIDs))],
			Timestamps:  models.Timestamps{CreatedAt: created, UpdatedAt: created},
		}
	})
	r.summary.Products = n
	return err
}

func (r *run) seedUsers(ctx context.Context) error {
	n, err := insertGenerated(ctx, r, "users", r.counts.Users, func(seq int) models.User {
		first, last := r.faker.FirstName(), r.faker.LastName()
		return models.User{
			Email:     UserEmail(first, r.opts.RunID, seq),
			Name:      first + " " + last,
			CreatedAt: r.timestamp(),
		}
	})
	r.summary.Users = n
	return err
}

func (r *run) seedOrders(ctx context.Context) error {
	if r.counts.Orders == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)

	var userIDs []int64
	if err := db.Model(&models.User{}).Order("id").Pluck("id", &userIDs).Error; err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	var catalog []pricedProduct
	if err := db.Model(&models.Product{}).Select("id", "price").Order("id").Scan(&catalog).Error; err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if len(userIDs) == 0 || len(catalog) == 0 {
		return errors.New("cannot generate orders without users and products")
	}

	for start := 0; start < r.counts.Orders; start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, r.counts.Orders)
		orders := make([]models.Order, 0, end-start)
		for i := start; i < end; i++ {
			orders = append(orders, r.buildOrder(userIDs, catalog))
		}

		items, err := r.insertOrderBatch(ctx, orders)
		if err != nil {
			return fmt.Errorf("failed to insert order batch starting at %d: %w", start+1, err)
		}
		r.summary.Orders += int64(len(orders))
		r.summary.OrderItems += items
		r.recorder.Record(ctx, EventBatch, telemetry.Attrs{
			"run_id": r.opts.RunID, "entity": "orders", "inserted": r.summary.Orders, "target": r.counts.Orders,
		})
	}
	return nil
}

// buildOrder draws distinct products for the order and fixes the total up front.
func (r *run) buildOrder(userIDs []int64, catalog []pricedProduct) models.Order {
	size := r.counts.MinItems + r.rng.IntN(r.counts.MaxItems-r.counts.MinItems+1)
	picks := pickDistinct(r.rng, len(catalog), size)

	items := make([]models.OrderItem, 0, len(picks))
	for _, idx := range picks {
		items = append(items, models.OrderItem{
			ProductID: catalog[idx].ID,
			Quantity:  1 + r.rng.IntN(maxQuantity),
			Price:     catalog[idx].Price,
		})
	}

	created := r.timestamp()
	return models.Order{
		UserID:      userIDs[r.rng.IntN(len(userIDs))],
		Status:      models.OrderStatuses[r.rng.IntN(len(models.OrderStatuses))],
		TotalAmount: models.ComputeTotal(items),
		Timestamps:  models.Timestamps{CreatedAt: created, UpdatedAt: created},
		OrderItems:  items,
	}
}

// insertOrderBatch writes the orders, then their items, in one transaction.
func (r *run) insertOrderBatch(ctx context.Context, orders []models.Order) (int64, error) {
	var inserted int64
	err := database.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).CreateInBatches(&orders, r.opts.BatchSize).Error; err != nil {
			return err
		}

		var items []models.OrderItem
		for _, order := range orders {
			for _, item := range order.OrderItems {
				item.OrderID = order.ID
				items = append(items, item)
			}
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(&items, r.opts.BatchSize).Error; err != nil {
			return err
		}
		inserted = int64(len(items))
		return nil
	})
	return inserted, err
}

func (r *run) timestamp() time.Time {
	span := r.to.Sub(r.from)
	return r.from.Add(time.Duration(r.rng.Int64N(int64(span)))).Truncate(time.Microsecond)
}

// pickDistinct returns k distinct indexes in [0, n), or all n when k > n.
func pickDistinct(rng *rand.Rand, n, k int) []int {
	if k >= n {
		return rng.Perm(n)
	}
	if k*4 >= n {
		return rng.Perm(n)[:k]
	}
	seen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for len(out) < k {
		idx := rng.IntN(n)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// UserEmail is unique per (runID, seq); the name part is cosmetic.
func UserEmail(firstName, runID string, seq int) string {
	local := strings.ToLower(nonAlnum.ReplaceAllString(firstName, ""))
	if local == "" {
		local = "user"
	}
	return fmt.Sprintf("%s.%s.%d@example.com", local, runID, seq)
}

// CategoryName is unique per (runID, seq).
func CategoryName(runID string, seq int) string {
	base := categoryBases[(seq-1)%len(categoryBases)]
	return fmt.Sprintf("%s #%s-%d", base, runID, seq)
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)
