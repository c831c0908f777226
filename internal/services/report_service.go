// internal/services/report_service.go
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/telemetry"
	"github.com/javajoker/querylab/internal/utils"
)

// ProductReportRow is one product's sales summary. Products without sales
// appear with zero totals.
type ProductReportRow struct {
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	CategoryName string          `json:"categoryName"`
	TotalSold    int64           `json:"totalSold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	OrderCount   int64           `json:"orderCount"`
}

// ReportCache stores the aggregated product report outside the process.
type ReportCache interface {
	GetProductReport(ctx context.Context) ([]ProductReportRow, bool, error)
	SetProductReport(ctx context.Context, rows []ProductReportRow) error
	InvalidateProductReport(ctx context.Context) error
}

type ReportService struct {
	db       *gorm.DB
	cache    ReportCache
	recorder telemetry.Recorder
}

func NewReportService(db *gorm.DB, cache ReportCache, recorder telemetry.Recorder) *ReportService {
	return &ReportService{
		db:       db,
		cache:    cache,
		recorder: telemetry.OrNop(recorder),
	}
}

// ProductReportSlow loads every product with its full sales graph and folds it in memory.
func (s *ReportService) ProductReportSlow(ctx context.Context) (utils.CollectionResult[ProductReportRow], error) {
	done := track(ctx, s.recorder, "product_report", StrategyInefficient)

	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("OrderItems").
		Preload("OrderItems.Order").
		Preload("OrderItems.Order.User").
		Find(&products).Error
	if err != nil {
		return utils.CollectionResult[ProductReportRow]{}, fmt.Errorf("database error: %w", err)
	}

	rows := make([]ProductReportRow, 0, len(products))
	for _, p := range products {
		row := ProductReportRow{
			ProductID:    p.ID,
			ProductName:  p.Name,
			TotalRevenue: decimal.Zero,
		}
		if p.Category != nil {
			row.CategoryName = p.Category.Name
		}
		for _, item := range p.OrderItems {
			row.TotalSold += int64(item.Quantity)
			row.TotalRevenue = row.TotalRevenue.Add(item.LineTotal())
			row.OrderCount++
		}
		row.TotalRevenue = row.TotalRevenue.Round(2)
		rows = append(rows, row)
	}
	sortReport(rows)

	done(telemetry.Attrs{"rows": len(rows)})
	return utils.NewCollection(rows, WarningCartesianReport), nil
}

// ProductReportFast aggregates in the database with a single grouped query.
// When a cache is configured it is consulted first and refilled on a miss.
func (s *ReportService) ProductReportFast(ctx context.Context) (utils.CollectionResult[ProductReportRow], error) {
	done := track(ctx, s.recorder, "product_report", StrategyOptimized)

	if rows, ok := s.cached(ctx); ok {
		done(telemetry.Attrs{"rows": len(rows), "cache": "hit"})
		return utils.NewCollection(rows, ""), nil
	}

	rows, err := s.aggregate(ctx)
	if err != nil {
		return utils.CollectionResult[ProductReportRow]{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetProductReport(ctx, rows); err != nil {
			s.recorder.Record(ctx, EventCacheError, telemetry.Attrs{"op": "set", "error": err.Error()})
		}
	}

	done(telemetry.Attrs{"rows": len(rows), "cache": "miss"})
	return utils.NewCollection(rows, ""), nil
}

func (s *ReportService) aggregate(ctx context.Context) ([]ProductReportRow, error) {
	var rows []ProductReportRow
	if err := productReportQuery(s.db.WithContext(ctx)).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate product report: %w", err)
	}

	for i := range rows {
		rows[i].TotalRevenue = rows[i].TotalRevenue.Round(2)
	}
	// Rounding can tie rows the database ordered apart.
	sortReport(rows)
	if rows == nil {
		rows = []ProductReportRow{}
	}
	return rows, nil
}

// productReportQuery groups order lines per product in one statement, highest revenue first.
func productReportQuery(db *gorm.DB) *gorm.DB {
	return db.Table("products AS p").
		Select(`p.id AS product_id,
			p.name AS product_name,
			c.name AS category_name,
			COALESCE(SUM(oi.quantity), 0) AS total_sold,
			COALESCE(SUM(oi.quantity * oi.price), 0) AS total_revenue,
			COUNT(oi.id) AS order_count`).
		Joins("JOIN categories c ON c.id = p.category_id").
		Joins("LEFT JOIN order_items oi ON oi.product_id = p.id").
		Group("p.id, p.name, c.name").
		Order("total_revenue DESC, p.id ASC")
}

func (s *ReportService) cached(ctx context.Context) ([]ProductReportRow, bool) {
	if s.cache == nil {
		return nil, false
	}
	rows, ok, err := s.cache.GetProductReport(ctx)
	if err != nil {
		s.recorder.Record(ctx, EventCacheError, telemetry.Attrs{"op": "get", "error": err.Error()})
		return nil, false
	}
	if ok {
		s.recorder.Record(ctx, EventCacheHit, telemetry.Attrs{"rows": len(rows)})
	}
	return rows, ok
}

// sortReport orders by revenue descending, then product id ascending.
func sortReport(rows []ProductReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].TotalRevenue.Cmp(rows[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return rows[i].ProductID < rows[j].ProductID
	})
}
