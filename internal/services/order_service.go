// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/telemetry"
	"github.com/javajoker/querylab/internal/utils"
)

type OrderService struct {
	db       *gorm.DB
	cache    ReportCache
	recorder telemetry.Recorder
}

type CreateOrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	UserID int64                    `json:"userId" validate:"required,gt=0"`
	Items  []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderSearchParams struct {
	DateRange
	Status    models.OrderStatus `json:"status,omitempty" validate:"omitempty,order_status"`
	MinAmount decimal.Decimal    `json:"minAmount"`
}

func NewOrderService(db *gorm.DB, cache ReportCache, recorder telemetry.Recorder) *OrderService {
	return &OrderService{
		db:       db,
		cache:    cache,
		recorder: telemetry.OrNop(recorder),
	}
}

// SearchOrders filters on unindexed columns and eager loads the full graph for every match.
func (s *OrderService) SearchOrders(ctx context.Context, params OrderSearchParams) (utils.CollectionResult[models.Order], error) {
	if err := validateRequest(&params); err != nil {
		return utils.CollectionResult[models.Order]{}, err
	}
	start, end, err := params.Resolve()
	if err != nil {
		return utils.CollectionResult[models.Order]{}, err
	}
	done := track(ctx, s.recorder, "search_orders", StrategyInefficient)

	query := s.db.WithContext(ctx).Where("created_at BETWEEN ? AND ?", start, end)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.MinAmount.IsPositive() {
		query = query.Where("total_amount >= ?", params.MinAmount)
	}

	var orders []models.Order
	if err := OrderSearchPlan.Apply(models.OrderByNewest(query)).Find(&orders).Error; err != nil {
		return utils.CollectionResult[models.Order]{}, fmt.Errorf("database error: %w", err)
	}

	done(telemetry.Attrs{"rows": len(orders), "status": string(params.Status)})
	return utils.NewCollection(orders, WarningOrderSearch), nil
}

// GetOrder returns the order with its user and items only.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	done := track(ctx, s.recorder, "order_detail", StrategyOptimized)

	order, err := s.loadOrder(ctx, orderID, OrderDetailPlan)
	if err != nil {
		return nil, err
	}

	done(telemetry.Attrs{"order_id": orderID, "depth": OrderDetailPlan.Depth()})
	return order, nil
}

// GetOrderFullDetail returns the order with the deep plan. The shared fields
// match GetOrder; the extra relations are bounded by the plan's limits.
func (s *OrderService) GetOrderFullDetail(ctx context.Context, orderID int64) (*models.Order, string, error) {
	done := track(ctx, s.recorder, "order_detail", StrategyInefficient)

	order, err := s.loadOrder(ctx, orderID, OrderFullDetailPlan)
	if err != nil {
		return nil, "", err
	}

	done(telemetry.Attrs{"order_id": orderID, "depth": OrderFullDetailPlan.Depth()})
	return order, WarningDeepEagerLoad, nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID int64, plan FetchPlan) (*models.Order, error) {
	var order models.Order
	if err := plan.Apply(s.db.WithContext(ctx)).First(&order, orderID).Error; err != nil {
		return nil, lookupError(err, "order", orderID)
	}
	return &order, nil
}

// CreateOrder validates the request, then prices the items and writes the
// order and its lines in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if req == nil {
		return nil, &InvalidInputError{Reason: "request body is required"}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userCount int64
		if err := tx.Model(&models.User{}).Where("id = ?", req.UserID).Count(&userCount).Error; err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if userCount == 0 {
			return &MissingReferenceError{Resource: "user", ID: req.UserID}
		}

		prices, err := s.productPrices(tx, req.Items)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     prices[line.ProductID],
			})
		}

		order = models.Order{
			UserID:      req.UserID,
			Status:      models.OrderStatusPending,
			TotalAmount: models.ComputeTotal(items),
		}
		if err := tx.Omit("OrderItems", "User").Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Omit("Order", "Product").Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		order.OrderItems = items
		return nil
	})
	if err != nil {
		var missing *MissingReferenceError
		if errors.As(err, &missing) {
			s.recorder.Record(ctx, EventOrderCreated, telemetry.Attrs{"ok": false, "missing": missing.Resource, "id": missing.ID})
		}
		return nil, err
	}

	s.recorder.Record(ctx, EventOrderCreated, telemetry.Attrs{
		"ok":       true,
		"order_id": order.ID,
		"items":    len(order.OrderItems),
		"total":    order.TotalAmount.StringFixed(2),
	})
	s.invalidateReport(ctx)
	return &order, nil
}

// productPrices reads the current price of every referenced product in one query.
func (s *OrderService) productPrices(tx *gorm.DB, lines []CreateOrderItemRequest) (map[int64]decimal.Decimal, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	var products []models.Product
	if err := tx.Select("id", "price").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	prices := make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, &MissingReferenceError{Resource: "product", ID: id}
		}
	}
	return prices, nil
}

func (s *OrderService) invalidateReport(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProductReport(ctx); err != nil {
		s.recorder.Record(ctx, EventCacheError, telemetry.Attrs{"op": "invalidate", "error": err.Error()})
	}
}
