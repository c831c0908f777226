// internal/services/user_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/telemetry"
	"github.com/javajoker/querylab/internal/utils"
)

type UserService struct {
	db       *gorm.DB
	recorder telemetry.Recorder
}

// DateRange bounds a createdAt filter. Nil ends fall back to DefaultSearchStart and now.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

var DefaultSearchStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var now = func() time.Time { return time.Now().UTC() }

func (r DateRange) Resolve() (time.Time, time.Time, error) {
	start, end := DefaultSearchStart, now()
	if r.Start != nil {
		start = r.Start.UTC()
	}
	if r.End != nil {
		end = r.End.UTC()
	}
	if start.After(end) {
		return start, end, &InvalidInputError{Reason: "startDate is after endDate"}
	}
	return start, end, nil
}

func NewUserService(db *gorm.DB, recorder telemetry.Recorder) *UserService {
	return &UserService{
		db:       db,
		recorder: telemetry.OrNop(recorder),
	}
}

// ListAllUsers returns every user, newest first.
func (s *UserService) ListAllUsers(ctx context.Context) (utils.CollectionResult[models.User], error) {
	done := track(ctx, s.recorder, "list_users", StrategyInefficient)

	var users []models.User
	if err := models.OrderByNewest(s.db.WithContext(ctx)).Find(&users).Error; err != nil {
		return utils.CollectionResult[models.User]{}, fmt.Errorf("database error: %w", err)
	}

	done(telemetry.Attrs{"rows": len(users)})
	return utils.NewCollection(users, WarningUnboundedList), nil
}

// ListUsers returns one page of users, newest first.
func (s *UserService) ListUsers(ctx context.Context, params utils.PaginationParams) (utils.PaginatedResult[models.User], error) {
	params = params.Normalize()
	done := track(ctx, s.recorder, "list_users", StrategyOptimized)
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return utils.PaginatedResult[models.User]{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	query := utils.ApplyPagination(models.OrderByNewest(db), params)
	if err := query.Find(&users).Error; err != nil {
		return utils.PaginatedResult[models.User]{}, fmt.Errorf("database error: %w", err)
	}

	done(telemetry.Attrs{"rows": len(users), "page": params.Page})
	return utils.CreatePaginationResult(users, total, params), nil
}

// SearchUsersByDate filters on the unindexed users.created_at column.
func (s *UserService) SearchUsersByDate(ctx context.Context, r DateRange) (utils.CollectionResult[models.User], error) {
	start, end, err := r.Resolve()
	if err != nil {
		return utils.CollectionResult[models.User]{}, err
	}
	done := track(ctx, s.recorder, "search_users_by_date", StrategyInefficient)

	var users []models.User
	query := s.db.WithContext(ctx).Where("created_at BETWEEN ? AND ?", start, end)
	if err := models.OrderByNewest(query).Find(&users).Error; err != nil {
		return utils.CollectionResult[models.User]{}, fmt.Errorf("database error: %w", err)
	}

	done(telemetry.Attrs{"rows": len(users)})
	return utils.NewCollection(users, WarningUnindexedRange), nil
}

// GetUserOrdersNPlusOne walks the order graph one row at a time.
func (s *UserService) GetUserOrdersNPlusOne(ctx context.Context, userID int64) (utils.CollectionResult[models.Order], error) {
	done := track(ctx, s.recorder, "user_orders", StrategyInefficient)
	db := s.db.WithContext(ctx)

	if err := s.ensureUser(db, userID); err != nil {
		return utils.CollectionResult[models.Order]{}, err
	}

	var orders []models.Order
	if err := models.OrderByNewest(db.Where("user_id = ?", userID)).Find(&orders).Error; err != nil {
		return utils.CollectionResult[models.Order]{}, fmt.Errorf("database error: %w", err)
	}
	queries := 2

	for i := range orders {
		var items []models.OrderItem
		if err := db.Where("order_id = ?", orders[i].ID).Order("id ASC").Find(&items).Error; err != nil {
			return utils.CollectionResult[models.Order]{}, fmt.Errorf("failed to load items for order %d: %w", orders[i].ID, err)
		}
		queries++

		for j := range items {
			var product models.Product
			if err := db.First(&product, items[j].ProductID).Error; err != nil {
				return utils.CollectionResult[models.Order]{}, lookupError(err, "product", items[j].ProductID)
			}
			var category models.Category
			if err := db.First(&category, product.CategoryID).Error; err != nil {
				return utils.CollectionResult[models.Order]{}, lookupError(err, "category", product.CategoryID)
			}
			queries += 2

			product.Category = &category
			items[j].Product = &product
		}
		orders[i].OrderItems = items
	}

	done(telemetry.Attrs{"user_id": userID, "rows": len(orders), "queries": queries})
	return utils.NewCollection(orders, WarningNPlusOne), nil
}

// GetUserOrders loads the same graph with one preload plan.
func (s *UserService) GetUserOrders(ctx context.Context, userID int64) (utils.CollectionResult[models.Order], error) {
	done := track(ctx, s.recorder, "user_orders", StrategyOptimized)
	db := s.db.WithContext(ctx)

	if err := s.ensureUser(db, userID); err != nil {
		return utils.CollectionResult[models.Order]{}, err
	}

	var orders []models.Order
	query := UserOrdersPlan.Apply(models.OrderByNewest(db.Where("user_id = ?", userID)))
	if err := query.Find(&orders).Error; err != nil {
		return utils.CollectionResult[models.Order]{}, fmt.Errorf("database error: %w", err)
	}

	done(telemetry.Attrs{"user_id": userID, "rows": len(orders), "queries": 2 + UserOrdersPlan.Depth()})
	return utils.NewCollection(orders, ""), nil
}

func (s *UserService) ensureUser(db *gorm.DB, userID int64) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return &NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}
