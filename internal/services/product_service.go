// internal/services/product_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/models"
	"github.com/javajoker/querylab/internal/telemetry"
	"github.com/javajoker/querylab/internal/utils"
)

type ProductService struct {
	db       *gorm.DB
	recorder telemetry.Recorder
}

// CategorySummary is a category with the number of products filed under it.
type CategorySummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ProductCount int64  `json:"productCount"`
}

func NewProductService(db *gorm.DB, recorder telemetry.Recorder) *ProductService {
	return &ProductService{
		db:       db,
		recorder: telemetry.OrNop(recorder),
	}
}

func byName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC").Order("id ASC")
}

// SearchProducts matches the term anywhere in the product name, case-insensitively.
// An empty term matches every product.
func (s *ProductService) SearchProducts(ctx context.Context, term string) (utils.CollectionResult[models.Product], error) {
	done := track(ctx, s.recorder, "search_products", StrategyInefficient)

	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	query := s.db.WithContext(ctx).
		Preload("Category").
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)

	var products []models.Product
	if err := byName(query).Find(&products).Error; err != nil {
		return utils.CollectionResult[models.Product]{}, fmt.Errorf("database error: %w", err)
	}

	done(telemetry.Attrs{"rows": len(products), "term": term})
	return utils.NewCollection(products, WarningSubstringSearch), nil
}

// ListProducts returns one page of products ordered by name.
func (s *ProductService) ListProducts(ctx context.Context, params utils.PaginationParams) (utils.PaginatedResult[models.Product], error) {
	params = params.Normalize()
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return utils.PaginatedResult[models.Product]{}, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	query := utils.ApplyPagination(byName(db.Preload("Category")), params)
	if err := query.Find(&products).Error; err != nil {
		return utils.PaginatedResult[models.Product]{}, fmt.Errorf("database error: %w", err)
	}

	return utils.CreatePaginationResult(products, total, params), nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&product, productID).Error; err != nil {
		return nil, lookupError(err, "product", productID)
	}
	return &product, nil
}

func (s *ProductService) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	var categories []CategorySummary
	err := s.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.id, c.name, c.description, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.category_id = c.id").
		Group("c.id, c.name, c.description").
		Order("c.name ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if categories == nil {
		categories = []CategorySummary{}
	}
	return categories, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
