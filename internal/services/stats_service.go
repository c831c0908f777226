// internal/services/stats_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/models"
)

type StatsService struct {
	db *gorm.DB
}

type DatasetStats struct {
	Categories int64 `json:"categories"`
	Products   int64 `json:"products"`
	Users      int64 `json:"users"`
	Orders     int64 `json:"orders"`
	OrderItems int64 `json:"orderItems"`
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) GetDatasetStats(ctx context.Context) (*DatasetStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DatasetStats{}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Category{}, &stats.Categories},
		{&models.Product{}, &stats.Products},
		{&models.User{}, &stats.Users},
		{&models.Order{}, &stats.Orders},
		{&models.OrderItem{}, &stats.OrderItems},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	return stats, nil
}
