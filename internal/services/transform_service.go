package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/textshiftapp/textshift-backend/internal/models"
	"gorm.io/gorm"
)

// TransformService persists completed transformations and serves the
// dashboard history and usage chart.
type TransformService struct {
	db *gorm.DB
}

func NewTransformService(db *gorm.DB) *TransformService {
	return &TransformService{db: db}
}

func (s *TransformService) Record(userID uuid.UUID, original, transformed, tone, length string) (*models.Transformation, error) {
	record := models.Transformation{
		UserID:          userID,
		OriginalText:    original,
		TransformedText: transformed,
		Tone:            tone,
		Length:          length,
	}

	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record transformation: %w", err)
	}
	return &record, nil
}

func (s *TransformService) History(userID uuid.UUID, limit, offset int) ([]models.Transformation, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var total int64
	if err := s.db.Model(&models.Transformation{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transformations: %w", err)
	}

	var records []models.Transformation
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transformations: %w", err)
	}

	return records, total, nil
}

// UsageTrend returns per-day transformation counts for the last N days,
// filling days without activity with zero so the chart has no gaps.
func (s *TransformService) UsageTrend(userID uuid.UUID, days int) ([]map[string]interface{}, error) {
	if days > 30 {
		days = 30
	}
	if days < 1 {
		days = 7
	}

	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	startDate := endDate.AddDate(0, 0, -(days - 1))

	type dailyCount struct {
		Day   time.Time
		Count int
	}
	var counts []dailyCount
	if err := s.db.Model(&models.Transformation{}).
		Where("user_id = ? AND created_at >= ?", userID, startDate).
		Select("DATE(created_at) as day, COUNT(*) as count").
		Group("DATE(created_at)").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch usage trend: %w", err)
	}

	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Day.Format("2006-01-02")] = c.Count
	}

	result := make([]map[string]interface{}, 0, days)
	for i := 0; i < days; i++ {
		date := startDate.AddDate(0, 0, i).Format("2006-01-02")
		result = append(result, map[string]interface{}{
			"date":  date,
			"count": byDay[date],
		})
	}

	return result, nil
}
