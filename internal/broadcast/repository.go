package broadcast

import (
	"context"
	"time"

	"github.com/bjo163/wagateway/internal/domain"
	"gorm.io/gorm"
)

// LogRepository stores the append-only broadcast delivery log.
type LogRepository interface {
	Create(ctx context.Context, log *domain.BroadcastLog) error

	// DeleteOlderThan removes entries older than days.
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// GormLogRepository is the GORM implementation of LogRepository
type GormLogRepository struct {
	db *gorm.DB
}

func NewGormLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

func (r *GormLogRepository) Create(ctx context.Context, log *domain.BroadcastLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *GormLogRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.BroadcastLog{})
	return res.RowsAffected, res.Error
}
