package verification

import (
	"context"
	"time"

	"github.com/bjo163/wagateway/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OtpRepository persists one OTP row per phone number.
type OtpRepository interface {
	// Upsert inserts the code or overwrites the existing row for phone in place.
	Upsert(ctx context.Context, phone, code string) (*domain.OtpRequest, error)

	// FindLatest returns the newest row matching phone and code, or nil.
	FindLatest(ctx context.Context, phone, code string) (*domain.OtpRequest, error)

	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ApprovalRepository persists one pending approval per phone number.
type ApprovalRepository interface {
	Upsert(ctx context.Context, phone, code string, expiresAt time.Time) (*domain.ApprovalRequest, error)

	// FindActive returns the newest unexpired row matching phone and code, or nil.
	FindActive(ctx context.Context, phone, code string, now time.Time) (*domain.ApprovalRequest, error)

	Delete(ctx context.Context, id int64) error

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GormOtpRepository is the GORM implementation of OtpRepository
type GormOtpRepository struct {
	db *gorm.DB
}

func NewGormOtpRepository(db *gorm.DB) *GormOtpRepository {
	return &GormOtpRepository{db: db}
}

func (r *GormOtpRepository) Upsert(ctx context.Context, phone, code string) (*domain.OtpRequest, error) {
	rec := &domain.OtpRequest{PhoneNumber: phone, OtpCode: code}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"otp_code":   code,
			"updated_at": time.Now(),
		}),
	}).Create(rec).Error
	if err != nil {
		return nil, err
	}
	// the stored id survives a conflicting insert, read it back
	var saved domain.OtpRequest
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *GormOtpRepository) FindLatest(ctx context.Context, phone, code string) (*domain.OtpRequest, error) {
	var rows []domain.OtpRequest
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND otp_code = ?", phone, code).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *GormOtpRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&domain.OtpRequest{})
	return res.RowsAffected, res.Error
}

// GormApprovalRepository is the GORM implementation of ApprovalRepository
type GormApprovalRepository struct {
	db *gorm.DB
}

func NewGormApprovalRepository(db *gorm.DB) *GormApprovalRepository {
	return &GormApprovalRepository{db: db}
}

func (r *GormApprovalRepository) Upsert(ctx context.Context, phone, code string, expiresAt time.Time) (*domain.ApprovalRequest, error) {
	rec := &domain.ApprovalRequest{PhoneNumber: phone, ApprovalCode: code, ExpiresAt: expiresAt}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"approval_code": code,
			"expires_at":    expiresAt,
			"updated_at":    time.Now(),
		}),
	}).Create(rec).Error
	if err != nil {
		return nil, err
	}
	var saved domain.ApprovalRequest
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *GormApprovalRepository) FindActive(ctx context.Context, phone, code string, now time.Time) (*domain.ApprovalRequest, error) {
	var rows []domain.ApprovalRequest
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND approval_code = ? AND expires_at > ?", phone, code, now).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *GormApprovalRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.ApprovalRequest{}, id).Error
}

func (r *GormApprovalRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.ApprovalRequest{})
	return res.RowsAffected, res.Error
}
