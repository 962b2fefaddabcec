package domain

import (
	"time"

	"github.com/bjo163/wagateway/pkg/common"
	"gorm.io/gorm"
)

// OtpRequest holds the latest OTP issued to a phone number. One row per number.
type OtpRequest struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	PhoneNumber string    `json:"phone_number" gorm:"size:32;uniqueIndex"`
	OtpCode     string    `json:"otp_code" gorm:"size:16"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (OtpRequest) TableName() string {
	return "otp_requests"
}

func (r *OtpRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == 0 {
		r.ID = common.UUIDint64()
	}
	return nil
}

// ApprovalRequest is a pending single-use approval code. It is deleted once the
// user replies with the code before ExpiresAt.
type ApprovalRequest struct {
	ID           int64     `json:"id,string" gorm:"primaryKey"`
	PhoneNumber  string    `json:"phone_number" gorm:"size:32;uniqueIndex"`
	ApprovalCode string    `json:"approval_code" gorm:"size:16"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"index"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

func (r *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == 0 {
		r.ID = common.UUIDint64()
	}
	return nil
}

// BroadcastLog is an append-only record of one broadcast delivery.
type BroadcastLog struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	PhoneNumber string    `json:"phone_number" gorm:"size:32;index"`
	Message     string    `json:"message" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

func (BroadcastLog) TableName() string {
	return "broadcast_logs"
}

func (r *BroadcastLog) BeforeCreate(tx *gorm.DB) error {
	if r.ID == 0 {
		r.ID = common.UUIDint64()
	}
	return nil
}

func (r *WhatsAppDevice) BeforeCreate(tx *gorm.DB) error {
	if r.ID == 0 {
		r.ID = common.UUIDint64()
	}
	return nil
}
