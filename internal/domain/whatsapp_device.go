package domain

import "time"

// WhatsAppDevice mirrors the state of the single linked WhatsApp session so the
// status can be inspected from the database.
type WhatsAppDevice struct {
	ID            int64      `json:"id,string" gorm:"primaryKey"`
	Phone         string     `json:"phone" gorm:"size:32"`
	Jid           string     `json:"jid" gorm:"size:128"` // populated after pairing
	Status        string     `json:"status" gorm:"size:32"`
	LastPairingAt *time.Time `json:"last_pairing_at"`
	LastError     string     `json:"last_error" gorm:"size:500"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (WhatsAppDevice) TableName() string {
	return "whatsapp_device"
}
