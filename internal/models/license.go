// internal/models/license.go
package models

import (
	"time"
)

// License is a key bound, at most once, to a single hardware fingerprint.
type License struct {
	Key           string     `json:"key" gorm:"primaryKey;size:32"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null"`
	ExpiresAt     time.Time  `json:"expires_at" gorm:"not null;index"`
	IsActive      bool       `json:"is_active" gorm:"not null;index"`
	HWID          string     `json:"hwid" gorm:"column:hwid;size:256;not null;default:''"`
	UsedCount     int64      `json:"used_count" gorm:"not null;default:0"`
	LastUsed      *time.Time `json:"last_used"`
	CustomerName  *string    `json:"customer_name" gorm:"size:255"`
	CustomerEmail *string    `json:"customer_email" gorm:"size:255"`
}

// IsBound reports whether the activation binding has happened.
func (l *License) IsBound() bool {
	return l.HWID != ""
}

func (l *License) IsExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
