// internal/models/chat.go
package models

import (
	"time"
)

type ChatMessage struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	LicenseKey *string    `json:"license_key" gorm:"size:32;index"`
	HWID       *string    `json:"hwid" gorm:"column:hwid;size:256;index"`
	Message    string     `json:"message" gorm:"type:text;not null"`
	SenderType SenderType `json:"sender_type" gorm:"type:varchar(10);not null"`
	Timestamp  time.Time  `json:"timestamp" gorm:"not null;index"`
	IsRead     bool       `json:"is_read" gorm:"not null;default:false"`
}
