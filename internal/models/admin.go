// internal/models/admin.go
package models

import (
	"time"
)

type AdminUser struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
}

// AdminSession is the persisted half of a bearer token. The token string
// alone does not name its owner; Username is recovered from this row.
type AdminSession struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	SessionToken string    `json:"-" gorm:"uniqueIndex;size:128;not null"`
	Username     string    `json:"username" gorm:"size:50;not null;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null;index"`
}
