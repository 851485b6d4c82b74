// internal/services/stats_service.go
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/models"
)

const recentActivityWindow = 7 * 24 * time.Hour

type StatsService struct {
	db  *gorm.DB
	now Clock
}

type ServerStatus struct {
	Status         string    `json:"status"`
	TotalLicenses  int64     `json:"total_licenses"`
	ActiveLicenses int64     `json:"active_licenses"`
	TotalMessages  int64     `json:"total_messages"`
	ServerTime     time.Time `json:"server_time"`
}

type LicenseStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Expired   int64 `json:"expired"`
	Activated int64 `json:"activated"`
}

type ChatStats struct {
	TotalMessages  int64 `json:"total_messages"`
	UnreadMessages int64 `json:"unread_messages"`
}

type AdminAccountStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type AdminDashboardStats struct {
	Licenses       LicenseStats      `json:"licenses"`
	Chat           ChatStats         `json:"chat"`
	Admins         AdminAccountStats `json:"admins"`
	RecentActivity int64             `json:"recent_activity"`
	ServerTime     time.Time         `json:"server_time"`
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		db:  db,
		now: SystemClock,
	}
}

type counter struct {
	model interface{}
	where string
	args  []interface{}
	dest  *int64
}

func (s *StatsService) count(ctx context.Context, counters []counter) error {
	db := s.db.WithContext(ctx)
	for _, c := range counters {
		query := db.Model(c.model)
		if c.where != "" {
			query = query.Where(c.where, c.args...)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return storageError("count", err, nil)
		}
	}
	return nil
}

func (s *StatsService) ServerStatus(ctx context.Context) (*ServerStatus, error) {
	status := &ServerStatus{Status: "online"}

	err := s.count(ctx, []counter{
		{model: &models.License{}, dest: &status.TotalLicenses},
		{model: &models.License{}, where: "is_active = ?", args: []interface{}{true}, dest: &status.ActiveLicenses},
		{model: &models.ChatMessage{}, dest: &status.TotalMessages},
	})
	if err != nil {
		return nil, err
	}

	status.ServerTime = s.now()
	return status, nil
}

func (s *StatsService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := s.now()

	err := s.count(ctx, []counter{
		// License statistics
		{model: &models.License{}, dest: &stats.Licenses.Total},
		{model: &models.License{}, where: "is_active = ?", args: []interface{}{true}, dest: &stats.Licenses.Active},
		{model: &models.License{}, where: "expires_at < ?", args: []interface{}{now}, dest: &stats.Licenses.Expired},
		{model: &models.License{}, where: "hwid IS NOT NULL AND hwid <> ''", dest: &stats.Licenses.Activated},

		// Chat statistics
		{model: &models.ChatMessage{}, dest: &stats.Chat.TotalMessages},
		{model: &models.ChatMessage{}, where: "is_read = ?", args: []interface{}{false}, dest: &stats.Chat.UnreadMessages},

		// Admin statistics
		{model: &models.AdminUser{}, dest: &stats.Admins.Total},
		{model: &models.AdminUser{}, where: "is_active = ?", args: []interface{}{true}, dest: &stats.Admins.Active},

		// Recent activity
		{model: &models.License{}, where: "last_used > ?", args: []interface{}{now.Add(-recentActivityWindow)}, dest: &stats.RecentActivity},
	})
	if err != nil {
		return nil, err
	}

	stats.ServerTime = now
	return stats, nil
}
