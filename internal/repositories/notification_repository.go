package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"talentvault_backend/internal/models"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationData = errors.New("invalid notification data")
)

// Notification type constants
const (
	NotificationTypeLike      = "like"
	NotificationTypeComment   = "comment"
	NotificationTypeFollow    = "follow"
	NotificationTypeMention   = "mention"
	NotificationTypeVideo     = "video"
	NotificationTypeMessage   = "message"
	NotificationTypeIndustry  = "industry"
	NotificationTypeBroadcast = "broadcast"
)

type NotificationRepository interface {
	// Notification operations
	CreateNotification(notification *models.Notification) error
	CreateBulkNotifications(notifications []*models.Notification) error
	FindNotificationByID(id string) (*models.Notification, error)
	FindUserNotifications(userID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	MarkAsRead(notificationID string) error
	MarkAllAsRead(userID string) error
	DeleteNotification(id string) error
	DeleteUserNotifications(userID string) error

	// Notification stats
	GetUserNotificationStats(userID string) (*NotificationStats, error)
	GetUnreadCount(userID string) (int64, error)

	// Maintenance
	CleanOldNotifications(days int) error
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// Search criteria for notifications
type NotificationCriteria struct {
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Notification statistics
type NotificationStats struct {
	TotalNotifications int64            `json:"total_notifications"`
	UnreadCount        int64            `json:"unread_count"`
	ReadCount          int64            `json:"read_count"`
	ByType             map[string]int64 `json:"by_type"`
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) CreateNotification(notification *models.Notification) error {
	if err := r.validateNotification(notification); err != nil {
		return err
	}
	return r.db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) CreateBulkNotifications(notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	for _, notification := range notifications {
		if err := r.validateNotification(notification); err != nil {
			return err
		}
	}

	return r.db.CreateInBatches(notifications, 100).Error
}

func (r *NotificationRepositoryImpl) FindNotificationByID(id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindUserNotifications(userID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	query := r.db.Model(&models.Notification{}).Where("recipient_id = ?", userID)

	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *NotificationRepositoryImpl) MarkAsRead(notificationID string) error {
	now := time.Now()
	result := r.db.Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(userID string) error {
	now := time.Now()
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}

func (r *NotificationRepositoryImpl) DeleteNotification(id string) error {
	result := r.db.Delete(&models.Notification{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) DeleteUserNotifications(userID string) error {
	return r.db.Delete(&models.Notification{}, "recipient_id = ?", userID).Error
}

func (r *NotificationRepositoryImpl) GetUserNotificationStats(userID string) (*NotificationStats, error) {
	stats := &NotificationStats{ByType: make(map[string]int64)}

	base := r.db.Model(&models.Notification{}).Where("recipient_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalNotifications).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_read = ?", false).Count(&stats.UnreadCount).Error; err != nil {
		return nil, err
	}
	stats.ReadCount = stats.TotalNotifications - stats.UnreadCount

	var byType []struct {
		Type  string
		Count int64
	}
	err := r.db.Model(&models.Notification{}).
		Select("type, count(*) as count").
		Where("recipient_id = ?", userID).
		Group("type").
		Scan(&byType).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byType {
		stats.ByType[row.Type] = row.Count
	}

	return stats, nil
}

func (r *NotificationRepositoryImpl) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// CleanOldNotifications removes read notifications older than the given
// number of days. Unread notifications are never purged.
func (r *NotificationRepositoryImpl) CleanOldNotifications(days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return r.db.Delete(&models.Notification{}, "is_read = ? AND created_at < ?", true, cutoff).Error
}

func (r *NotificationRepositoryImpl) validateNotification(notification *models.Notification) error {
	if notification.RecipientID == "" || notification.Type == "" || notification.Title == "" {
		return ErrInvalidNotificationData
	}
	return nil
}
