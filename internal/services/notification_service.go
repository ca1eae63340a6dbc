package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"talentvault_backend/internal/appErrors"
	"talentvault_backend/internal/models"
	"talentvault_backend/internal/repositories"
	"talentvault_backend/internal/services/dto"
)

type NotificationService interface {
	// Notification operations
	CreateNotification(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error)
	GetNotification(notificationID string) (*dto.NotificationResponse, error)
	GetUserNotifications(userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error)
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) error
	DeleteNotification(userID, notificationID string) error
	DeleteUserNotifications(userID string) error
	CleanOldNotifications(days int) error

	// Notification stats
	GetUserNotificationStats(userID string) (*repositories.NotificationStats, error)
	GetUnreadCount(userID string) (int64, error)

	// Factory methods for common notification types
	NotifyVideoLiked(recipientID, likerName, videoID string) error
	NotifyNewComment(recipientID, commenterName, videoID string) error
	NotifyNewFollower(recipientID, followerName string) error
	NotifyNewMessage(recipientID, senderName string) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// ---------------- Notification operations ----------------

func (s *notificationService) CreateNotification(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	if _, err := s.userRepo.FindByID(req.RecipientID); err != nil {
		return nil, appErrors.ErrUserNotFound
	}
	if !isValidNotificationType(req.Type) {
		return nil, appErrors.ErrValidationFailed.WithDetails("unknown notification type")
	}

	var dataJSON datatypes.JSON
	if req.Data != nil {
		jsonData, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = datatypes.JSON(jsonData)
	}

	notification := &models.Notification{
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Link:        req.Link,
		Data:        dataJSON,
		IsRead:      false,
	}

	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		return nil, err
	}

	return buildNotificationResponse(notification), nil
}

func (s *notificationService) GetNotification(notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.notificationRepo.FindNotificationByID(notificationID)
	if err != nil {
		return nil, err
	}
	return buildNotificationResponse(notification), nil
}

func (s *notificationService) GetUserNotifications(userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error) {
	repoCriteria := repositories.NotificationCriteria{
		UnreadOnly: criteria.UnreadOnly,
		Type:       criteria.Type,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
	}

	notifications, total, err := s.notificationRepo.FindUserNotifications(userID, repoCriteria)
	if err != nil {
		return nil, err
	}

	var notificationResponses []*dto.NotificationResponse
	for i := range notifications {
		notificationResponses = append(notificationResponses, buildNotificationResponse(&notifications[i]))
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	return &dto.NotificationListResponse{
		Notifications: notificationResponses,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    calculateTotalPages(total, pageSize),
	}, nil
}

func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindNotificationByID(notificationID)
	if err != nil {
		return err
	}
	if notification.RecipientID != userID {
		return appErrors.ErrForbidden
	}
	return s.notificationRepo.MarkAsRead(notificationID)
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notificationRepo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindNotificationByID(notificationID)
	if err != nil {
		return err
	}
	if notification.RecipientID != userID {
		return appErrors.ErrForbidden
	}
	return s.notificationRepo.DeleteNotification(notificationID)
}

func (s *notificationService) DeleteUserNotifications(userID string) error {
	return s.notificationRepo.DeleteUserNotifications(userID)
}

func (s *notificationService) CleanOldNotifications(days int) error {
	return s.notificationRepo.CleanOldNotifications(days)
}

// ---------------- Notification stats ----------------

func (s *notificationService) GetUserNotificationStats(userID string) (*repositories.NotificationStats, error) {
	return s.notificationRepo.GetUserNotificationStats(userID)
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notificationRepo.GetUnreadCount(userID)
}

// ---------------- Factory methods ----------------

func (s *notificationService) NotifyVideoLiked(recipientID, likerName, videoID string) error {
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        repositories.NotificationTypeLike,
		Title:       "Your video got a new like",
		Message:     fmt.Sprintf("%s liked your video", likerName),
		Link:        "/videos/" + videoID,
	}
	return s.notificationRepo.CreateNotification(notification)
}

func (s *notificationService) NotifyNewComment(recipientID, commenterName, videoID string) error {
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        repositories.NotificationTypeComment,
		Title:       "New comment on your video",
		Message:     fmt.Sprintf("%s commented on your video", commenterName),
		Link:        "/videos/" + videoID,
	}
	return s.notificationRepo.CreateNotification(notification)
}

func (s *notificationService) NotifyNewFollower(recipientID, followerName string) error {
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        repositories.NotificationTypeFollow,
		Title:       "You have a new follower",
		Message:     fmt.Sprintf("%s started following you", followerName),
	}
	return s.notificationRepo.CreateNotification(notification)
}

func (s *notificationService) NotifyNewMessage(recipientID, senderName string) error {
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        repositories.NotificationTypeMessage,
		Title:       "New message",
		Message:     fmt.Sprintf("You have a new message from %s", senderName),
		Link:        "/messages",
	}
	return s.notificationRepo.CreateNotification(notification)
}

// ---------------- Helpers ----------------

func buildNotificationResponse(notification *models.Notification) *dto.NotificationResponse {
	response := &dto.NotificationResponse{
		ID:          notification.ID,
		RecipientID: notification.RecipientID,
		Type:        notification.Type,
		Title:       notification.Title,
		Message:     notification.Message,
		Link:        notification.Link,
		IsRead:      notification.IsRead,
		ReadAt:      notification.ReadAt,
		CreatedAt:   notification.CreatedAt,
		UpdatedAt:   notification.UpdatedAt,
	}

	if len(notification.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(notification.Data, &data); err == nil {
			response.Data = data
		}
	}

	return response
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}

func isValidNotificationType(notificationType string) bool {
	validTypes := map[string]bool{
		repositories.NotificationTypeLike:      true,
		repositories.NotificationTypeComment:   true,
		repositories.NotificationTypeFollow:    true,
		repositories.NotificationTypeMention:   true,
		repositories.NotificationTypeVideo:     true,
		repositories.NotificationTypeMessage:   true,
		repositories.NotificationTypeIndustry:  true,
		repositories.NotificationTypeBroadcast: true,
	}
	return validTypes[notificationType]
}
