package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"talentvault_backend/internal/appErrors"
	"talentvault_backend/internal/logger"
	"talentvault_backend/internal/models"
	"talentvault_backend/internal/repositories"
	"talentvault_backend/internal/services/dto"
	"talentvault_backend/ws"
)

// LivePublisher delivers events to connected clients. Implemented by
// ws.Router; tests substitute a recorder.
type LivePublisher interface {
	PublishIndustry(ev ws.IndustryEvent)
	PublishBroadcast(ev ws.BroadcastEvent)
}

// EmailSender mirrors a broadcast to a recipient's inbox. Implemented on
// top of gomail in internal/utils.
type EmailSender interface {
	Send(to, subject, body string) error
}

type BroadcastService interface {
	GetStats() (*dto.BroadcastStatsResponse, error)
	SearchUsers(query string, limit int, excludeIDs []string) (*dto.UserSearchResponse, error)
	Send(senderID string, req *dto.SendBroadcastRequest) (*dto.SendBroadcastResult, error)
	SendIndustryAlert(senderID string, req *dto.SendIndustryAlertRequest) error
	ListRecent(limit int) ([]*dto.BroadcastResponse, error)
}

type broadcastService struct {
	broadcastRepo    repositories.BroadcastRepository
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	live             LivePublisher
	email            EmailSender // nil disables the email mirror
}

func NewBroadcastService(
	broadcastRepo repositories.BroadcastRepository,
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	live LivePublisher,
	email EmailSender,
) BroadcastService {
	return &broadcastService{
		broadcastRepo:    broadcastRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		live:             live,
		email:            email,
	}
}

// GetStats backs the composer's target-count preview: total active users
// and per-role counts.
func (s *broadcastService) GetStats() (*dto.BroadcastStatsResponse, error) {
	total, err := s.userRepo.CountAll()
	if err != nil {
		return nil, err
	}
	byRole, err := s.userRepo.CountByRole()
	if err != nil {
		return nil, err
	}
	return &dto.BroadcastStatsResponse{TotalUsers: total, ByRole: byRole}, nil
}

func (s *broadcastService) SearchUsers(query string, limit int, excludeIDs []string) (*dto.UserSearchResponse, error) {
	users, err := s.userRepo.Search(query, limit, excludeIDs)
	if err != nil {
		return nil, err
	}

	resp := &dto.UserSearchResponse{Users: []dto.UserResponse{}}
	for _, u := range users {
		resp.Users = append(resp.Users, dto.UserResponse{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			CreatedAt:   u.CreatedAt,
		})
	}
	return resp, nil
}

// Send resolves the recipient set once, at send time, then persists one
// notification per recipient before the live fan-out. The persisted store is
// the durable truth; live delivery is a latency optimization.
func (s *broadcastService) Send(senderID string, req *dto.SendBroadcastRequest) (*dto.SendBroadcastResult, error) {
	if err := validateBroadcastTarget(req); err != nil {
		return nil, err
	}

	recipients, err := s.resolveRecipients(req)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, appErrors.ErrEmptyBroadcastTarget
	}

	broadcast, err := s.persistBroadcast(senderID, req, int64(len(recipients)))
	if err != nil {
		return nil, err
	}

	notifications := make([]*models.Notification, 0, len(recipients))
	data := datatypes.JSON(fmt.Sprintf(`{"broadcast_id":%q}`, broadcast.ID))
	for _, recipient := range recipients {
		notifications = append(notifications, &models.Notification{
			RecipientID: recipient.ID,
			Type:        repositories.NotificationTypeBroadcast,
			Title:       req.Title,
			Message:     req.Message,
			Link:        req.ActionURL,
			Data:        data,
		})
	}
	if err := s.notificationRepo.CreateBulkNotifications(notifications); err != nil {
		return nil, err
	}

	if s.live != nil {
		s.live.PublishBroadcast(s.buildBroadcastEvent(broadcast, req))
	}

	if req.SendEmail && s.email != nil {
		go s.mirrorToEmail(req.Title, req.Message, recipients)
	}

	return &dto.SendBroadcastResult{
		BroadcastID:    broadcast.ID,
		RecipientCount: broadcast.RecipientCount,
	}, nil
}

// SendIndustryAlert publishes an admin-only operational alert: persisted for
// every admin-tier user, then pushed to the admin-notifications room.
func (s *broadcastService) SendIndustryAlert(senderID string, req *dto.SendIndustryAlertRequest) error {
	admins, err := s.userRepo.FindByRole(models.UserRoleAdmin)
	if err != nil {
		return err
	}
	superAdmins, err := s.userRepo.FindByRole(models.UserRoleSuperAdmin)
	if err != nil {
		return err
	}
	recipients := append(admins, superAdmins...)

	var dataJSON datatypes.JSON
	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal alert data: %w", err)
		}
		dataJSON = datatypes.JSON(raw)
	}

	notifications := make([]*models.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		notifications = append(notifications, &models.Notification{
			RecipientID: recipient.ID,
			Type:        repositories.NotificationTypeIndustry,
			Title:       req.Title,
			Message:     req.Message,
			Data:        dataJSON,
		})
	}
	if err := s.notificationRepo.CreateBulkNotifications(notifications); err != nil {
		return err
	}

	if s.live != nil {
		var id string
		if len(notifications) > 0 {
			id = notifications[0].ID
		}
		s.live.PublishIndustry(ws.IndustryEvent{
			ID:        id,
			EventType: req.EventType,
			Title:     req.Title,
			Message:   req.Message,
			Data:      req.Data,
			CreatedAt: time.Now().UTC(),
		})
	}

	return nil
}

func (s *broadcastService) ListRecent(limit int) ([]*dto.BroadcastResponse, error) {
	broadcasts, err := s.broadcastRepo.FindRecent(limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.BroadcastResponse, 0, len(broadcasts))
	for i := range broadcasts {
		b := &broadcasts[i]
		responses = append(responses, &dto.BroadcastResponse{
			ID:             b.ID,
			SenderID:       b.SenderID,
			Title:          b.Title,
			Message:        b.Message,
			TargetType:     b.TargetType,
			TargetRole:     b.TargetRole,
			Priority:       b.Priority,
			RecipientCount: b.RecipientCount,
			CreatedAt:      b.CreatedAt,
		})
	}
	return responses, nil
}

// ---------------- Internals ----------------

// validateBroadcastTarget enforces the target invariant: exactly one of
// target_role / target_user_ids populated, consistent with target_type.
func validateBroadcastTarget(req *dto.SendBroadcastRequest) error {
	switch req.TargetType {
	case models.BroadcastTargetAll:
		if req.TargetRole != "" || len(req.TargetUserIDs) > 0 {
			return appErrors.ErrInconsistentTarget
		}
	case models.BroadcastTargetRole:
		if req.TargetRole == "" || len(req.TargetUserIDs) > 0 {
			return appErrors.ErrInconsistentTarget
		}
		if !req.TargetRole.Valid() {
			return appErrors.ErrInvalidUserRole
		}
	case models.BroadcastTargetIndividual:
		if len(req.TargetUserIDs) == 0 || req.TargetRole != "" {
			return appErrors.ErrInconsistentTarget
		}
	default:
		return appErrors.ErrValidationFailed.WithDetails("unknown target type")
	}
	return nil
}

func (s *broadcastService) resolveRecipients(req *dto.SendBroadcastRequest) ([]models.User, error) {
	switch req.TargetType {
	case models.BroadcastTargetAll:
		return s.userRepo.FindAllActive()
	case models.BroadcastTargetRole:
		return s.userRepo.FindByRole(req.TargetRole)
	case models.BroadcastTargetIndividual:
		users, err := s.userRepo.FindByIDs(req.TargetUserIDs)
		if err != nil {
			return nil, err
		}
		if len(users) != len(req.TargetUserIDs) {
			return nil, appErrors.ErrUserNotFound.WithDetails("some target users do not exist")
		}
		return users, nil
	}
	return nil, appErrors.ErrValidationFailed
}

func (s *broadcastService) persistBroadcast(senderID string, req *dto.SendBroadcastRequest, recipientCount int64) (*models.Broadcast, error) {
	var targetIDsJSON datatypes.JSON
	if len(req.TargetUserIDs) > 0 {
		raw, err := json.Marshal(req.TargetUserIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal target user ids: %w", err)
		}
		targetIDsJSON = datatypes.JSON(raw)
	}

	var surveyJSON datatypes.JSON
	if req.SurveyData != nil {
		raw, err := json.Marshal(req.SurveyData)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal survey data: %w", err)
		}
		surveyJSON = datatypes.JSON(raw)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.BroadcastPriorityNormal
	}
	dismissible := true
	if req.Dismissible != nil {
		dismissible = *req.Dismissible
	}

	broadcast := &models.Broadcast{
		SenderID:           senderID,
		Title:              req.Title,
		Message:            req.Message,
		TargetType:         req.TargetType,
		TargetRole:         req.TargetRole,
		TargetUserIDs:      targetIDsJSON,
		ActionURL:          req.ActionURL,
		ActionText:         req.ActionText,
		ImageURL:           req.ImageURL,
		Priority:           priority,
		Dismissible:        dismissible,
		RequireAcknowledge: req.RequireAcknowledge,
		SurveyData:         surveyJSON,
		RecipientCount:     recipientCount,
	}
	if err := s.broadcastRepo.Create(broadcast); err != nil {
		return nil, err
	}
	return broadcast, nil
}

func (s *broadcastService) buildBroadcastEvent(broadcast *models.Broadcast, req *dto.SendBroadcastRequest) ws.BroadcastEvent {
	ev := ws.BroadcastEvent{
		ID:                 broadcast.ID,
		Type:               string(repositories.NotificationTypeBroadcast),
		Title:              broadcast.Title,
		Message:            broadcast.Message,
		ActionURL:          broadcast.ActionURL,
		ActionText:         broadcast.ActionText,
		ImageURL:           broadcast.ImageURL,
		Priority:           string(broadcast.Priority),
		Dismissible:        broadcast.Dismissible,
		RequireAcknowledge: broadcast.RequireAcknowledge,
		SurveyData:         req.SurveyData,
		CreatedAt:          broadcast.CreatedAt,
	}

	switch req.TargetType {
	case models.BroadcastTargetAll:
		ev.Targets = []models.TargetTag{models.TargetTagAll}
	case models.BroadcastTargetRole:
		ev.Targets = []models.TargetTag{models.PrimaryTargetTag(req.TargetRole)}
	case models.BroadcastTargetIndividual:
		ev.TargetUserIDs = req.TargetUserIDs
	}
	return ev
}

func (s *broadcastService) mirrorToEmail(title, message string, recipients []models.User) {
	for _, recipient := range recipients {
		if err := s.email.Send(recipient.Email, title, message); err != nil {
			logger.Warn("broadcast email mirror failed", "recipient", recipient.Email, "error", err)
		}
	}
}
