package dto

import "time"

// ---------------- Requests ----------------

type CreateNotificationRequest struct {
	RecipientID string                 `json:"recipient_id" binding:"required"`
	Type        string                 `json:"type" binding:"required"`
	Title       string                 `json:"title" binding:"required,max=100"`
	Message     string                 `json:"message" binding:"omitempty,max=1000"`
	Link        string                 `json:"link" binding:"omitempty,max=500"`
	Data        map[string]interface{} `json:"data"`
}

// ---------------- Responses ----------------

type NotificationResponse struct {
	ID          string                 `json:"id"`
	RecipientID string                 `json:"recipient_id"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Link        string                 `json:"link,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	IsRead      bool                   `json:"is_read"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	Page          int                     `json:"page"`
	PageSize      int                     `json:"page_size"`
	TotalPages    int                     `json:"total_pages"`
}

// ---------------- Criteria ----------------

type NotificationCriteria struct {
	UnreadOnly bool
	Type       string
	Page       int
	PageSize   int
}
