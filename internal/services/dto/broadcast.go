package dto

import (
	"time"

	"talentvault_backend/internal/models"
	"talentvault_backend/internal/repositories"
)

// ---------------- Requests ----------------

// SendBroadcastRequest is the composer submission. Exactly one of
// TargetRole / TargetUserIDs must be populated, consistent with TargetType;
// the service validates that before touching the database.
type SendBroadcastRequest struct {
	Title              string                     `json:"title" binding:"required,max=100"`
	Message            string                     `json:"message" binding:"required,max=2000"`
	TargetType         models.BroadcastTargetType `json:"target_type" binding:"required,oneof=all role individual"`
	TargetRole         models.UserRole            `json:"target_role,omitempty" binding:"omitempty,platformrole"`
	TargetUserIDs      []string                   `json:"target_user_ids,omitempty"`
	ActionURL          string                     `json:"action_url,omitempty" binding:"omitempty,max=500"`
	ActionText         string                     `json:"action_text,omitempty" binding:"omitempty,max=50"`
	ImageURL           string                     `json:"image_url,omitempty" binding:"omitempty,max=500"`
	Priority           models.BroadcastPriority   `json:"priority,omitempty" binding:"omitempty,oneof=low normal high urgent"`
	Dismissible        *bool                      `json:"dismissible,omitempty"`
	RequireAcknowledge bool                       `json:"require_acknowledge,omitempty"`
	SurveyData         map[string]interface{}     `json:"survey_data,omitempty"`
	SendEmail          bool                       `json:"send_email,omitempty"`
}

// SendIndustryAlertRequest publishes an operational alert to the admin room.
type SendIndustryAlertRequest struct {
	EventType string                 `json:"event_type" binding:"required"`
	Title     string                 `json:"title" binding:"required,max=100"`
	Message   string                 `json:"message" binding:"required,max=1000"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ---------------- Responses ----------------

type SendBroadcastResult struct {
	BroadcastID    string `json:"broadcast_id"`
	RecipientCount int64  `json:"recipientCount"`
}

type SendBroadcastResponse struct {
	Data SendBroadcastResult `json:"data"`
}

// BroadcastStatsResponse backs the composer's count preview.
type BroadcastStatsResponse struct {
	TotalUsers int64                    `json:"totalUsers"`
	ByRole     []repositories.RoleCount `json:"byRole"`
}

type UserSearchResponse struct {
	Users []UserResponse `json:"users"`
}

type BroadcastResponse struct {
	ID             string                     `json:"id"`
	SenderID       string                     `json:"sender_id"`
	Title          string                     `json:"title"`
	Message        string                     `json:"message"`
	TargetType     models.BroadcastTargetType `json:"target_type"`
	TargetRole     models.UserRole            `json:"target_role,omitempty"`
	Priority       models.BroadcastPriority   `json:"priority"`
	RecipientCount int64                      `json:"recipient_count"`
	CreatedAt      time.Time                  `json:"created_at"`
}
