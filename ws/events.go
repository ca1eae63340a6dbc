package ws

import (
	"encoding/json"
	"time"

	"talentvault_backend/internal/models"
)

// Client->server actions.
const (
	ActionJoinNotifications      = "join-notifications"
	ActionJoinAdminNotifications = "join-admin-notifications"
	ActionLeaveNotifications     = "leave-notifications"
)

// Server->client event names.
const (
	EventIndustryNotification  = "industry-notification"
	EventBroadcastNotification = "broadcast-notification"
)

// IncomingFrame is a client->server control frame.
type IncomingFrame struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// OutgoingFrame is a server->client event frame.
type OutgoingFrame struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// IndustryEvent is an admin-only operational alert, delivered to the
// admin-notifications room.
type IndustryEvent struct {
	ID        string                 `json:"id"`
	EventType string                 `json:"eventType"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// BroadcastEvent is an admin-initiated broadcast. Targets carries the
// audience tags; the server filter is authoritative, the client filter in
// pkg/liveclient is a presentation-side second check.
type BroadcastEvent struct {
	ID                 string                 `json:"id"`
	Type               string                 `json:"type"`
	Title              string                 `json:"title"`
	Message            string                 `json:"message"`
	ActionURL          string                 `json:"actionUrl,omitempty"`
	ActionText         string                 `json:"actionText,omitempty"`
	ImageURL           string                 `json:"imageUrl,omitempty"`
	Priority           string                 `json:"priority"`
	Dismissible        bool                   `json:"dismissible"`
	RequireAcknowledge bool                   `json:"requireAcknowledge"`
	SurveyData         map[string]interface{} `json:"surveyData,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	Targets            []models.TargetTag     `json:"targets,omitempty"`
	TargetUserIDs      []string               `json:"-"`
}
