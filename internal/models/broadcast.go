package models

import "gorm.io/datatypes"

// Broadcast is the persisted record of an admin-initiated broadcast.
// The targeting fields mirror what the sender submitted; exactly one of
// TargetRole / TargetUserIDs is populated, consistent with TargetType.
type Broadcast struct {
	BaseModel
	SenderID           string              `gorm:"not null;index"`
	Title              string              `gorm:"not null"`
	Message            string              `gorm:"not null"`
	TargetType         BroadcastTargetType `gorm:"type:varchar(20);not null"`
	TargetRole         UserRole            `gorm:"type:varchar(20)"`
	TargetUserIDs      datatypes.JSON      `gorm:"type:jsonb"` // ["uuid", ...]
	ActionURL          string
	ActionText         string
	ImageURL           string
	Priority           BroadcastPriority `gorm:"type:varchar(10);default:'normal'"`
	Dismissible        bool              `gorm:"not null"`
	RequireAcknowledge bool              `gorm:"default:false"`
	SurveyData         datatypes.JSON    `gorm:"type:jsonb"` // inline survey attached to the broadcast, if any
	RecipientCount     int64             `gorm:"default:0"`
}
