package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	RecipientID string `gorm:"not null;index"`
	Type        string `gorm:"not null"` // "like", "comment", "broadcast", ...
	Title       string `gorm:"not null"`
	Message     string
	Link        string
	Data        datatypes.JSON `gorm:"type:jsonb"` // {"video_id": "...", "broadcast_id": "..."}
	IsRead      bool           `gorm:"default:false"`
	ReadAt      *time.Time
}
