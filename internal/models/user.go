package models

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName  string     `gorm:"not null" json:"display_name"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         UserRole   `gorm:"type:varchar(20);not null" json:"role"`
	Status       UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relations
	Notifications []Notification `gorm:"foreignKey:RecipientID" json:"-"`
}
