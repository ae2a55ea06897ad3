package models

// User принадлежит подсистеме аутентификации; платежи меняют только Role.
type User struct {
	BaseModel
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	Name      string   `gorm:"not null" json:"name"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	Role      UserRole `gorm:"type:varchar(20);not null;default:'employee'" json:"role"`
	IsActive  bool     `gorm:"not null" json:"is_active"`
}
