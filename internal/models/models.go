package models

import (
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// ParseRole maps free-form input onto the closed role set. Anything that is
// not a recognized role becomes an editor.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleEditor:
		return Role(s)
	default:
		return RoleEditor
	}
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         Role      `gorm:"not null"                 json:"role"`
	RefreshToken *string   `gorm:"type:text"                json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Article struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"not null"                 json:"title"`
	Body      string    `gorm:"not null"                 json:"body"`
	AuthorID  uint      `gorm:"index;not null"           json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
