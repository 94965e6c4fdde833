package models

import "time"

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Bio      string `gorm:"size:500" json:"bio"`
	Avatar   string `json:"avatar"`

	// Karma is the running total of score earned by content this user authored.
	// Only vote reconciliation writes it.
	Karma int `gorm:"not null;default:0" json:"karma"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the public projection of a user embedded in content responses.
type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Karma    int    `json:"karma"`
}

func (u User) AsAuthor() Author {
	return Author{ID: u.ID, Username: u.Username, Karma: u.Karma}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Bio    *string `json:"bio" binding:"omitempty,max=500"`
	Avatar *string `json:"avatar"`
}
