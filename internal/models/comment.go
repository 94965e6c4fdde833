package models

import "time"

type Comment struct {
	ID              int        `gorm:"primaryKey" json:"id"`
	Content         string     `gorm:"not null" json:"content"`
	AuthorID        int        `gorm:"index;not null" json:"author_id"`
	Author          User       `gorm:"foreignKey:AuthorID" json:"-"`
	PostID          int        `gorm:"index;not null" json:"post_id"`
	ParentCommentID *int       `gorm:"index" json:"parent_comment_id,omitempty"`
	IsEdited        bool       `gorm:"not null;default:false" json:"is_edited"`
	EditedAt        *time.Time `json:"edited_at,omitempty"`

	// Karma is the comment's score, kept in step with its comment votes.
	Karma int `gorm:"not null;default:0" json:"karma"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Content         string `json:"content" binding:"required,max=10000"`
	PostID          int    `json:"post_id" binding:"required"`
	ParentCommentID *int   `json:"parent_comment_id,omitempty"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}
