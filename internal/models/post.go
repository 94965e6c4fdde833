package models

import (
	"strings"
	"time"
)

type Post struct {
	ID          int        `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:300;not null" json:"title"`
	Content     string     `gorm:"not null" json:"content"`
	AuthorID    int        `gorm:"index;not null" json:"author_id"`
	Author      User       `gorm:"foreignKey:AuthorID" json:"-"`
	CommunityID *int       `gorm:"index" json:"community_id,omitempty"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"-"`
	Hashtags    string     `json:"-"`

	// Votes is the post's score: the sum of every post vote pointing at it.
	Votes int `gorm:"not null;default:0" json:"votes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Post) HashtagList() []string {
	if p.Hashtags == "" {
		return []string{}
	}
	return strings.Split(p.Hashtags, ",")
}

type CreatePostRequest struct {
	Title       string   `json:"title" binding:"required,max=300"`
	Content     string   `json:"content" binding:"required,max=10000"`
	CommunityID *int     `json:"community_id"`
	Hashtags    []string `json:"hashtags" binding:"omitempty,max=10,dive,max=50"`
}
