package models

import "time"

// PostVote is one user's current vote on a post. A missing row means no vote;
// Value is always 1 or -1.
type PostVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_post_votes_user_post" json:"user_id"`
	PostID    int       `gorm:"not null;uniqueIndex:idx_post_votes_user_post;index" json:"post_id"`
	Value     int       `gorm:"not null;check:chk_post_votes_value,value IN (-1, 1)" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentVote mirrors PostVote for comments.
type CommentVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_comment_votes_user_comment" json:"user_id"`
	CommentID int       `gorm:"not null;uniqueIndex:idx_comment_votes_user_comment;index" json:"comment_id"`
	Value     int       `gorm:"not null;check:chk_comment_votes_value,value IN (-1, 1)" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Value int `json:"value" binding:"vote_direction"`
}
