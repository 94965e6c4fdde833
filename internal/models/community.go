package models

import "time"

type Community struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:21;not null" json:"name"`
	Description string    `gorm:"size:500;not null" json:"description"`
	Rules       string    `gorm:"size:1000" json:"rules"`
	CreatorID   int       `gorm:"index;not null" json:"creator_id"`
	Creator     User      `gorm:"foreignKey:CreatorID" json:"-"`
	MemberCount int       `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CommunityMember struct {
	CommunityID int       `gorm:"primaryKey" json:"community_id"`
	UserID      int       `gorm:"primaryKey" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=21,alphanumunder"`
	Description string `json:"description" binding:"required,min=10,max=500"`
	Rules       string `json:"rules" binding:"max=1000"`
}
