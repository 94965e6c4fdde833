package handlers

import (
	"gorm.io/gorm"

	"github.com/emilythestrangee/studyverse/backend/internal/auth"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

// Handler combines all handler types
type Handler struct {
	Auth      *AuthHandler
	Post      *PostHandler
	Comment   *CommentHandler
	User      *UserHandler
	Community *CommunityHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, engine *voting.Engine, issuer *auth.Issuer) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(db, issuer),
		Post:      NewPostHandler(db, engine),
		Comment:   NewCommentHandler(db, engine),
		User:      NewUserHandler(db),
		Community: NewCommunityHandler(db),
	}
}
