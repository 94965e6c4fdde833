package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/studyverse/backend/internal/models"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

func postResponse(p models.Post) gin.H {
	h := gin.H{
		"id":         p.ID,
		"title":      p.Title,
		"content":    p.Content,
		"author_id":  p.AuthorID,
		"author":     p.Author.AsAuthor(),
		"votes":      p.Votes,
		"hashtags":   p.HashtagList(),
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
	if p.Community != nil {
		h["community"] = gin.H{"id": p.Community.ID, "name": p.Community.Name}
	}
	return h
}

func postResponses(posts []models.Post) []gin.H {
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, postResponse(p))
	}
	return out
}

func commentResponse(cm models.Comment) gin.H {
	return gin.H{
		"id":                cm.ID,
		"content":           cm.Content,
		"author_id":         cm.AuthorID,
		"author":            cm.Author.AsAuthor(),
		"post_id":           cm.PostID,
		"parent_comment_id": cm.ParentCommentID,
		"karma":             cm.Karma,
		"is_edited":         cm.IsEdited,
		"edited_at":         cm.EditedAt,
		"created_at":        cm.CreatedAt,
		"updated_at":        cm.UpdatedAt,
	}
}

// resultContent is used when the voted item vanished before it could be
// reloaded for display.
func resultContent(res voting.Result, scoreKey string) gin.H {
	return gin.H{
		"id":        res.TargetID,
		"author_id": res.Author.ID,
		"author": models.Author{
			ID:       res.Author.ID,
			Username: res.Author.Username,
			Karma:    res.Author.Karma,
		},
		scoreKey: res.Score,
	}
}

func communityResponse(cm models.Community) gin.H {
	return gin.H{
		"id":           cm.ID,
		"name":         cm.Name,
		"display_name": "r/" + cm.Name,
		"description":  cm.Description,
		"rules":        cm.Rules,
		"creator":      gin.H{"id": cm.Creator.ID, "username": cm.Creator.Username},
		"member_count": cm.MemberCount,
		"created_at":   cm.CreatedAt,
	}
}
