package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/studyverse/backend/internal/middleware"
	"github.com/emilythestrangee/studyverse/backend/internal/models"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

type CommentHandler struct {
	db     *gorm.DB
	engine *voting.Engine
}

func NewCommentHandler(db *gorm.DB, engine *voting.Engine) *CommentHandler {
	return &CommentHandler{db: db, engine: engine}
}

func commentOrder(sort string) string {
	switch sort {
	case "oldest":
		return "created_at asc"
	case "karma":
		return "karma desc, created_at desc"
	default:
		return "created_at desc"
	}
}

func (h *CommentHandler) load(c *gin.Context, id int) (models.Comment, error) {
	var comment models.Comment
	err := h.db.WithContext(c.Request.Context()).Preload("Author").First(&comment, id).Error
	return comment, err
}

// GetComments returns the top-level comments of a post, each with its direct replies
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var post models.Post
	if err := h.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	pg := parsePage(c)
	roots := h.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Session(&gorm.Session{})

	var total int64
	if err := roots.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	var comments []models.Comment
	err := roots.Preload("Author").
		Order(commentOrder(c.Query("sort"))).
		Offset(pg.Offset()).Limit(pg.Size).
		Find(&comments).Error
	if err != nil {
		middleware.Logger(c).WithError(err).Error("list comments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	ids := make([]int, len(comments))
	for i, cm := range comments {
		ids[i] = cm.ID
	}
	var replies []models.Comment
	if len(ids) > 0 {
		err = h.db.WithContext(ctx).Preload("Author").
			Where("parent_comment_id IN ?", ids).
			Order("created_at asc").
			Find(&replies).Error
		if err != nil {
			middleware.Logger(c).WithError(err).Warn("list replies")
		}
	}
	byParent := make(map[int][]gin.H)
	for _, r := range replies {
		byParent[*r.ParentCommentID] = append(byParent[*r.ParentCommentID], commentResponse(r))
	}

	responses := make([]gin.H, 0, len(comments))
	for _, cm := range comments {
		resp := commentResponse(cm)
		resp["replies"] = append([]gin.H{}, byParent[cm.ID]...)
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":   responses,
		"pagination": pg.Meta(total, len(comments)),
	})
}

// CreateComment creates a comment on a post, optionally as a reply
func (h *CommentHandler) CreateComment(c *gin.Context) {
	authorID, ok := requireUser(c)
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content and post ID are required"})
		return
	}
	ctx := c.Request.Context()

	var post models.Post
	if err := h.db.WithContext(ctx).Select("id").First(&post, input.PostID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if input.ParentCommentID != nil {
		var parent models.Comment
		err := h.db.WithContext(ctx).Select("id", "post_id").First(&parent, *input.ParentCommentID).Error
		if err != nil || parent.PostID != post.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent comment not found"})
			return
		}
	}

	comment := models.Comment{
		Content:         strings.TrimSpace(input.Content),
		PostID:          post.ID,
		AuthorID:        authorID,
		ParentCommentID: input.ParentCommentID,
	}

	if err := h.db.WithContext(ctx).Create(&comment).Error; err != nil {
		middleware.Logger(c).WithError(err).Error("create comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	comment, err := h.load(c, comment.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": commentResponse(comment),
	})
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, ok := paramID(c, "id", "comment")
	if !ok {
		return
	}
	authorID, ok := requireUser(c)
	if !ok {
		return
	}

	var input models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	comment, err := h.load(c, commentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to edit this comment"})
		return
	}

	now := time.Now().UTC()
	err = h.db.WithContext(c.Request.Context()).Model(&comment).Updates(map[string]any{
		"content":   strings.TrimSpace(input.Content),
		"is_edited": true,
		"edited_at": now,
	}).Error
	if err != nil {
		middleware.Logger(c).WithError(err).Error("update comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	comment, err = h.load(c, commentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment updated successfully",
		"comment": commentResponse(comment),
	})
}

// DeleteComment deletes a comment, its direct replies and their votes (owner only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := paramID(c, "id", "comment")
	if !ok {
		return
	}
	authorID, ok := requireUser(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := h.db.WithContext(c.Request.Context()).First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this comment"})
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var ids []int
		err := tx.Model(&models.Comment{}).
			Where("id = ? OR parent_comment_id = ?", comment.ID, comment.ID).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return gorm.ErrRecordNotFound
		}
		// deeper replies survive as top-level comments
		err = tx.Model(&models.Comment{}).
			Where("parent_comment_id IN ? AND id NOT IN ?", ids, ids).
			Update("parent_comment_id", nil).Error
		if err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		middleware.Logger(c).WithError(err).Error("delete comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// VoteComment handles upvoting/downvoting a comment (PROTECTED - requires authentication)
func (h *CommentHandler) VoteComment(c *gin.Context) {
	res, ok := castVote(c, h.engine, voting.KindComment)
	if !ok {
		return
	}

	content := resultContent(res, "karma")
	if comment, err := h.load(c, res.TargetID); err == nil {
		content = commentResponse(comment)
	}

	c.JSON(http.StatusOK, voteResponse(res, "comment", content))
}

// GetCommentVote returns the caller's current vote on a comment
func (h *CommentHandler) GetCommentVote(c *gin.Context) {
	currentVote(c, h.engine, voting.KindComment)
}
