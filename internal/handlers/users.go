package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/studyverse/backend/internal/middleware"
	"github.com/emilythestrangee/studyverse/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

func profileResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"bio":        user.Bio,
		"avatar":     user.Avatar,
		"karma":      user.Karma,
		"created_at": user.CreatedAt,
	}
}

// lookupUser resolves the :id route parameter, which may be a numeric id or
// a username. It writes the error response and returns false on failure.
func (h *UserHandler) lookupUser(c *gin.Context) (models.User, bool) {
	ref := c.Param("id")
	q := h.db.WithContext(c.Request.Context())

	var user models.User
	var err error
	if id, convErr := strconv.Atoi(ref); convErr == nil {
		if id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
			return user, false
		}
		err = q.First(&user, id).Error
	} else {
		err = q.Where("username = ?", ref).First(&user).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return user, false
	}
	if err != nil {
		middleware.Logger(c).WithError(err).Error("load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching user"})
		return user, false
	}
	return user, true
}

// requireSelf loads the :id user and writes 403 unless it is the caller.
func (h *UserHandler) requireSelf(c *gin.Context, what string) (models.User, bool) {
	authUserID, ok := requireUser(c)
	if !ok {
		return models.User{}, false
	}
	user, ok := h.lookupUser(c)
	if !ok {
		return user, false
	}
	if user.ID != authUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to " + what})
		return user, false
	}
	return user, true
}

// GetUserProfile returns a user's public profile with karma
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var postCount, commentCount int64
	if err := h.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", user.ID).Count(&postCount).Error; err != nil {
		middleware.Logger(c).WithError(err).Error("count user posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching profile"})
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.Comment{}).Where("author_id = ?", user.ID).Count(&commentCount).Error; err != nil {
		middleware.Logger(c).WithError(err).Error("count user comments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching profile"})
		return
	}

	resp := profileResponse(user)
	resp["post_count"] = postCount
	resp["comment_count"] = commentCount
	c.JSON(http.StatusOK, gin.H{"user": resp})
}

// UpdateUserProfile updates the caller's own bio and avatar
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	user, ok := h.requireSelf(c, "update this profile")
	if !ok {
		return
	}

	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
		user.Bio = *input.Bio
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
		user.Avatar = *input.Avatar
	}
	// karma is never written here; only votes move it
	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(&models.User{ID: user.ID}).Updates(updates).Error; err != nil {
			middleware.Logger(c).WithError(err).Error("update profile")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    profileResponse(user),
	})
}

// GetUserPosts returns all posts by a specific user
func (h *UserHandler) GetUserPosts(c *gin.Context) {
	user, ok := h.lookupUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	pg := parsePage(c)
	q := h.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", user.ID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	var posts []models.Post
	err := q.Preload("Author").Preload("Community").
		Order(postOrder(c.Query("sort"))).
		Offset(pg.Offset()).Limit(pg.Size).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      postResponses(posts),
		"pagination": pg.Meta(total, len(posts)),
	})
}

// GetUserVotedPosts lists the posts the caller has voted on, newest vote first
func (h *UserHandler) GetUserVotedPosts(c *gin.Context) {
	user, ok := h.requireSelf(c, "view this user's voted posts")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	pg := parsePage(c)
	q := h.db.WithContext(ctx).Model(&models.PostVote{}).Where("user_id = ?", user.ID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching voted posts"})
		return
	}

	var votes []models.PostVote
	if err := q.Order("updated_at desc").Offset(pg.Offset()).Limit(pg.Size).Find(&votes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching voted posts"})
		return
	}

	ids := make([]int, len(votes))
	for i, v := range votes {
		ids[i] = v.PostID
	}
	posts := make(map[int]models.Post, len(ids))
	if len(ids) > 0 {
		var found []models.Post
		if err := h.db.WithContext(ctx).Preload("Author").Preload("Community").Where("id IN ?", ids).Find(&found).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching voted posts"})
			return
		}
		for _, p := range found {
			posts[p.ID] = p
		}
	}

	items := make([]gin.H, 0, len(votes))
	for _, v := range votes {
		p, ok := posts[v.PostID]
		if !ok {
			continue
		}
		items = append(items, gin.H{
			"post":      postResponse(p),
			"voteValue": v.Value,
			"votedAt":   v.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"votedPosts": items,
		"pagination": pg.Meta(total, len(votes)),
	})
}

// GetUserComments lists the caller's own comments, newest first, each with
// the title and author of the post it belongs to
func (h *UserHandler) GetUserComments(c *gin.Context) {
	user, ok := h.requireSelf(c, "view this user's comments")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	pg := parsePage(c)
	q := h.db.WithContext(ctx).Model(&models.Comment{}).Where("author_id = ?", user.ID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching comments"})
		return
	}

	var comments []models.Comment
	err := q.Preload("Author").
		Order("created_at desc, id desc").
		Offset(pg.Offset()).Limit(pg.Size).
		Find(&comments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching comments"})
		return
	}

	ids := make([]int, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.PostID)
	}
	posts := make(map[int]models.Post, len(ids))
	if len(ids) > 0 {
		var found []models.Post
		err := h.db.WithContext(ctx).Select("id", "title", "author_id").Preload("Author").
			Where("id IN ?", ids).Find(&found).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching comments"})
			return
		}
		for _, p := range found {
			posts[p.ID] = p
		}
	}

	items := make([]gin.H, 0, len(comments))
	for _, cm := range comments {
		item := commentResponse(cm)
		if p, ok := posts[cm.PostID]; ok {
			item["post"] = gin.H{
				"id":     p.ID,
				"title":  p.Title,
				"author": p.Author.AsAuthor(),
			}
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":   items,
		"pagination": pg.Meta(total, len(comments)),
	})
}
