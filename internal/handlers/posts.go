package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/studyverse/backend/internal/middleware"
	"github.com/emilythestrangee/studyverse/backend/internal/models"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

type PostHandler struct {
	db     *gorm.DB
	engine *voting.Engine
}

func NewPostHandler(db *gorm.DB, engine *voting.Engine) *PostHandler {
	return &PostHandler{db: db, engine: engine}
}

func postOrder(sort string) string {
	switch sort {
	case "oldest":
		return "created_at asc"
	case "votes":
		return "votes desc, created_at desc"
	default:
		return "created_at desc"
	}
}

func (h *PostHandler) listPosts(c *gin.Context, scope func(*gorm.DB) *gorm.DB) {
	pg := parsePage(c)
	q := scope(h.db.WithContext(c.Request.Context()).Model(&models.Post{})).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	var posts []models.Post
	err := q.Preload("Author").Preload("Community").
		Order(postOrder(c.Query("sort"))).
		Offset(pg.Offset()).Limit(pg.Size).
		Find(&posts).Error
	if err != nil {
		middleware.Logger(c).WithError(err).Error("list posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      postResponses(posts),
		"pagination": pg.Meta(total, len(posts)),
	})
}

// GetPosts lists posts, optionally filtered by ?community=<id>
func (h *PostHandler) GetPosts(c *gin.Context) {
	community := c.Query("community")
	h.listPosts(c, func(q *gorm.DB) *gorm.DB {
		if community != "" {
			return q.Where("community_id = ?", community)
		}
		return q
	})
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}

	post, err := h.load(c, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching post"})
		return
	}

	c.JSON(http.StatusOK, postResponse(post))
}

func (h *PostHandler) load(c *gin.Context, id int) (models.Post, error) {
	var post models.Post
	err := h.db.WithContext(c.Request.Context()).
		Preload("Author").Preload("Community").
		First(&post, id).Error
	return post, err
}

// normalizeHashtags lowercases tags, strips '#' and drops blanks and duplicates.
func normalizeHashtags(tags []string) string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#")))
		t = strings.ReplaceAll(t, ",", "")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return strings.Join(out, ",")
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	authorID, ok := requireUser(c)
	if !ok {
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required"})
		return
	}

	ctx := c.Request.Context()
	if input.CommunityID != nil {
		var community models.Community
		if err := h.db.WithContext(ctx).First(&community, *input.CommunityID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
			return
		}
	}

	post := models.Post{
		Title:       strings.TrimSpace(input.Title),
		Content:     strings.TrimSpace(input.Content),
		AuthorID:    authorID,
		CommunityID: input.CommunityID,
		Hashtags:    normalizeHashtags(input.Hashtags),
	}

	if err := h.db.WithContext(ctx).Create(&post).Error; err != nil {
		middleware.Logger(c).WithError(err).Error("create post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	post, err := h.load(c, post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    postResponse(post),
	})
}

// DeletePost deletes a post with its comments and votes (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}
	currentUserID, ok := requireUser(c)
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.WithContext(c.Request.Context()).First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		comments := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", post.ID)
		if err := tx.Where("comment_id IN (?)", comments).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostVote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		middleware.Logger(c).WithError(err).Error("delete post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// VotePost handles upvoting/downvoting a post (PROTECTED - requires authentication)
func (h *PostHandler) VotePost(c *gin.Context) {
	res, ok := castVote(c, h.engine, voting.KindPost)
	if !ok {
		return
	}

	content := resultContent(res, "votes")
	if post, err := h.load(c, res.TargetID); err == nil {
		content = postResponse(post)
	}

	c.JSON(http.StatusOK, voteResponse(res, "post", content))
}

// GetPostVote returns the caller's current vote on a post
func (h *PostHandler) GetPostVote(c *gin.Context) {
	currentVote(c, h.engine, voting.KindPost)
}
