package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/studyverse/backend/internal/database"
	"github.com/emilythestrangee/studyverse/backend/internal/middleware"
	"github.com/emilythestrangee/studyverse/backend/internal/models"
)

type CommunityHandler struct {
	db *gorm.DB
}

func NewCommunityHandler(db *gorm.DB) *CommunityHandler {
	return &CommunityHandler{db: db}
}

var errDuplicateCommunity = errors.New("community name already exists")

// CreateCommunity creates a community; the creator becomes its first member
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	creatorID, ok := requireUser(c)
	if !ok {
		return
	}

	var input models.CreateCommunityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	community := models.Community{
		Name:        strings.ToLower(input.Name),
		Description: strings.TrimSpace(input.Description),
		Rules:       strings.TrimSpace(input.Rules),
		CreatorID:   creatorID,
		MemberCount: 1,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&community).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return errDuplicateCommunity
			}
			return err
		}
		return tx.Create(&models.CommunityMember{CommunityID: community.ID, UserID: creatorID}).Error
	})
	if errors.Is(err, errDuplicateCommunity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Community name already exists"})
		return
	}
	if err != nil {
		middleware.Logger(c).WithError(err).Error("create community")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error creating community"})
		return
	}

	h.db.WithContext(c.Request.Context()).Preload("Creator").First(&community, community.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Community created successfully",
		"community": communityResponse(community),
	})
}

// GetCommunities lists communities, largest first, with optional ?search=
func (h *CommunityHandler) GetCommunities(c *gin.Context) {
	pg := parsePage(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.Community{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching communities"})
		return
	}

	var communities []models.Community
	err := q.Preload("Creator").
		Order("member_count desc, created_at desc").
		Offset(pg.Offset()).Limit(pg.Size).
		Find(&communities).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching communities"})
		return
	}

	out := make([]gin.H, 0, len(communities))
	for _, cm := range communities {
		out = append(out, communityResponse(cm))
	}
	c.JSON(http.StatusOK, gin.H{
		"communities": out,
		"pagination":  pg.Meta(total, len(communities)),
	})
}

// GetCommunity returns one community and whether the caller belongs to it
func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	id, ok := paramID(c, "id", "community")
	if !ok {
		return
	}

	var community models.Community
	if err := h.db.WithContext(c.Request.Context()).Preload("Creator").First(&community, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"community": communityResponse(community)})
}

// JoinCommunity toggles the caller's membership
func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	id, ok := paramID(c, "id", "community")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var (
		isMember    bool
		memberCount int
	)
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var community models.Community
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&community, id).Error; err != nil {
			return err
		}

		res := tx.Where("community_id = ? AND user_id = ?", id, userID).Delete(&models.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.CommunityMember{CommunityID: id, UserID: userID}).Error; err != nil {
				return err
			}
			delta = 1
			isMember = true
		}

		if err := tx.Model(&community).UpdateColumn("member_count", gorm.Expr("member_count + ?", delta)).Error; err != nil {
			return err
		}
		memberCount = community.MemberCount + delta
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return
	}
	if err != nil {
		middleware.Logger(c).WithError(err).Error("join community")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error processing join/leave request"})
		return
	}

	msg := "Left community successfully"
	if isMember {
		msg = "Joined community successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     msg,
		"isMember":    isMember,
		"memberCount": memberCount,
	})
}

// GetCommunityPosts lists the posts of one community
func (h *CommunityHandler) GetCommunityPosts(c *gin.Context) {
	id, ok := paramID(c, "id", "community")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var community models.Community
	if err := h.db.WithContext(ctx).Select("id").First(&community, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return
	}

	pg := parsePage(c)
	q := h.db.WithContext(ctx).Model(&models.Post{}).Where("community_id = ?", id).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching community posts"})
		return
	}

	var posts []models.Post
	err := q.Preload("Author").Preload("Community").
		Order(postOrder(c.Query("sort"))).
		Offset(pg.Offset()).Limit(pg.Size).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching community posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      postResponses(posts),
		"pagination": pg.Meta(total, len(posts)),
	})
}
