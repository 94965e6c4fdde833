package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/studyverse/backend/internal/models"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestVoteErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("parse: %w", voting.ErrInvalidDirection), http.StatusBadRequest, voting.ErrInvalidDirection.Error()},
		{voting.ErrNotFound, http.StatusNotFound, "Post not found"},
		{voting.ErrSelfVote, http.StatusForbidden, "You cannot vote on your own post"},
		{voting.ErrConflict, http.StatusConflict, "Another vote on this post is in progress, try again"},
		{errors.New("connection reset"), http.StatusInternalServerError, "Server error processing vote"},
	}
	for _, tt := range tests {
		status, msg := voteErrorStatus(tt.err, "post")
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.msg, msg)
	}

	_, msg := voteErrorStatus(voting.ErrNotFound, "comment")
	assert.Equal(t, "Comment not found", msg)
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query      string
		number     int
		size       int
		wantOffset int
	}{
		{"", 1, defaultPageSize, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?page=0&limit=-4", 1, defaultPageSize, 0},
		{"?page=abc&limit=5000", 1, maxPageSize, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)

		p := parsePage(c)
		assert.Equal(t, tt.number, p.Number, tt.query)
		assert.Equal(t, tt.size, p.Size, tt.query)
		assert.Equal(t, tt.wantOffset, p.Offset(), tt.query)
	}
}

func TestPageMeta(t *testing.T) {
	p := page{Number: 2, Size: 10}
	meta := p.Meta(25, 10)
	assert.Equal(t, 3, meta["totalPages"])
	assert.Equal(t, true, meta["hasNext"])
	assert.Equal(t, true, meta["hasPrev"])

	last := page{Number: 3, Size: 10}.Meta(25, 5)
	assert.Equal(t, false, last["hasNext"])
}

func TestNormalizeHashtags(t *testing.T) {
	got := normalizeHashtags([]string{"#Go", "go", "  ", "#web,dev", "Gin"})
	assert.Equal(t, "go,webdev,gin", got)
	assert.Equal(t, "", normalizeHashtags(nil))
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.POST("/vote", func(c *gin.Context) {
		var in models.VoteRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})
	r.POST("/community", func(c *gin.Context) {
		var in models.CreateCommunityRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		path string
		body string
		want int
	}{
		{"/vote", `{"value": 1}`, http.StatusOK},
		{"/vote", `{"value": -1}`, http.StatusOK},
		{"/vote", `{"value": 0}`, http.StatusBadRequest},
		{"/vote", `{"value": 2}`, http.StatusBadRequest},
		{"/vote", `{"value": "up"}`, http.StatusBadRequest},
		{"/community", `{"name": "go_lang", "description": "All things Go."}`, http.StatusOK},
		{"/community", `{"name": "go-lang", "description": "All things Go."}`, http.StatusBadRequest},
		{"/community", `{"name": "go", "description": "All things Go."}`, http.StatusBadRequest},
		{"/community", `{"name": "golang", "description": "short"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.path, tt.body)
	}
}
