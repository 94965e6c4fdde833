package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faker/faker/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/studyverse/backend/internal/config"
	"github.com/emilythestrangee/studyverse/backend/internal/ratelimit"
	"github.com/emilythestrangee/studyverse/backend/internal/server"
)

type denyLimiter struct{ retry time.Duration }

func (d denyLimiter) Allow(context.Context, string, string, int, time.Duration) (bool, time.Duration, error) {
	return false, d.retry, nil
}

func newAPI(t *testing.T, limiter ratelimit.Limiter) *gin.Engine {
	t.Helper()
	p := requireDB(t)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		Port:           "0",
		CORSOrigins:    []string{"*"},
		RequestTimeout: 5 * time.Second,
		JWTSecret:      []byte("test-secret"),
		JWTTTL:         time.Hour,
		VoteRateLimit:  30,
	}
	return server.New(cfg, p.Service(), limiter, log).RegisterRoutes()
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

type account struct {
	ID       int
	Username string
	Token    string
}

var accounts atomic.Int64

func register(t *testing.T, r http.Handler) account {
	t.Helper()
	name := fmt.Sprintf("user_%d", accounts.Add(1))
	status, body := call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": name,
		"email":    name + "@example.com",
		"password": faker.Password(),
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	return account{ID: int(user["id"].(float64)), Username: name, Token: body["token"].(string)}
}

func createPost(t *testing.T, r http.Handler, author account) int {
	t.Helper()
	status, body := call(t, r, http.MethodPost, "/api/posts", author.Token, gin.H{
		"title":    faker.Sentence(),
		"content":  faker.Paragraph(),
		"hashtags": []string{"#go"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	return int(body["post"].(map[string]any)["id"].(float64))
}

func karmaOf(t *testing.T, r http.Handler, userID int) int {
	t.Helper()
	status, body := call(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d", userID), "", nil)
	require.Equal(t, http.StatusOK, status, body)
	return int(body["user"].(map[string]any)["karma"].(float64))
}

func TestHealth(t *testing.T) {
	r := newAPI(t, nil)
	status, body := call(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])
}

func TestAuthFlow(t *testing.T) {
	r := newAPI(t, nil)

	status, body := call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.NotEmpty(t, body["token"])

	status, _ = call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, status, body)
	token := body["token"].(string)

	status, body = call(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
	assert.EqualValues(t, 0, body["karma"])

	status, _ = call(t, r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPostVoting(t *testing.T) {
	r := newAPI(t, nil)
	a, b, c := register(t, r), register(t, r), register(t, r)
	postID := createPost(t, r, a)
	votePath := fmt.Sprintf("/api/posts/%d/vote", postID)

	steps := []struct {
		voter       account
		value       int
		votes       float64
		voteValue   float64
		karmaChange float64
		karma       int
	}{
		{b, 1, 1, 1, 1, 1},
		{c, 1, 2, 1, 1, 2},
		{b, -1, 0, -1, -2, 0},
		{b, -1, 1, 0, 1, 1},
	}
	for i, s := range steps {
		status, body := call(t, r, http.MethodPost, votePath, s.voter.Token, gin.H{"value": s.value})
		require.Equal(t, http.StatusOK, status, "step %d: %v", i, body)
		assert.Equal(t, s.voteValue, body["voteValue"], "step %d", i)
		assert.Equal(t, s.karmaChange, body["karmaChange"], "step %d", i)
		assert.Equal(t, s.votes, body["post"].(map[string]any)["votes"], "step %d", i)
		assert.Equal(t, s.karma, karmaOf(t, r, a.ID), "step %d", i)
	}

	status, body := call(t, r, http.MethodGet, votePath, c.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["hasVoted"])
	assert.EqualValues(t, 1, body["voteValue"])

	status, body = call(t, r, http.MethodGet, votePath, b.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasVoted"])
	assert.EqualValues(t, 0, body["voteValue"])
}

func TestPostVoteRejections(t *testing.T) {
	r := newAPI(t, nil)
	a, b := register(t, r), register(t, r)
	postID := createPost(t, r, a)
	votePath := fmt.Sprintf("/api/posts/%d/vote", postID)

	tests := []struct {
		name   string
		path   string
		token  string
		body   any
		status int
	}{
		{"self vote", votePath, a.Token, gin.H{"value": 1}, http.StatusForbidden},
		{"zero value", votePath, b.Token, gin.H{"value": 0}, http.StatusBadRequest},
		{"out of range", votePath, b.Token, gin.H{"value": 5}, http.StatusBadRequest},
		{"missing body", votePath, b.Token, nil, http.StatusBadRequest},
		{"unknown post", "/api/posts/999999/vote", b.Token, gin.H{"value": 1}, http.StatusNotFound},
		{"bad id", "/api/posts/abc/vote", b.Token, gin.H{"value": 1}, http.StatusBadRequest},
		{"anonymous", votePath, "", gin.H{"value": 1}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := call(t, r, http.MethodPost, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, status)
		})
	}

	assert.Equal(t, 0, karmaOf(t, r, a.ID))
}

func TestCommentVoting(t *testing.T) {
	r := newAPI(t, nil)
	a, b := register(t, r), register(t, r)
	postID := createPost(t, r, b)

	status, body := call(t, r, http.MethodPost, "/api/comments", a.Token, gin.H{
		"post_id": postID,
		"content": faker.Sentence(),
	})
	require.Equal(t, http.StatusCreated, status, body)
	commentID := int(body["comment"].(map[string]any)["id"].(float64))
	votePath := fmt.Sprintf("/api/comments/%d/vote", commentID)

	status, body = call(t, r, http.MethodPost, votePath, b.Token, gin.H{"value": -1})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, -1, body["voteValue"])
	assert.EqualValues(t, -1, body["karmaChange"])
	assert.EqualValues(t, -1, body["comment"].(map[string]any)["karma"])
	assert.Equal(t, -1, karmaOf(t, r, a.ID))

	status, body = call(t, r, http.MethodPost, votePath, b.Token, gin.H{"value": 1})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1, body["voteValue"])
	assert.EqualValues(t, 2, body["karmaChange"])
	assert.Equal(t, 1, karmaOf(t, r, a.ID))

	status, body = call(t, r, http.MethodGet, votePath, b.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["voteValue"])

	status, _ = call(t, r, http.MethodPost, votePath, a.Token, gin.H{"value": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, r, http.MethodPost, "/api/comments/999999/vote", b.Token, gin.H{"value": 1})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVoteRateLimited(t *testing.T) {
	r := newAPI(t, denyLimiter{retry: 1500 * time.Millisecond})
	a, b := register(t, r), register(t, r)
	postID := createPost(t, r, a)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{"value": 1}))
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/posts/%d/vote", postID), &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, 0, karmaOf(t, r, a.ID))
}

func TestCommunities(t *testing.T) {
	r := newAPI(t, nil)
	a, b := register(t, r), register(t, r)

	status, body := call(t, r, http.MethodPost, "/api/communities", a.Token, gin.H{
		"name":        "GoLang",
		"description": "Discussion about the Go language.",
	})
	require.Equal(t, http.StatusCreated, status, body)
	community := body["community"].(map[string]any)
	assert.Equal(t, "golang", community["name"])
	assert.EqualValues(t, 1, community["member_count"])
	id := int(community["id"].(float64))

	status, _ = call(t, r, http.MethodPost, "/api/communities", b.Token, gin.H{
		"name":        "golang",
		"description": "A second community with the same name.",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	joinPath := fmt.Sprintf("/api/communities/%d/join", id)
	status, body = call(t, r, http.MethodPost, joinPath, b.Token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["isMember"])
	assert.EqualValues(t, 2, body["memberCount"])

	status, body = call(t, r, http.MethodPost, joinPath, b.Token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, false, body["isMember"])
	assert.EqualValues(t, 1, body["memberCount"])

	status, body = call(t, r, http.MethodPost, "/api/posts", a.Token, gin.H{
		"title":        faker.Sentence(),
		"content":      faker.Paragraph(),
		"community_id": id,
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = call(t, r, http.MethodGet, fmt.Sprintf("/api/communities/%d/posts", id), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 1)

	status, body = call(t, r, http.MethodGet, "/api/communities?search=go", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["communities"], 1)

	status, _ = call(t, r, http.MethodPost, "/api/communities/999999/join", b.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserProfileByIDOrUsername(t *testing.T) {
	r := newAPI(t, nil)
	a, b := register(t, r), register(t, r)
	postID := createPost(t, r, a)

	status, body := call(t, r, http.MethodPost, "/api/comments", a.Token, gin.H{
		"post_id": postID,
		"content": faker.Sentence(),
	})
	require.Equal(t, http.StatusCreated, status, body)

	for _, ref := range []string{fmt.Sprint(a.ID), a.Username} {
		status, body := call(t, r, http.MethodGet, "/api/users/"+ref, "", nil)
		require.Equal(t, http.StatusOK, status, ref)
		user := body["user"].(map[string]any)
		assert.Equal(t, a.Username, user["username"], ref)
		assert.EqualValues(t, 1, user["post_count"], ref)
		assert.EqualValues(t, 1, user["comment_count"], ref)
	}

	status, _ = call(t, r, http.MethodGet, "/api/users/nobody_here", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, r, http.MethodGet, "/api/users/0", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, r, http.MethodGet, "/api/users/"+b.Username+"/posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 0)

	status, _ = call(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "123456",
		"email":    "digits@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUserComments(t *testing.T) {
	r := newAPI(t, nil)
	a, b := register(t, r), register(t, r)
	postID := createPost(t, r, b)

	for i := 0; i < 3; i++ {
		status, body := call(t, r, http.MethodPost, "/api/comments", a.Token, gin.H{
			"post_id": postID,
			"content": fmt.Sprintf("comment %d", i),
		})
		require.Equal(t, http.StatusCreated, status, body)
	}

	status, body := call(t, r, http.MethodGet, "/api/users/"+a.Username+"/comments?limit=2", a.Token, nil)
	require.Equal(t, http.StatusOK, status, body)
	comments := body["comments"].([]any)
	require.Len(t, comments, 2)
	first := comments[0].(map[string]any)
	assert.Equal(t, "comment 2", first["content"])
	post := first["post"].(map[string]any)
	assert.EqualValues(t, postID, post["id"])
	assert.NotEmpty(t, post["title"])
	assert.Equal(t, b.Username, post["author"].(map[string]any)["username"])

	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pagination["total"])
	assert.Equal(t, true, pagination["hasNext"])

	status, _ = call(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d/comments", a.ID), b.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d/comments", a.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
