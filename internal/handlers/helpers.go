package handlers

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/studyverse/backend/internal/middleware"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var alphaNumUnder = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// RegisterValidators adds the custom binding rules used by request models.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	if err := v.RegisterValidation("vote_direction", func(fl validator.FieldLevel) bool {
		return voting.Direction(fl.Field().Int()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("alphanumunder", func(fl validator.FieldLevel) bool {
		return alphaNumUnder.MatchString(fl.Field().String())
	})
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// requireUser writes 401 and returns false when the request is anonymous.
func requireUser(c *gin.Context) (int, bool) {
	id, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return id, ok
}

// paramID parses a positive integer route parameter, writing 400 otherwise.
func paramID(c *gin.Context, name, what string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID format"})
		return 0, false
	}
	return id, true
}

type page struct {
	Number int
	Size   int
}

func (p page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p page) Meta(total int64, returned int) gin.H {
	return gin.H{
		"currentPage": p.Number,
		"totalPages":  int(math.Ceil(float64(total) / float64(p.Size))),
		"total":       total,
		"hasNext":     int64(p.Offset()+returned) < total,
		"hasPrev":     p.Number > 1,
	}
}

func parsePage(c *gin.Context) page {
	p := page{Number: 1, Size: defaultPageSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		p.Size = min(n, maxPageSize)
	}
	return p
}

// voteErrorStatus maps engine errors to a status and a message safe to show.
func voteErrorStatus(err error, what string) (int, string) {
	switch {
	case errors.Is(err, voting.ErrInvalidDirection):
		return http.StatusBadRequest, voting.ErrInvalidDirection.Error()
	case errors.Is(err, voting.ErrNotFound):
		return http.StatusNotFound, strings.ToUpper(what[:1]) + what[1:] + " not found"
	case errors.Is(err, voting.ErrSelfVote):
		return http.StatusForbidden, "You cannot vote on your own " + what
	case errors.Is(err, voting.ErrConflict):
		return http.StatusConflict, "Another vote on this " + what + " is in progress, try again"
	default:
		return http.StatusInternalServerError, "Server error processing vote"
	}
}

func respondVoteError(c *gin.Context, err error, what string) {
	status, msg := voteErrorStatus(err, what)
	if status == http.StatusInternalServerError {
		middleware.Logger(c).WithError(err).Error("vote failed")
	}
	c.JSON(status, gin.H{"error": msg})
}
