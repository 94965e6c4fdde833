package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/studyverse/backend/internal/models"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

// castVote runs the shared part of the post and comment vote endpoints.
// On failure it has already written the response.
func castVote(c *gin.Context, engine *voting.Engine, kind voting.Kind) (voting.Result, bool) {
	what := kind.String()

	targetID, ok := paramID(c, "id", what)
	if !ok {
		return voting.Result{}, false
	}
	voterID, ok := requireUser(c)
	if !ok {
		return voting.Result{}, false
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": voting.ErrInvalidDirection.Error()})
		return voting.Result{}, false
	}

	res, err := engine.Cast(c.Request.Context(), kind, voterID, targetID, input.Value)
	if err != nil {
		respondVoteError(c, err, what)
		return voting.Result{}, false
	}
	return res, true
}

// currentVote answers "has the caller voted on this, and which way".
func currentVote(c *gin.Context, engine *voting.Engine, kind voting.Kind) {
	targetID, ok := paramID(c, "id", kind.String())
	if !ok {
		return
	}
	voterID, ok := requireUser(c)
	if !ok {
		return
	}

	d, voted, err := engine.Current(c.Request.Context(), kind, voterID, targetID)
	if err != nil {
		respondVoteError(c, err, kind.String())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hasVoted":  voted,
		"voteValue": int(d),
	})
}

func voteResponse(res voting.Result, key string, content gin.H) gin.H {
	return gin.H{
		"message":     "Vote processed successfully",
		key:           content,
		"voteValue":   res.VoteValue,
		"karmaChange": res.KarmaDelta,
	}
}
