package voting

import "errors"

var (
	// ErrInvalidDirection is returned for any vote value other than 1 or -1.
	ErrInvalidDirection = errors.New("vote value must be 1 (upvote) or -1 (downvote)")
	// ErrNotFound is returned when the voted content does not exist.
	ErrNotFound = errors.New("content not found")
	// ErrSelfVote is returned when the voter authored the content.
	ErrSelfVote = errors.New("you cannot vote on your own content")
	// ErrConflict is returned when a concurrent request from the same voter
	// created the ledger row first.
	ErrConflict = errors.New("a concurrent vote on this content is in progress")
)
