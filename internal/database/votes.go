package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/studyverse/backend/internal/models"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

// ledger describes where a content kind keeps its votes and its score.
type ledger struct {
	contentTable string
	scoreColumn  string
	targetColumn string
	content      func() any
	vote         func(voterID, targetID int, d voting.Direction) any
}

var ledgers = map[voting.Kind]ledger{
	voting.KindPost: {
		contentTable: "posts",
		scoreColumn:  "votes",
		targetColumn: "post_id",
		content:      func() any { return &models.Post{} },
		vote: func(voterID, targetID int, d voting.Direction) any {
			return &models.PostVote{UserID: voterID, PostID: targetID, Value: int(d)}
		},
	},
	voting.KindComment: {
		contentTable: "comments",
		scoreColumn:  "karma",
		targetColumn: "comment_id",
		content:      func() any { return &models.Comment{} },
		vote: func(voterID, targetID int, d voting.Direction) any {
			return &models.CommentVote{UserID: voterID, CommentID: targetID, Value: int(d)}
		},
	},
}

func ledgerFor(kind voting.Kind) (ledger, error) {
	l, ok := ledgers[kind]
	if !ok {
		return ledger{}, fmt.Errorf("unknown content kind %v", kind)
	}
	return l, nil
}

func (l ledger) voteModel() any {
	return l.vote(0, 0, 0)
}

func (l ledger) byVoter(db *gorm.DB, voterID, targetID int) *gorm.DB {
	return db.Model(l.voteModel()).Where("user_id = ? AND "+l.targetColumn+" = ?", voterID, targetID)
}

// VoteStore keeps the vote ledgers, content scores and user karma in Postgres.
type VoteStore struct {
	db *gorm.DB
}

var _ voting.Store = (*VoteStore)(nil)

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

func (s *VoteStore) Target(ctx context.Context, kind voting.Kind, id int) (voting.Target, error) {
	l, err := ledgerFor(kind)
	if err != nil {
		return voting.Target{}, err
	}

	var row struct {
		ID       int
		AuthorID int
	}
	err = s.db.WithContext(ctx).Model(l.content()).Select("id", "author_id").Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return voting.Target{}, voting.ErrNotFound
	}
	if err != nil {
		return voting.Target{}, err
	}
	return voting.Target{Kind: kind, ID: row.ID, AuthorID: row.AuthorID}, nil
}

func (s *VoteStore) Current(ctx context.Context, kind voting.Kind, voterID, targetID int) (voting.Direction, bool, error) {
	return currentVote(s.db.WithContext(ctx), kind, voterID, targetID, false)
}

func (s *VoteStore) Transact(ctx context.Context, fn func(tx voting.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&voteTx{db: tx})
	})
}

func currentVote(db *gorm.DB, kind voting.Kind, voterID, targetID int, lock bool) (voting.Direction, bool, error) {
	l, err := ledgerFor(kind)
	if err != nil {
		return 0, false, err
	}

	q := l.byVoter(db, voterID, targetID)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var values []int
	if err := q.Limit(1).Pluck("value", &values).Error; err != nil {
		return 0, false, err
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	return voting.Direction(values[0]), true, nil
}

type voteTx struct {
	db *gorm.DB
}

func (t *voteTx) LockVote(ctx context.Context, kind voting.Kind, voterID, targetID int) (voting.Direction, bool, error) {
	return currentVote(t.db.WithContext(ctx), kind, voterID, targetID, true)
}

func (t *voteTx) CreateVote(ctx context.Context, kind voting.Kind, voterID, targetID int, d voting.Direction) error {
	l, err := ledgerFor(kind)
	if err != nil {
		return err
	}
	err = t.db.WithContext(ctx).Create(l.vote(voterID, targetID, d)).Error
	if IsUniqueViolation(err) {
		return voting.ErrConflict
	}
	return err
}

func (t *voteTx) UpdateVote(ctx context.Context, kind voting.Kind, voterID, targetID int, d voting.Direction) error {
	l, err := ledgerFor(kind)
	if err != nil {
		return err
	}
	res := l.byVoter(t.db.WithContext(ctx), voterID, targetID).Update("value", int(d))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return voting.ErrConflict
	}
	return nil
}

func (t *voteTx) DeleteVote(ctx context.Context, kind voting.Kind, voterID, targetID int) error {
	l, err := ledgerFor(kind)
	if err != nil {
		return err
	}
	res := t.db.WithContext(ctx).
		Where("user_id = ? AND "+l.targetColumn+" = ?", voterID, targetID).
		Delete(l.voteModel())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return voting.ErrConflict
	}
	return nil
}

// AddScore increments the score in place and returns the stored result.
func (t *voteTx) AddScore(ctx context.Context, kind voting.Kind, targetID, delta int) (int, error) {
	l, err := ledgerFor(kind)
	if err != nil {
		return 0, err
	}

	var scores []int
	res := t.db.WithContext(ctx).Raw(
		fmt.Sprintf("UPDATE %s SET %s = %s + ? WHERE id = ? RETURNING %s",
			l.contentTable, l.scoreColumn, l.scoreColumn, l.scoreColumn),
		delta, targetID,
	).Scan(&scores)
	if res.Error != nil {
		return 0, res.Error
	}
	if len(scores) == 0 {
		return 0, voting.ErrNotFound
	}
	return scores[0], nil
}

// AddKarma increments the user's karma in place. A deleted author is
// skipped: there is no karma left to keep in step.
func (t *voteTx) AddKarma(ctx context.Context, userID, delta int) (voting.Author, error) {
	var rows []voting.Author
	res := t.db.WithContext(ctx).Raw(
		"UPDATE users SET karma = karma + ?, updated_at = ? WHERE id = ? RETURNING id, username, karma",
		delta, time.Now().UTC(), userID,
	).Scan(&rows)
	if res.Error != nil {
		return voting.Author{}, res.Error
	}
	if len(rows) == 0 {
		return voting.Author{ID: userID}, nil
	}
	return rows[0], nil
}
