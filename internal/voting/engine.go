package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Result is what a successful vote reports back to the caller.
type Result struct {
	Kind       Kind
	TargetID   int
	Score      int
	VoteValue  int
	KarmaDelta int
	Author     Author
}

// Engine applies votes for every content kind with a single algorithm.
type Engine struct {
	store Store
	log   logrus.FieldLogger
}

func NewEngine(store Store, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{store: store, log: log}
}

// Cast validates and applies one vote by voterID on the given content.
// The ledger row, the content score and the author karma are written in a
// single transaction.
func (e *Engine) Cast(ctx context.Context, kind Kind, voterID, targetID, value int) (Result, error) {
	requested, err := ParseDirection(value)
	if err != nil {
		return Result{}, err
	}

	target, err := e.store.Target(ctx, kind, targetID)
	if err != nil {
		return Result{}, err
	}
	if target.AuthorID == voterID {
		return Result{}, ErrSelfVote
	}

	var (
		out Outcome
		res = Result{Kind: kind, TargetID: targetID}
	)
	err = e.store.Transact(ctx, func(tx Tx) error {
		existing, ok, err := tx.LockVote(ctx, kind, voterID, targetID)
		if err != nil {
			return fmt.Errorf("load %s vote: %w", kind, err)
		}

		out = Reconcile(existing, ok, requested)

		switch out.Ledger {
		case LedgerCreate:
			err = tx.CreateVote(ctx, kind, voterID, targetID, out.Direction)
		case LedgerUpdate:
			err = tx.UpdateVote(ctx, kind, voterID, targetID, out.Direction)
		case LedgerDelete:
			err = tx.DeleteVote(ctx, kind, voterID, targetID)
		}
		if err != nil {
			return fmt.Errorf("%s %s vote: %w", out.Ledger, kind, err)
		}

		if res.Score, err = tx.AddScore(ctx, kind, targetID, out.ScoreDelta); err != nil {
			return fmt.Errorf("apply %s score: %w", kind, err)
		}
		if res.Author, err = tx.AddKarma(ctx, target.AuthorID, out.KarmaDelta); err != nil {
			return fmt.Errorf("apply author karma: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) {
			e.log.WithError(err).WithFields(logrus.Fields{
				"kind":   kind.String(),
				"target": targetID,
				"voter":  voterID,
			}).Error("vote transaction failed")
		}
		return Result{}, err
	}

	res.VoteValue = out.VoteValue
	res.KarmaDelta = out.KarmaDelta

	e.log.WithFields(logrus.Fields{
		"kind":        kind.String(),
		"target":      targetID,
		"voter":       voterID,
		"author":      target.AuthorID,
		"ledger":      out.Ledger.String(),
		"score_delta": out.ScoreDelta,
		"vote_value":  out.VoteValue,
	}).Debug("vote applied")

	return res, nil
}

// Current reports the voter's stored direction on the content; zero and
// false when they have not voted.
func (e *Engine) Current(ctx context.Context, kind Kind, voterID, targetID int) (Direction, bool, error) {
	return e.store.Current(ctx, kind, voterID, targetID)
}
