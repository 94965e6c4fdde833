package voting

import "context"

// Target is the part of a votable item the engine needs. AuthorID is fixed
// at creation, so it can be read outside the write transaction.
type Target struct {
	Kind     Kind
	ID       int
	AuthorID int
}

// Author is the author's display state after a vote was applied.
type Author struct {
	ID       int
	Username string
	Karma    int
}

// Store is the persistence the engine drives. Implementations must back the
// ledger with a unique (voter, target) constraint and apply score and karma
// deltas as storage-side increments.
type Store interface {
	// Target returns ErrNotFound when the content does not exist.
	Target(ctx context.Context, kind Kind, id int) (Target, error)
	// Current returns the voter's stored direction, if any.
	Current(ctx context.Context, kind Kind, voterID, targetID int) (Direction, bool, error)
	// Transact runs fn atomically; if fn returns an error nothing it did persists.
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes a single vote performs.
type Tx interface {
	// LockVote reads the voter's ledger row and holds it until the
	// transaction ends.
	LockVote(ctx context.Context, kind Kind, voterID, targetID int) (Direction, bool, error)
	// CreateVote returns ErrConflict when the row already exists.
	CreateVote(ctx context.Context, kind Kind, voterID, targetID int, d Direction) error
	UpdateVote(ctx context.Context, kind Kind, voterID, targetID int, d Direction) error
	DeleteVote(ctx context.Context, kind Kind, voterID, targetID int) error

	AddScore(ctx context.Context, kind Kind, targetID, delta int) (int, error)
	AddKarma(ctx context.Context, userID, delta int) (Author, error)
}
