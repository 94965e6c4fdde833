package voting

import (
	"context"
	"errors"
	"maps"
	"sync"
)

type ledgerKey struct {
	kind          Kind
	voter, target int
}

type contentKey struct {
	kind Kind
	id   int
}

// memStore is an in-memory Store. Transact stages writes on a copy and
// swaps it in only when fn succeeds.
type memStore struct {
	mu      sync.Mutex
	votes   map[ledgerKey]Direction
	authors map[contentKey]int
	scores  map[contentKey]int
	karma   map[int]int
	names   map[int]string

	// failAfter makes the named write fail inside the transaction.
	failAfter string
}

func newMemStore() *memStore {
	return &memStore{
		votes:   map[ledgerKey]Direction{},
		authors: map[contentKey]int{},
		scores:  map[contentKey]int{},
		karma:   map[int]int{},
		names:   map[int]string{},
	}
}

func (m *memStore) addUser(id int, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = name
	m.karma[id] = 0
}

func (m *memStore) addContent(kind Kind, id, authorID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors[contentKey{kind, id}] = authorID
	m.scores[contentKey{kind, id}] = 0
}

func (m *memStore) score(kind Kind, id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scores[contentKey{kind, id}]
}

func (m *memStore) karmaOf(id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.karma[id]
}

func (m *memStore) ledgerSum(kind Kind, id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for k, d := range m.votes {
		if k.kind == kind && k.target == id {
			sum += int(d)
		}
	}
	return sum
}

func (m *memStore) ledgerRows(kind Kind, voter, id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.votes[ledgerKey{kind, voter, id}]; ok {
		return 1
	}
	return 0
}

func (m *memStore) Target(_ context.Context, kind Kind, id int) (Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	author, ok := m.authors[contentKey{kind, id}]
	if !ok {
		return Target{}, ErrNotFound
	}
	return Target{Kind: kind, ID: id, AuthorID: author}, nil
}

func (m *memStore) Current(_ context.Context, kind Kind, voter, target int) (Direction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.votes[ledgerKey{kind, voter, target}]
	return d, ok, nil
}

func (m *memStore) Transact(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		m:      m,
		votes:  maps.Clone(m.votes),
		scores: maps.Clone(m.scores),
		karma:  maps.Clone(m.karma),
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.votes, m.scores, m.karma = tx.votes, tx.scores, tx.karma
	return nil
}

var errInjected = errors.New("injected failure")

type memTx struct {
	m      *memStore
	votes  map[ledgerKey]Direction
	scores map[contentKey]int
	karma  map[int]int
}

func (t *memTx) fail(op string) error {
	if t.m.failAfter == op {
		return errInjected
	}
	return nil
}

func (t *memTx) LockVote(_ context.Context, kind Kind, voter, target int) (Direction, bool, error) {
	d, ok := t.votes[ledgerKey{kind, voter, target}]
	return d, ok, nil
}

func (t *memTx) CreateVote(_ context.Context, kind Kind, voter, target int, d Direction) error {
	k := ledgerKey{kind, voter, target}
	if _, ok := t.votes[k]; ok {
		return ErrConflict
	}
	t.votes[k] = d
	return t.fail("create")
}

func (t *memTx) UpdateVote(_ context.Context, kind Kind, voter, target int, d Direction) error {
	t.votes[ledgerKey{kind, voter, target}] = d
	return t.fail("update")
}

func (t *memTx) DeleteVote(_ context.Context, kind Kind, voter, target int) error {
	delete(t.votes, ledgerKey{kind, voter, target})
	return t.fail("delete")
}

func (t *memTx) AddScore(_ context.Context, kind Kind, target, delta int) (int, error) {
	k := contentKey{kind, target}
	t.scores[k] += delta
	return t.scores[k], t.fail("score")
}

func (t *memTx) AddKarma(_ context.Context, user, delta int) (Author, error) {
	t.karma[user] += delta
	return Author{ID: user, Username: t.m.names[user], Karma: t.karma[user]}, t.fail("karma")
}
