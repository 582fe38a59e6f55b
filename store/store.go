package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	dbt "wallet/db/db"
	"wallet/libs/diff"
	applog "wallet/logger"
	"wallet/send"
)

const subscriberBuffer = 8

// Store owns the send state of one wallet. Dispatch calls are serialized, so
// the reducer always sees the result of the previous transition.
type Store struct {
	walletID uuid.UUID
	reducer  *send.Reducer
	now      func() time.Time
	snapDB   dbt.SnapshotDBWrapper
	log      zerolog.Logger

	mu          sync.Mutex
	state       send.State
	subscribers map[uuid.UUID]chan send.State
	// set while the stored snapshot could not be read; the row is left as is
	holdPersist bool
}

type Option func(*Store)

// WithReducer replaces the default reducer, e.g. to inject another
// recipient equivalence.
func WithReducer(r *send.Reducer) Option {
	return func(s *Store) { s.reducer = r }
}

// WithClock sets the time source passed to the reducer.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSnapshotDB persists a snapshot after every transition that changes the state.
func WithSnapshotDB(snapDB dbt.SnapshotDBWrapper) Option {
	return func(s *Store) { s.snapDB = snapDB }
}

func New(walletID uuid.UUID, opts ...Option) *Store {
	s := &Store{
		walletID:    walletID,
		reducer:     send.NewReducer(nil),
		now:         time.Now,
		state:       send.InitialState(),
		subscribers: make(map[uuid.UUID]chan send.State),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = applog.Store.With().Str("wallet", walletID.String()).Logger()
	return s
}

func (s *Store) WalletID() uuid.UUID {
	return s.walletID
}

// State returns the current state. Callers must treat its slices as read-only.
func (s *Store) State() send.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and returns the resulting state.
func (s *Store) Dispatch(action send.Action) send.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next := s.reducer.Reduce(prev, action, s.now())

	changes, err := diff.Changes(prev, next)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to diff state")
	}
	typ := "<nil>"
	if action != nil {
		typ = action.Type()
	}
	if err == nil && len(changes) == 0 {
		s.log.Debug().Str("action", typ).Msg("no state change")
		return prev
	}

	s.state = next
	s.log.Debug().Str("action", typ).Strs("changes", diff.Paths(changes)).Msg("state updated")

	s.persist(next)
	s.notify(next)
	return next
}

// Restore loads the stored snapshot, if any, and dispatches it as a
// Rehydrate action. A wallet without a snapshot still gets a Rehydrate so
// the in-flight flag is cleared. Stored fields that cannot be decoded are
// skipped and the rest are merged. A snapshot that cannot be read at all is
// never overwritten: the store keeps working in memory only until a later
// Restore reads a valid snapshot.
func (s *Store) Restore() error {
	if s.snapDB == nil {
		s.Dispatch(send.Rehydrate{})
		return nil
	}

	snapshot, err := s.snapDB.GetSnapshot(s.walletID)
	if err != nil {
		if errors.Is(err, dbt.ErrSnapshotNotFound) {
			s.setHoldPersist(false)
			s.Dispatch(send.Rehydrate{})
			return nil
		}
		return fmt.Errorf("failed to load snapshot for wallet %s: %w", s.walletID, err)
	}

	payload, err := send.ParseRehydratePayload(snapshot.Payload)
	if err != nil {
		s.log.Error().Err(err).Msg("unreadable snapshot, persistence is held until it is repaired")
		s.setHoldPersist(true)
		s.Dispatch(send.Rehydrate{})
		return nil
	}
	if skipped := payload.Skipped(); len(skipped) > 0 {
		s.log.Warn().Strs("fields", skipped).Msg("skipping undecodable snapshot fields")
	}
	s.setHoldPersist(false)
	s.Dispatch(send.Rehydrate{Payload: payload})
	return nil
}

func (s *Store) setHoldPersist(hold bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdPersist = hold
}

// Subscribe returns a channel receiving every new state. Slow subscribers
// miss updates rather than block Dispatch.
func (s *Store) Subscribe() (uuid.UUID, <-chan send.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	ch := make(chan send.State, subscriberBuffer)
	s.subscribers[id] = ch
	return id, ch
}

func (s *Store) DeSubscribe(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.subscribers[id]
	if !ok {
		return fmt.Errorf("subscriber %s not found for wallet %s", id, s.walletID)
	}
	delete(s.subscribers, id)
	close(ch)
	return nil
}

// Close drops every subscriber.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

// persist and notify are called with mu held.
func (s *Store) persist(state send.State) {
	if s.snapDB == nil {
		return
	}
	if s.holdPersist {
		s.log.Warn().Msg("stored snapshot is unreadable, not overwriting it")
		return
	}
	payload, err := send.MarshalSnapshot(state)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode snapshot")
		return
	}
	if err := s.snapDB.SaveSnapshot(&dbt.Snapshot{WalletID: s.walletID, Payload: payload}); err != nil {
		s.log.Error().Err(err).Msg("failed to save snapshot")
	}
}

func (s *Store) notify(state send.State) {
	for id, ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			s.log.Warn().Str("subscriber", id.String()).Msg("subscriber is full, dropping update")
		}
	}
}
