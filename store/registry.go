package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	dbt "wallet/db/db"
	"wallet/featureflag"
	applog "wallet/logger"
	"wallet/send"
)

// Registry hands out one Store per wallet, creating and restoring it on
// first use.
type Registry struct {
	reducer *send.Reducer
	now     func() time.Time
	snapDB  dbt.SnapshotDBWrapper

	mu      sync.Mutex
	stores  map[uuid.UUID]*Store
	loading map[uuid.UUID]*pendingLoad
	flags   *featureflag.Flags
}

// pendingLoad lets concurrent Get calls for one wallet share a single load.
type pendingLoad struct {
	done  chan struct{}
	store *Store
	err   error
}

func NewRegistry(snapDB dbt.SnapshotDBWrapper, reducer *send.Reducer, now func() time.Time) *Registry {
	if reducer == nil {
		reducer = send.NewReducer(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{
		reducer: reducer,
		now:     now,
		snapDB:  snapDB,
		stores:  make(map[uuid.UUID]*Store),
		loading: make(map[uuid.UUID]*pendingLoad),
	}
}

// Get returns the store of walletID. A new store is restored from its
// snapshot and then receives the latest broadcast feature flags. Loading
// one wallet does not block Get calls for other wallets.
func (r *Registry) Get(walletID uuid.UUID) (*Store, error) {
	r.mu.Lock()
	if s, ok := r.stores[walletID]; ok {
		r.mu.Unlock()
		return s, nil
	}
	if p, ok := r.loading[walletID]; ok {
		r.mu.Unlock()
		<-p.done
		return p.store, p.err
	}
	p := &pendingLoad{done: make(chan struct{})}
	r.loading[walletID] = p
	r.mu.Unlock()

	p.store, p.err = r.load(walletID)
	if p.err != nil {
		r.mu.Lock()
		delete(r.loading, walletID)
		r.mu.Unlock()
	}
	close(p.done)
	return p.store, p.err
}

func (r *Registry) load(walletID uuid.UUID) (*Store, error) {
	s := New(walletID, WithReducer(r.reducer), WithClock(r.now), WithSnapshotDB(r.snapDB))
	if err := s.Restore(); err != nil {
		return nil, fmt.Errorf("failed to restore wallet %s: %w", walletID, err)
	}

	// The store is published under the same lock Broadcast takes, after it
	// has seen the latest flags, so no broadcast is missed or applied out of
	// order.
	var applied *featureflag.Flags
	for {
		r.mu.Lock()
		flags := r.flags
		if flags == applied {
			r.stores[walletID] = s
			delete(r.loading, walletID)
			r.mu.Unlock()
			break
		}
		r.mu.Unlock()
		s.Dispatch(send.UpdateFeatureFlags{Flags: *flags})
		applied = flags
	}
	applog.Store.Info().Str("wallet", walletID.String()).Msg("wallet store loaded")
	return s, nil
}

// Loaded reports whether walletID already has a live store.
func (r *Registry) Loaded(walletID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stores[walletID]
	return ok
}

// Broadcast dispatches flags to every live store and remembers them for
// stores created later.
func (r *Registry) Broadcast(flags featureflag.Flags) {
	r.mu.Lock()
	r.flags = &flags
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Dispatch(send.UpdateFeatureFlags{Flags: flags})
	}
	applog.Store.Info().Int("stores", len(stores)).Msg("feature flags broadcast")
}

// RestoreAll loads every wallet that has a stored snapshot.
func (r *Registry) RestoreAll() error {
	if r.snapDB == nil {
		return nil
	}
	ids, err := r.snapDB.ListWallets()
	if err != nil {
		return fmt.Errorf("failed to list wallets: %w", err)
	}
	for _, id := range ids {
		if _, err := r.Get(id); err != nil {
			return err
		}
	}
	return nil
}

// Close drops every store and its subscribers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.stores {
		s.Close()
		delete(r.stores, id)
	}
}
