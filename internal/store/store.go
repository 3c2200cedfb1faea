package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/localstore"
	"github.com/sridharani/designhaven/pkg/event"
	"github.com/sridharani/designhaven/pkg/logger"
	"github.com/sridharani/designhaven/pkg/metrics"
	"github.com/sridharani/designhaven/pkg/validate"
)

// Data is the in-memory mirror. It is only ever touched under the store's
// lock, through View and Mutate — handlers never hold a reference to it,
// which closes the "mutated but never saved" bug class.
type Data struct {
	Categories  []models.Category
	Products    []models.Product
	Orders      []models.Order
	OfferBanner *models.OfferBanner

	Users       []models.User
	Cart        []models.CartItem
	Reviews     map[string][]models.Review
	CurrentUser *models.User
	Addresses   map[string]models.Address
}

// Snapshot is the read-only copy of the shared collections carried by the
// EventDataChanged broadcast.
type Snapshot struct {
	Categories  []models.Category   `json:"categories"`
	Products    []models.Product    `json:"products"`
	Orders      []models.Order      `json:"orders"`
	OfferBanner *models.OfferBanner `json:"offerBanner"`
}

// Store mediates all reads and writes between the application and the two
// backends. Remote mode is decided once at Init; a permission failure at
// any later point flips the session to local-only for good (never back).
type Store struct {
	mu   sync.RWMutex
	data Data

	local    *LocalBackend
	remote   RemoteStore
	remoteOK atomic.Bool

	watchMu      sync.Mutex
	watchCancels map[string]func()
}

// New builds a Store over the given backends. remote may be nil when the
// capability probe failed; the store then runs local-only. Call Init to
// hydrate before first use.
func New(local *LocalBackend, remote RemoteStore) *Store {
	return &Store{
		local:        local,
		remote:       remote,
		watchCancels: make(map[string]func()),
	}
}

// Remote reports whether the remote path is still active.
func (s *Store) Remote() bool { return s.remoteOK.Load() }

// Init hydrates the mirror: shared collections from the remote store when
// available (mirrored locally), otherwise from the local store; user-local
// collections always from the local store. Safe to call again — watchers
// are replaced, not stacked.
func (s *Store) Init(ctx context.Context) {
	if s.remote != nil {
		s.remote.SetErrorHandler(func(key string, err error) {
			if errors.Is(err, ErrPermissionDenied) {
				s.disableRemote(err)
			}
		})
		s.remoteOK.Store(true)
		metrics.StoreRemoteActive.Set(1)
	}

	if s.Remote() {
		if err := s.hydrateRemote(ctx); err != nil {
			logger.Error("remote hydrate failed, falling back to local store", "error", err)
			if errors.Is(err, ErrPermissionDenied) {
				s.disableRemote(err)
			}
			s.loadSharedFromLocal(ctx)
		} else {
			s.installWatchers(ctx)
		}
	} else {
		s.loadSharedFromLocal(ctx)
	}

	s.loadUserLocal(ctx)
}

// hydrateRemote fetches each shared collection once, overwriting memory
// and mirroring the result into the local store.
func (s *Store) hydrateRemote(ctx context.Context) error {
	raws := make(map[string][]byte, len(SharedKeys))
	for _, key := range SharedKeys {
		raw, err := s.remote.Load(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		raws[key] = raw // nil for absent keys → empty collection
	}

	s.mu.Lock()
	for _, key := range SharedKeys {
		s.setSharedLocked(key, raws[key])
	}
	payloads, err := s.marshalSharedLocked()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("store: mirror after hydrate: %w", err)
	}

	s.writeSharedLocal(ctx, payloads)
	return nil
}

// loadSharedFromLocal loads the shared collections from the local store.
// A missing or malformed entry is replaced with an empty collection and
// that replacement is persisted straight back.
func (s *Store) loadSharedFromLocal(ctx context.Context) {
	for _, key := range SharedKeys {
		raw, err := s.local.Load(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			logger.Error("local load failed", "key", key, "error", err)
		}

		s.mu.Lock()
		ok := s.setSharedLocked(key, raw)
		repaired, merr := s.marshalSharedKeyLocked(key)
		s.mu.Unlock()

		if !ok && merr == nil {
			if werr := s.local.Store(ctx, key, repaired); werr != nil {
				s.noteLocalWriteError(key, werr)
			}
		}
	}
}

// loadUserLocal loads the user-local collections; these never touch the
// remote store. Users missing any of email, name, or password are
// filtered out and the cleaned slice is persisted back.
func (s *Store) loadUserLocal(ctx context.Context) {
	users, usersOK := decodeSlice[models.User](s.loadLocalRaw(ctx, KeyUsers))
	kept := users[:0]
	for _, u := range users {
		if u.Email != "" && u.Name != "" && u.Password != "" {
			kept = append(kept, u)
		}
	}
	cart, _ := decodeSlice[models.CartItem](s.loadLocalRaw(ctx, KeyCart))
	reviews := decodeMap[[]models.Review](s.loadLocalRaw(ctx, KeyReviews))
	addresses := decodeMap[models.Address](s.loadLocalRaw(ctx, KeyAddresses))
	currentUser := decodePointer[models.User](s.loadLocalRaw(ctx, KeyCurrentUser))

	s.mu.Lock()
	s.data.Users = kept
	s.data.Cart = cart
	s.data.Reviews = reviews
	s.data.Addresses = addresses
	s.data.CurrentUser = currentUser
	s.mu.Unlock()

	if !usersOK || len(kept) != len(users) {
		if raw, err := json.Marshal(kept); err == nil {
			if werr := s.local.Store(ctx, KeyUsers, raw); werr != nil {
				s.noteLocalWriteError(KeyUsers, werr)
			}
		}
	}
}

func (s *Store) loadLocalRaw(ctx context.Context, key string) []byte {
	raw, err := s.local.Load(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.Error("local load failed", "key", key, "error", err)
	}
	return raw
}

// ── Read / mutate ────────────────────────────────────────────────────────────

// View calls fn with the mirror under a read lock. fn must not retain or
// mutate anything it is handed.
func (s *Store) View(fn func(d *Data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

// Mutate applies fn under the write lock and, when fn succeeds, runs the
// full save pipeline: validate, persist, broadcast. A failed save does not
// roll the mutation back — memory stays ahead of storage, by contract.
func (s *Store) Mutate(ctx context.Context, fn func(d *Data) error) error {
	s.mu.Lock()
	err := fn(&s.data)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Save(ctx)
}

// Snapshot returns a copy of the shared collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Categories: append([]models.Category(nil), s.data.Categories...),
		Products:   append([]models.Product(nil), s.data.Products...),
		Orders:     append([]models.Order(nil), s.data.Orders...),
	}
	if s.data.OfferBanner != nil {
		b := *s.data.OfferBanner
		snap.OfferBanner = &b
	}
	return snap
}

// Subscribe registers fn for every EventDataChanged broadcast. Listeners
// run synchronously in the execution context of the save or absorb that
// triggered the change.
func (s *Store) Subscribe(fn func(Snapshot)) {
	event.Listen(EventDataChanged, func(payload interface{}) {
		if snap, ok := payload.(Snapshot); ok {
			fn(snap)
		}
	})
}

// ── Save ─────────────────────────────────────────────────────────────────────

// Save validates every collection (silently dropping invalid entries, with
// the reasons logged), persists the shared collections to the active
// backend (remote with a local mirror, or local only), always persists the
// user-local collections locally, and broadcasts EventDataChanged.
//
// Save never surfaces backend failures: they degrade to the local path.
// The only error returned is a serialization failure.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	s.validateLocked()
	shared, err := s.marshalSharedLocked()
	var userLocal map[string][]byte
	if err == nil {
		userLocal, err = s.marshalUserLocalLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}

	if s.Remote() {
		if rerr := s.storeRemote(ctx, shared); rerr != nil {
			logger.Error("remote save failed, keeping local copy", "error", rerr)
			if errors.Is(rerr, ErrPermissionDenied) {
				s.disableRemote(rerr)
			}
		} else {
			metrics.StoreSaves.WithLabelValues("remote").Inc()
		}
	}
	// The local store always receives the shared collections: it is the
	// fallback in remote mode and the only copy otherwise.
	s.writeSharedLocal(ctx, shared)

	for _, key := range []string{KeyUsers, KeyReviews, KeyCurrentUser, KeyCart, KeyAddresses} {
		if werr := s.local.Store(ctx, key, userLocal[key]); werr != nil {
			if s.noteLocalWriteError(key, werr) {
				break // quota: abort the remaining writes of this save
			}
		}
	}

	metrics.StoreSaves.WithLabelValues("local").Inc()
	event.Fire(EventDataChanged, snap)
	return nil
}

func (s *Store) storeRemote(ctx context.Context, shared map[string][]byte) error {
	for _, key := range SharedKeys {
		if err := s.remote.Store(ctx, key, shared[key]); err != nil {
			return err
		}
	}
	return nil
}

// writeSharedLocal mirrors the shared collections into the local store and
// stamps lastUpdate. A quota failure warns the user and aborts the rest of
// this write; other failures are logged and skipped.
func (s *Store) writeSharedLocal(ctx context.Context, shared map[string][]byte) {
	for _, key := range SharedKeys {
		if err := s.local.Store(ctx, key, shared[key]); err != nil {
			if s.noteLocalWriteError(key, err) {
				return
			}
		}
	}
	stamp := []byte(strconv.FormatInt(time.Now().UnixMilli(), 10))
	if err := s.local.Store(ctx, KeyLastUpdate, stamp); err != nil {
		s.noteLocalWriteError(KeyLastUpdate, err)
		return
	}
	event.Fire(EventStorageChanged, KeyLastUpdate)
}

// noteLocalWriteError logs the failure and reports whether it was a quota
// error (which the caller treats as an abort).
func (s *Store) noteLocalWriteError(key string, err error) bool {
	if errors.Is(err, localstore.ErrQuotaExceeded) {
		logger.Warn("storage quota exceeded, write aborted", "key", key, "error", err)
		event.Fire(EventQuotaExceeded, "Storage quota exceeded. Please clear some data.")
		return true
	}
	logger.Error("local write failed", "key", key, "error", err)
	return false
}

// validateLocked re-filters every validated collection against its schema.
// Rejected entries are dropped and logged with reasons; the drop is silent
// towards callers, not towards the operator.
func (s *Store) validateLocked() {
	var rejCat []validate.Rejected[models.Category]
	s.data.Categories, rejCat = models.FilterCategories(s.data.Categories)
	logDropped(KeyCategories, rejCat)

	var rejProd []validate.Rejected[models.Product]
	s.data.Products, rejProd = models.FilterProducts(s.data.Products)
	logDropped(KeyProducts, rejProd)

	var rejOrd []validate.Rejected[models.Order]
	s.data.Orders, rejOrd = models.FilterOrders(s.data.Orders)
	logDropped(KeyOrders, rejOrd)

	var rejUsr []validate.Rejected[models.User]
	s.data.Users, rejUsr = models.FilterUsers(s.data.Users)
	logDropped(KeyUsers, rejUsr)

	s.data.OfferBanner = models.FilterBanner(s.data.OfferBanner)
	s.data.Reviews = models.FilterReviews(s.data.Reviews)
}

func logDropped[T any](key string, rejected []validate.Rejected[T]) {
	for _, r := range rejected {
		logger.Warn("entry dropped by validation", "key", key, "index", r.Index, "reasons", r.Errors)
	}
	if n := len(rejected); n > 0 {
		metrics.StoreRejectedEntries.WithLabelValues(key).Add(float64(n))
	}
}

// ── Reload ───────────────────────────────────────────────────────────────────

// Reload re-fetches the shared collections from the active backend without
// reinstalling watchers. Two consecutive reloads with no intervening write
// leave the mirror unchanged. EventDataChanged fires only when a reload
// actually changed something.
func (s *Store) Reload(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.StoreReloadDuration.Observe(time.Since(start).Seconds())
		metrics.StoreReloads.Inc()
	}()

	if s.Remote() {
		raws := make(map[string][]byte, len(SharedKeys))
		failed := false
		for _, key := range SharedKeys {
			raw, err := s.remote.Load(ctx, key)
			if err != nil && !errors.Is(err, ErrNotFound) {
				logger.Error("remote reload failed", "key", key, "error", err)
				if errors.Is(err, ErrPermissionDenied) {
					s.disableRemote(err)
				}
				failed = true
				break
			}
			raws[key] = raw
		}
		if !failed {
			changed := false
			s.mu.Lock()
			for _, key := range SharedKeys {
				if c, _ := s.replaceIfDifferentLocked(key, raws[key]); c {
					changed = true
				}
			}
			shared, merr := s.marshalSharedLocked()
			snap := s.snapshotLocked()
			s.mu.Unlock()

			if merr == nil {
				s.writeSharedLocal(ctx, shared)
			}
			if changed {
				event.Fire(EventDataChanged, snap)
			}
			return
		}
	}

	// Local path: pick up whatever another process wrote. An entry that
	// does not parse is replaced with the empty collection and the repair
	// is written back, same as the load path.
	changed := false
	for _, key := range SharedKeys {
		raw, err := s.local.Load(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logger.Error("local reload failed", "key", key, "error", err)
			}
			continue
		}
		s.mu.Lock()
		c, ok := s.replaceIfDifferentLocked(key, raw)
		var repaired []byte
		if c && !ok {
			repaired, _ = s.marshalSharedKeyLocked(key)
		}
		s.mu.Unlock()
		if c {
			changed = true
		}
		if repaired != nil {
			logger.Warn("malformed local entry replaced", "key", key)
			if err := s.local.Store(ctx, key, repaired); err != nil {
				s.noteLocalWriteError(key, err)
			}
		}
	}
	if changed {
		event.Fire(EventDataChanged, s.Snapshot())
	}
}

// absorbRemote handles one change-stream notification: compare the
// serialized new value with the serialized current value; on a difference,
// replace memory, mirror locally, and broadcast.
func (s *Store) absorbRemote(ctx context.Context, key string, raw []byte) {
	s.mu.Lock()
	changed, _ := s.replaceIfDifferentLocked(key, raw)
	mirrored, merr := s.marshalSharedKeyLocked(key)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if !changed {
		return
	}
	metrics.StoreWatchUpdates.WithLabelValues(key).Inc()
	logger.Info("collection updated from remote", "key", key)

	if merr == nil {
		if err := s.local.Store(ctx, key, mirrored); err != nil {
			s.noteLocalWriteError(key, err)
		}
	}
	event.Fire(EventDataChanged, snap)
}

// installWatchers registers one live listener per shared collection,
// first deregistering any previous listener for the same key so repeated
// Init calls never stack duplicate handlers.
func (s *Store) installWatchers(ctx context.Context) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for _, key := range SharedKeys {
		if cancel, ok := s.watchCancels[key]; ok {
			cancel()
			delete(s.watchCancels, key)
		}

		key := key
		cancel, err := s.remote.Watch(ctx, key, func(raw []byte) {
			s.absorbRemote(context.Background(), key, raw)
		})
		if err != nil {
			logger.Error("watch registration failed", "key", key, "error", err)
			if errors.Is(err, ErrPermissionDenied) {
				s.disableRemote(err)
				return
			}
			continue
		}
		s.watchCancels[key] = cancel
	}
}

// disableRemote permanently flips the session to local-only. The flag only
// ever goes true→false; there is no recovery path until restart.
func (s *Store) disableRemote(cause error) {
	if !s.remoteOK.CompareAndSwap(true, false) {
		return
	}
	metrics.StoreRemoteActive.Set(0)
	logger.Error("remote store disabled for this session; check the remote database rules and credentials",
		"cause", cause)

	s.watchMu.Lock()
	for key, cancel := range s.watchCancels {
		cancel()
		delete(s.watchCancels, key)
	}
	s.watchMu.Unlock()
}

// ── Serialization helpers ────────────────────────────────────────────────────

// setSharedLocked decodes raw into the keyed collection, replacing memory
// wholesale. Malformed or absent input becomes the empty value. Returns
// false when the input did not decode to the expected shape.
func (s *Store) setSharedLocked(key string, raw []byte) bool {
	switch key {
	case KeyCategories:
		v, ok := decodeSlice[models.Category](raw)
		s.data.Categories = v
		return ok
	case KeyProducts:
		v, ok := decodeSlice[models.Product](raw)
		s.data.Products = v
		return ok
	case KeyOrders:
		v, ok := decodeSlice[models.Order](raw)
		s.data.Orders = v
		return ok
	case KeyOfferBanner:
		s.data.OfferBanner = decodePointer[models.OfferBanner](raw)
		return true // any malformed banner is just "no banner"
	}
	return false
}

// replaceIfDifferentLocked decodes raw and replaces the keyed collection
// only when its canonical serialization differs from the current one.
// The second return reports whether raw decoded to the expected shape;
// malformed input still replaces memory, with the empty value.
func (s *Store) replaceIfDifferentLocked(key string, raw []byte) (changed, wellFormed bool) {
	current, err := s.marshalSharedKeyLocked(key)
	if err != nil {
		return false, true
	}

	// Round-trip the incoming value so the comparison is canonical
	// (field order, whitespace, absent-vs-empty all normalized).
	prevCats, prevProds, prevOrders, prevBanner :=
		s.data.Categories, s.data.Products, s.data.Orders, s.data.OfferBanner
	wellFormed = s.setSharedLocked(key, raw)
	next, err := s.marshalSharedKeyLocked(key)
	if err != nil || bytes.Equal(current, next) {
		s.data.Categories, s.data.Products, s.data.Orders, s.data.OfferBanner =
			prevCats, prevProds, prevOrders, prevBanner
		return false, wellFormed
	}
	return true, wellFormed
}

func (s *Store) marshalSharedLocked() (map[string][]byte, error) {
	out := make(map[string][]byte, len(SharedKeys))
	for _, key := range SharedKeys {
		raw, err := s.marshalSharedKeyLocked(key)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return out, nil
}

func (s *Store) marshalSharedKeyLocked(key string) ([]byte, error) {
	var v interface{}
	switch key {
	case KeyCategories:
		v = emptyIfNil(s.data.Categories)
	case KeyProducts:
		v = emptyIfNil(s.data.Products)
	case KeyOrders:
		v = emptyIfNil(s.data.Orders)
	case KeyOfferBanner:
		v = s.data.OfferBanner // null when absent
	default:
		return nil, fmt.Errorf("store: unknown shared key %q", key)
	}
	return json.Marshal(v)
}

func (s *Store) marshalUserLocalLocked() (map[string][]byte, error) {
	values := map[string]interface{}{
		KeyUsers:       emptyIfNil(s.data.Users),
		KeyReviews:     s.data.Reviews,
		KeyCurrentUser: s.data.CurrentUser,
		KeyCart:        emptyIfNil(s.data.Cart),
		KeyAddresses:   s.data.Addresses,
	}
	out := make(map[string][]byte, len(values))
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return out, nil
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// decodeSlice parses raw as a JSON array of T. Absent or malformed input
// yields an empty slice and ok=false.
func decodeSlice[T any](raw []byte) ([]T, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, false
	}
	var v []T
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return []T{}, false
	}
	return v, true
}

func decodeMap[T any](raw []byte) map[string]T {
	if len(raw) == 0 {
		return map[string]T{}
	}
	var v map[string]T
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return map[string]T{}
	}
	return v
}

func decodePointer[T any](raw []byte) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}
