package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/internal/localstore"
	"github.com/sridharani/designhaven/pkg/event"
)

// ── Fakes ────────────────────────────────────────────────────────────────────

type memKV struct {
	mu     sync.Mutex
	m      map[string][]byte
	setErr error
}

func newMemKV() *memKV { return &memKV{m: map[string][]byte{}} }

func (k *memKV) Get(key string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	if !ok {
		return nil, localstore.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (k *memKV) Set(key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.setErr != nil {
		return k.setErr
	}
	k.m[key] = append([]byte(nil), value...)
	return nil
}

func (k *memKV) Delete(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

func (k *memKV) Close() error { return nil }

type fakeRemote struct {
	mu       sync.Mutex
	values   map[string][]byte
	storeErr error
	loadErr  error
	stores   int
	watchers map[string]func([]byte)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{values: map[string][]byte{}, watchers: map[string]func([]byte){}}
}

func (r *fakeRemote) Name() string { return "fake-remote" }

func (r *fakeRemote) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	v, ok := r.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *fakeRemote) Store(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storeErr != nil {
		return r.storeErr
	}
	r.stores++
	r.values[key] = append([]byte(nil), value...)
	return nil
}

func (r *fakeRemote) Watch(_ context.Context, key string, onChange func([]byte)) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[key] = onChange
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if fn, ok := r.watchers[key]; ok && fmt.Sprintf("%p", fn) == fmt.Sprintf("%p", onChange) {
			delete(r.watchers, key)
		}
	}, nil
}

func (r *fakeRemote) SetErrorHandler(func(string, error)) {}

func (r *fakeRemote) push(key string, raw []byte) {
	r.mu.Lock()
	fn := r.watchers[key]
	r.mu.Unlock()
	if fn != nil {
		fn(raw)
	}
}

func (r *fakeRemote) storeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores
}

// countChanges registers a listener and returns a thread-safe getter for
// how many EventDataChanged broadcasts have fired since.
func countChanges(t *testing.T) func() int {
	t.Helper()
	var mu sync.Mutex
	n := 0
	event.Listen(EventDataChanged, func(interface{}) {
		mu.Lock()
		n++
		mu.Unlock()
	})
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return n
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestInitLocalRepairsMalformedEntries(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	kv.m[KeyProducts] = []byte("{not json")
	kv.m[KeyCategories] = mustJSON(t, []models.Category{{ID: 1, Name: "Decor", Image: "decor.jpg"}})

	s := New(NewLocal(kv), nil)
	s.Init(context.Background())

	s.View(func(d *Data) {
		assert.Empty(t, d.Products)
		require.Len(t, d.Categories, 1)
		assert.Equal(t, "Decor", d.Categories[0].Name)
	})

	// The malformed entry was replaced with an empty collection on disk.
	raw, err := kv.Get(KeyProducts)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

func TestInitFiltersIncompleteUsers(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	kv.m[KeyUsers] = mustJSON(t, []models.User{
		{ID: 1, Name: "Asha", Email: "asha@example.com", Password: "pw"},
		{ID: 2, Name: "", Email: "ghost@example.com", Password: "pw"},
	})

	s := New(NewLocal(kv), nil)
	s.Init(context.Background())

	s.View(func(d *Data) {
		require.Len(t, d.Users, 1)
		assert.Equal(t, "Asha", d.Users[0].Name)
	})

	raw, err := kv.Get(KeyUsers)
	require.NoError(t, err)
	var persisted []models.User
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Len(t, persisted, 1)
}

func TestSaveLocalOnlyPersistsAndBroadcasts(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	s := New(NewLocal(kv), nil)
	s.Init(context.Background())
	changes := countChanges(t)

	err := s.Mutate(context.Background(), func(d *Data) error {
		d.Categories = append(d.Categories, models.Category{ID: 1, Name: "Lighting", Image: "l.jpg"})
		d.Cart = append(d.Cart, models.CartItem{ID: 7, Name: "Lamp", Price: 499, Quantity: 2})
		return nil
	})
	require.NoError(t, err)

	raw, err := kv.Get(KeyCategories)
	require.NoError(t, err)
	var cats []models.Category
	require.NoError(t, json.Unmarshal(raw, &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "Lighting", cats[0].Name)

	rawCart, err := kv.Get(KeyCart)
	require.NoError(t, err)
	var cart []models.CartItem
	require.NoError(t, json.Unmarshal(rawCart, &cart))
	assert.Len(t, cart, 1)

	_, err = kv.Get(KeyLastUpdate)
	assert.NoError(t, err, "save must stamp lastUpdate")
	assert.Equal(t, 1, changes())
}

func TestSaveDropsInvalidEntriesSilently(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	s := New(NewLocal(kv), nil)
	s.Init(context.Background())

	err := s.Mutate(context.Background(), func(d *Data) error {
		d.Products = append(d.Products,
			models.Product{ID: 1, Name: "Vase", Price: 0, Category: "Decor", Image: "v.jpg"},
			models.Product{ID: 2, Name: "", Price: 100, Category: "Decor", Image: "x.jpg"},
			models.Product{ID: 3, Name: "Mirror", Price: -5, Category: "Decor", Image: "m.jpg"},
		)
		return nil
	})
	require.NoError(t, err, "validation failures never fail the save")

	s.View(func(d *Data) {
		require.Len(t, d.Products, 1, "zero price is valid, missing name and negative price are not")
		assert.Equal(t, "Vase", d.Products[0].Name)
	})

	raw, err := kv.Get(KeyProducts)
	require.NoError(t, err)
	var persisted []models.Product
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Len(t, persisted, 1)
}

func TestRemoteHydrateAndSaveMirrorsLocally(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	remote := newFakeRemote()
	remote.values[KeyProducts] = mustJSON(t, []models.Product{
		{ID: 4, Name: "Clock", Price: 899, Category: "Decor", Image: "c.jpg"},
	})

	s := New(NewLocal(kv), remote)
	s.Init(context.Background())
	require.True(t, s.Remote())

	s.View(func(d *Data) {
		require.Len(t, d.Products, 1)
		assert.Equal(t, "Clock", d.Products[0].Name)
	})

	// Hydrate mirrored the remote value into the local store.
	raw, err := kv.Get(KeyProducts)
	require.NoError(t, err)
	var mirrored []models.Product
	require.NoError(t, json.Unmarshal(raw, &mirrored))
	assert.Len(t, mirrored, 1)

	before := remote.storeCount()
	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, before+len(SharedKeys), remote.storeCount(), "save writes every shared collection remotely")
}

func TestPermissionDeniedDisablesRemoteForSession(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	remote := newFakeRemote()
	s := New(NewLocal(kv), remote)
	s.Init(context.Background())
	require.True(t, s.Remote())

	remote.mu.Lock()
	remote.storeErr = fmt.Errorf("replace: %w", ErrPermissionDenied)
	remote.mu.Unlock()

	require.NoError(t, s.Save(context.Background()), "remote failure degrades, never errors")
	assert.False(t, s.Remote())

	// Clearing the fault must not bring the remote back.
	remote.mu.Lock()
	remote.storeErr = nil
	before := remote.stores
	remote.mu.Unlock()

	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, before, remote.storeCount(), "all writes stay local after the flip")
	assert.False(t, s.Remote())
}

func TestReloadIsIdempotent(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	remote := newFakeRemote()
	remote.values[KeyCategories] = mustJSON(t, []models.Category{{ID: 1, Name: "Decor", Image: "d.jpg"}})

	s := New(NewLocal(kv), remote)
	s.Init(context.Background())
	changes := countChanges(t)

	s.Reload(context.Background())
	s.Reload(context.Background())
	assert.Equal(t, 0, changes(), "reload without an intervening write changes nothing")

	first := s.Snapshot()
	s.Reload(context.Background())
	assert.Equal(t, first, s.Snapshot())
}

func TestReloadPicksUpRemoteWrite(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	remote := newFakeRemote()
	s := New(NewLocal(kv), remote)
	s.Init(context.Background())
	changes := countChanges(t)

	remote.mu.Lock()
	remote.values[KeyOfferBanner] = mustJSON(t, models.OfferBanner{Text: "Monsoon sale"})
	remote.mu.Unlock()

	s.Reload(context.Background())
	assert.Equal(t, 1, changes())
	s.View(func(d *Data) {
		require.NotNil(t, d.OfferBanner)
		assert.Equal(t, "Monsoon sale", d.OfferBanner.Text)
	})

	s.Reload(context.Background())
	assert.Equal(t, 1, changes(), "no further broadcast without a further change")
}

func TestReloadRepairsMalformedLocalEntry(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	kv.m[KeyProducts] = mustJSON(t, []models.Product{
		{ID: 1, Name: "Poster", Price: 100, Category: "Decor", Image: "p.jpg"},
	})

	s := New(NewLocal(kv), nil)
	s.Init(context.Background())
	changes := countChanges(t)

	// Another process scribbled over the key.
	kv.mu.Lock()
	kv.m[KeyProducts] = []byte("{not json")
	kv.mu.Unlock()

	s.Reload(context.Background())

	s.View(func(d *Data) {
		assert.Empty(t, d.Products)
	})
	assert.Equal(t, 1, changes())

	// The repair is persisted back, same as the load path.
	raw, err := kv.Get(KeyProducts)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

func TestWatcherAbsorbsRemoteChange(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	remote := newFakeRemote()
	s := New(NewLocal(kv), remote)
	s.Init(context.Background())
	changes := countChanges(t)

	remote.push(KeyProducts, mustJSON(t, []models.Product{
		{ID: 9, Name: "Rug", Price: 1999, Category: "Textiles", Image: "r.jpg"},
	}))

	assert.Equal(t, 1, changes())
	s.View(func(d *Data) {
		require.Len(t, d.Products, 1)
		assert.Equal(t, "Rug", d.Products[0].Name)
	})

	// Same payload again is a no-op.
	remote.push(KeyProducts, mustJSON(t, []models.Product{
		{ID: 9, Name: "Rug", Price: 1999, Category: "Textiles", Image: "r.jpg"},
	}))
	assert.Equal(t, 1, changes())
}

func TestRepeatedInitReplacesWatchers(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	remote := newFakeRemote()
	s := New(NewLocal(kv), remote)
	s.Init(context.Background())
	s.Init(context.Background())
	changes := countChanges(t)

	remote.push(KeyCategories, mustJSON(t, []models.Category{{ID: 2, Name: "Wall Art", Image: "w.jpg"}}))
	assert.Equal(t, 1, changes(), "a change must be handled exactly once")
}

func TestQuotaExceededWarnsAndAborts(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	s := New(NewLocal(kv), nil)
	s.Init(context.Background())

	var mu sync.Mutex
	warned := 0
	event.Listen(EventQuotaExceeded, func(payload interface{}) {
		mu.Lock()
		warned++
		mu.Unlock()
		msg, ok := payload.(string)
		assert.True(t, ok)
		assert.NotEmpty(t, msg)
	})

	kv.mu.Lock()
	kv.setErr = localstore.ErrQuotaExceeded
	kv.mu.Unlock()

	err := s.Mutate(context.Background(), func(d *Data) error {
		d.Categories = append(d.Categories, models.Category{ID: 1, Name: "Decor", Image: "d.jpg"})
		return nil
	})
	require.NoError(t, err, "quota failure is a warning, not an error")

	mu.Lock()
	assert.GreaterOrEqual(t, warned, 1)
	mu.Unlock()

	// Memory keeps the mutation even though storage rejected it.
	s.View(func(d *Data) { assert.Len(t, d.Categories, 1) })
}

func TestMutateErrorSkipsSave(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	s := New(NewLocal(kv), nil)
	s.Init(context.Background())
	changes := countChanges(t)

	err := s.Mutate(context.Background(), func(d *Data) error {
		return fmt.Errorf("nothing to do")
	})
	require.Error(t, err)
	assert.Equal(t, 0, changes())
	_, gerr := kv.Get(KeyLastUpdate)
	assert.ErrorIs(t, gerr, localstore.ErrNotFound)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	t.Cleanup(event.Flush)
	kv := newMemKV()
	s := New(NewLocal(kv), nil)
	s.Init(context.Background())

	var mu sync.Mutex
	var got []Snapshot
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})

	require.NoError(t, s.Mutate(context.Background(), func(d *Data) error {
		d.Orders = append(d.Orders, models.Order{
			ID:            "ORD1700000000000",
			UserID:        "guest",
			Items:         []models.CartItem{{ID: 1, Name: "Lamp", Price: 499, Quantity: 1}},
			PaymentMethod: models.PaymentCOD,
			Amount:        499,
			Status:        models.StatusOrdered,
			Date:          time.Now(),
		})
		return nil
	}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Len(t, got[0].Orders, 1)
	assert.Equal(t, "guest", got[0].Orders[0].UserID)
}
