package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sridharani/designhaven/app/models"
	"github.com/sridharani/designhaven/config"
	"github.com/sridharani/designhaven/internal/localstore"
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/auth"
	"github.com/sridharani/designhaven/pkg/event"
)

// memKV is the in-memory localstore used across the service tests.
type memKV struct {
	mu sync.Mutex
	m  map[string][]byte
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

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	t.Cleanup(event.Flush)
	s := store.New(store.NewLocal(newMemKV()), nil)
	s.Init(context.Background())
	return s
}

func seedCatalog(t *testing.T, catalog *CatalogService) models.Product {
	t.Helper()
	_, err := catalog.AddCategory(context.Background(), "Decor", "decor.jpg")
	require.NoError(t, err)
	p, err := catalog.AddProduct(context.Background(), models.Product{
		Name: "Brass Lamp", Price: 1299, Category: "Decor", Image: "lamp.jpg",
	})
	require.NoError(t, err)
	return p
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func TestAddCategoryAssignsNextID(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(newTestStore(t))

	a, err := catalog.AddCategory(ctx, "Decor", "d.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID, "first id in an empty catalogue is 1")

	b, err := catalog.AddCategory(ctx, "Lighting", "l.jpg")
	require.NoError(t, err)
	c, err := catalog.AddCategory(ctx, "Textiles", "t.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, 3, c.ID)

	// Deleting from the middle leaves the gap; the next id still follows
	// the maximum.
	require.NoError(t, catalog.DeleteCategory(ctx, b.ID))
	d, err := catalog.AddCategory(ctx, "Furniture", "f.jpg")
	require.NoError(t, err)
	assert.Equal(t, 4, d.ID, "ids come from max+1, not from gap refill")
}

func TestDeleteCategoryCascadesToProducts(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(newTestStore(t))

	cat, err := catalog.AddCategory(ctx, "Decor", "d.jpg")
	require.NoError(t, err)
	_, err = catalog.AddCategory(ctx, "Lighting", "l.jpg")
	require.NoError(t, err)

	_, err = catalog.AddProduct(ctx, models.Product{Name: "Vase", Price: 499, Category: "Decor", Image: "v.jpg"})
	require.NoError(t, err)
	lamp, err := catalog.AddProduct(ctx, models.Product{Name: "Lamp", Price: 999, Category: "Lighting", Image: "l.jpg"})
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteCategory(ctx, cat.ID))

	remaining := catalog.Products("")
	require.Len(t, remaining, 1)
	assert.Equal(t, lamp.ID, remaining[0].ID)
}

func TestProductsFilterByCategoryIsCaseInsensitive(t *testing.T) {
	catalog := NewCatalog(newTestStore(t))
	seedCatalog(t, catalog)

	assert.Len(t, catalog.Products("decor"), 1)
	assert.Len(t, catalog.Products("DECOR"), 1)
	assert.Empty(t, catalog.Products("lighting"))
}

// ── Cart ─────────────────────────────────────────────────────────────────────

func TestCartAddIncrementsExistingLine(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catalog := NewCatalog(st)
	cart := NewCart(st, catalog)
	p := seedCatalog(t, catalog)

	require.NoError(t, cart.Add(ctx, p.ID))
	require.NoError(t, cart.Add(ctx, p.ID))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, p.Price*2, cart.Total())
}

func TestCartDecrementToZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catalog := NewCatalog(st)
	cart := NewCart(st, catalog)
	p := seedCatalog(t, catalog)

	require.NoError(t, cart.Add(ctx, p.ID))
	require.NoError(t, cart.ChangeQuantity(ctx, p.ID, -1))
	assert.Empty(t, cart.Items(), "quantity zero removes the line, never keeps it")

	// The removed line is gone, so another decrement is a not-found.
	assert.ErrorIs(t, cart.ChangeQuantity(ctx, p.ID, -1), ErrCartItemNotFound)
}

func TestCartLineKeepsPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catalog := NewCatalog(st)
	cart := NewCart(st, catalog)
	p := seedCatalog(t, catalog)

	require.NoError(t, cart.Add(ctx, p.ID))
	p.Price = 99
	require.NoError(t, catalog.UpdateProduct(ctx, p))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1299.0, items[0].Price, "cart lines are snapshots, not references")
}

// ── Orders ───────────────────────────────────────────────────────────────────

func TestPlaceOrderFromCart(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catalog := NewCatalog(st)
	cart := NewCart(st, catalog)
	orders := NewOrders(st)
	p := seedCatalog(t, catalog)

	require.NoError(t, cart.Add(ctx, p.ID))
	require.NoError(t, cart.Add(ctx, p.ID))

	order, intent, err := orders.Place(ctx, models.Address{
		FullName: "Asha Rao", Phone: "9000000000",
		AddressLine1: "12 MG Road", City: "Bengaluru", State: "KA", Pincode: "560001",
	}, models.PaymentCOD)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.ID, "ORD"))
	assert.Equal(t, GuestUserID, order.UserID, "no signed-in user tags the order as guest")
	assert.Equal(t, models.StatusOrdered, order.Status)
	assert.Equal(t, p.Price*2, order.Amount)
	assert.Nil(t, intent, "cash on delivery carries no payment intent")
	assert.Empty(t, cart.Items(), "placing the order empties the cart")
}

func TestPlaceOnlineOrderAttachesPaymentIntent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catalog := NewCatalog(st)
	cart := NewCart(st, catalog)
	orders := NewOrders(st)
	p := seedCatalog(t, catalog)

	require.NoError(t, cart.Add(ctx, p.ID))
	order, intent, err := orders.Place(ctx, models.Address{FullName: "Asha"}, models.PaymentOnline)
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, order.ID, intent.OrderID)
	assert.Equal(t, order.Amount, intent.Amount)
	assert.Contains(t, intent.Link, "upi://pay?")
}

func TestPlaceWithEmptyCartFails(t *testing.T) {
	st := newTestStore(t)
	orders := NewOrders(st)
	_, _, err := orders.Place(context.Background(), models.Address{}, models.PaymentCOD)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestUpdateStatusInPlace(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catalog := NewCatalog(st)
	cart := NewCart(st, catalog)
	orders := NewOrders(st)
	p := seedCatalog(t, catalog)

	require.NoError(t, cart.Add(ctx, p.ID))
	first, _, err := orders.Place(ctx, models.Address{FullName: "A"}, models.PaymentCOD)
	require.NoError(t, err)
	require.NoError(t, cart.Add(ctx, p.ID))
	second, _, err := orders.Place(ctx, models.Address{FullName: "B"}, models.PaymentCOD)
	require.NoError(t, err)

	require.NoError(t, orders.UpdateStatus(ctx, first.ID, models.StatusPacking))

	all := orders.All()
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "status update keeps list position")
	assert.Equal(t, models.StatusPacking, all[0].Status)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, models.StatusOrdered, all[1].Status)

	assert.ErrorIs(t, orders.UpdateStatus(ctx, first.ID, "shipped"), ErrBadStatus)
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	authSvc := NewAuth(newTestStore(t))

	a, err := authSvc.Register(ctx, "Asha", "asha@example.com", "pw1")
	require.NoError(t, err)
	b, err := authSvc.Register(ctx, "Ravi", "ravi@example.com", "pw2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	_, err = authSvc.Register(ctx, "Asha Again", "ASHA@example.com", "pw3")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	authSvc := NewAuth(newTestStore(t))

	_, err := authSvc.Register(ctx, "Asha", "asha@example.com", "pw1")
	require.NoError(t, err)

	_, err = authSvc.Register(ctx, "asha", "other@example.com", "pw2")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestRegisterRejectsReservedName(t *testing.T) {
	authSvc := NewAuth(newTestStore(t))
	_, err := authSvc.Register(context.Background(), "Sridharani", "new@example.com", "pw")
	assert.ErrorIs(t, err, ErrNameReserved)
}

func TestLoginComparesPlaintextAndSetsSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	authSvc := NewAuth(st)

	_, err := authSvc.Register(ctx, "Asha", "asha@example.com", "secret")
	require.NoError(t, err)

	_, _, err = authSvc.Login(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, tokens, err := authSvc.Login(ctx, "asha@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Access)
	assert.NotEmpty(t, tokens.Refresh)
	assert.Equal(t, "Asha", user.Name)

	current, err := authSvc.Current()
	require.NoError(t, err)
	assert.Equal(t, user.Email, current.Email)

	require.NoError(t, authSvc.Logout(ctx))
	_, err = authSvc.Current()
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestLoginAcceptsNameAsIdentifier(t *testing.T) {
	ctx := context.Background()
	authSvc := NewAuth(newTestStore(t))

	_, err := authSvc.Register(ctx, "Asha", "asha@example.com", "secret")
	require.NoError(t, err)

	user, _, err := authSvc.Login(ctx, "ASHA", "secret")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)

	_, _, err = authSvc.Login(ctx, "Asha", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLoginGrantsAdminRole(t *testing.T) {
	ctx := context.Background()
	authSvc := NewAuth(newTestStore(t))

	_, _, err := authSvc.Login(ctx, config.AdminName(), "not-the-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, tokens, err := authSvc.Login(ctx, "SRIDHARANI", config.AdminPassword())
	require.NoError(t, err)
	assert.Equal(t, config.AdminName(), user.Name)

	claims, err := auth.ValidateToken(tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)

	current, err := authSvc.Current()
	require.NoError(t, err)
	assert.Equal(t, config.AdminEmail(), current.Email)
}

func TestRefreshIssuesNewPairWithSameClaims(t *testing.T) {
	ctx := context.Background()
	authSvc := NewAuth(newTestStore(t))

	_, err := authSvc.Register(ctx, "Asha", "asha@example.com", "secret")
	require.NoError(t, err)
	_, tokens, err := authSvc.Login(ctx, "Asha", "secret")
	require.NoError(t, err)

	next, err := authSvc.Refresh(tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, next.Access)
	assert.NotEmpty(t, next.Refresh)

	claims, err := auth.ValidateToken(next.Access)
	require.NoError(t, err)
	assert.Equal(t, "Asha", claims.Name)
	assert.Equal(t, RoleUser, claims.Role)

	_, err = authSvc.Refresh("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignedInUserTagsOrders(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catalog := NewCatalog(st)
	cart := NewCart(st, catalog)
	orders := NewOrders(st)
	authSvc := NewAuth(st)
	p := seedCatalog(t, catalog)

	_, err := authSvc.Register(ctx, "Asha", "asha@example.com", "pw")
	require.NoError(t, err)
	_, _, err = authSvc.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, cart.Add(ctx, p.ID))
	order, _, err := orders.Place(ctx, models.Address{FullName: "Asha"}, models.PaymentCOD)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", order.UserID)

	assert.Len(t, orders.ByUser("asha@example.com"), 1)
	assert.Empty(t, orders.ByUser(GuestUserID))
}

// ── Reviews / banner ─────────────────────────────────────────────────────────

func TestReviewsKeyedByProduct(t *testing.T) {
	ctx := context.Background()
	reviews := NewReviews(newTestStore(t))

	require.NoError(t, reviews.Add(ctx, 7, "Asha", 5, "Lovely finish"))
	require.NoError(t, reviews.Add(ctx, 7, "Ravi", 4, ""))
	require.NoError(t, reviews.Add(ctx, 9, "Meena", 3, "Okay"))

	assert.Len(t, reviews.For(7), 2)
	assert.Len(t, reviews.For(9), 1)
	assert.Empty(t, reviews.For(11))
	assert.InDelta(t, 4.5, reviews.Average(7), 0.001)
	assert.Zero(t, reviews.Average(11))
}

func TestBannerSetAndClear(t *testing.T) {
	ctx := context.Background()
	banner := NewBanner(newTestStore(t))

	assert.Nil(t, banner.Get())
	require.NoError(t, banner.Set(ctx, "Festive sale: flat 20% off"))
	require.NotNil(t, banner.Get())
	assert.Equal(t, "Festive sale: flat 20% off", banner.Get().Text)

	require.NoError(t, banner.Clear(ctx))
	assert.Nil(t, banner.Get())
}
