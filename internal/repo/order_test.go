package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

func seedProduct(t *testing.T, r *GormRepo, title, price string) *models.Product {
	t.Helper()
	ctx := context.Background()

	cat, err := r.FindCategoryByName(ctx, "storage")
	if err != nil {
		cat = &models.Category{Name: "storage"}
		require.NoError(t, r.CreateCategory(ctx, cat))
	}
	p := &models.Product{Title: title, Price: decimal.RequireFromString(price), CategoryID: cat.ID}
	require.NoError(t, r.CreateProduct(ctx, p))
	return p
}

func seedCart(t *testing.T, r *GormRepo, user *models.User) *models.Order {
	t.Helper()
	o := &models.Order{Status: models.OrderStatusCart, Total: decimal.Zero, UserID: user.ID, CreatedAt: time.Now()}
	require.NoError(t, r.CreateOrder(context.Background(), o))
	return o
}

func TestIncrementItem_CreatesThenIncrements(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice")
	cart := seedCart(t, r, alice)
	ssd := seedProduct(t, r, "SSD", "10.00")

	require.NoError(t, r.IncrementItem(ctx, cart.ID, ssd.ID))
	require.NoError(t, r.IncrementItem(ctx, cart.ID, ssd.ID))

	got, err := r.FindCart(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "SSD", got.Items[0].Product.Title)
	require.NotNil(t, got.Items[0].Product.Category)
}

func TestIncrementItem_ConcurrentAddsAreNotLost(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice")
	seedCart(t, r, alice)
	ssd := seedProduct(t, r, "SSD", "10.00")

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.WithTx(ctx, func(tx *GormRepo) error {
				cart, err := tx.FindCart(ctx, alice.ID)
				if err != nil {
					return err
				}
				return tx.IncrementItem(ctx, cart.ID, ssd.ID)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := r.FindCart(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, n, got.Items[0].Quantity)
}

func TestOrderItems_FindSetDelete(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice")
	bob := seedUser(t, r, "bob")
	aliceCart := seedCart(t, r, alice)
	bobCart := seedCart(t, r, bob)
	ssd := seedProduct(t, r, "SSD", "10.00")
	hdd := seedProduct(t, r, "HDD", "5.00")

	require.NoError(t, r.IncrementItem(ctx, aliceCart.ID, ssd.ID))
	require.NoError(t, r.IncrementItem(ctx, aliceCart.ID, hdd.ID))

	cart, err := r.FindCart(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	first := cart.Items[0]

	_, err = r.FindItem(ctx, bobCart.ID, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "items of another order must not resolve")

	it, err := r.FindItem(ctx, aliceCart.ID, first.ID)
	require.NoError(t, err)
	require.NoError(t, r.SetItemQuantity(ctx, it.ID, 7))

	cart, err = r.FindCart(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)

	require.NoError(t, r.DeleteItem(ctx, first.ID))
	cart, err = r.FindCart(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	require.NoError(t, r.DeleteItems(ctx, aliceCart.ID))
	cart, err = r.FindCart(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestOrders_StatusTotalAndLookup(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice")
	cart := seedCart(t, r, alice)

	n, err := r.CountCarts(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	cart.Total = decimal.RequireFromString("12.34")
	require.NoError(t, r.UpdateOrderTotal(ctx, cart))
	require.NoError(t, r.UpdateOrderStatus(ctx, cart.ID, models.OrderStatusCompleted))

	n, err = r.CountCarts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = r.FindCart(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := r.FindOrder(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("12.34")), got.Total.String())

	seedCart(t, r, alice)
	mine, err := r.ListOrdersByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := r.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, r.DeleteOrder(ctx, cart.ID))
	assert.ErrorIs(t, r.DeleteOrder(ctx, cart.ID), domain.ErrNotFound)
	_, err = r.FindOrder(ctx, cart.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
