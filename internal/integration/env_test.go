// Package integration runs the cart and order flows against a real
// Postgres. Tests skip unless SHOP_TEST_DATABASE_URL is set.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/pcshop/internal/hash"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/pkg/db"
)

type testEnv struct {
	repo    *repo.GormRepo
	users   *service.UserService
	catalog *service.CatalogService
	cart    *service.CartService
	run     string
}

// newTestEnv connects to the shared database. Every name the env creates
// carries a per-run suffix so reruns never collide.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("SHOP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHOP_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(ctx))

	return &testEnv{
		repo:    r,
		users:   &service.UserService{Repo: r, Hasher: hash.Bcrypt{Cost: bcrypt.MinCost}},
		catalog: &service.CatalogService{Repo: r},
		cart:    &service.CartService{Repo: r},
		run:     uuid.NewString()[:8],
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	username := name + "-" + e.run
	u, err := e.users.Create(context.Background(), service.Profile{
		Firstname: "First",
		Lastname:  "Last",
		Username:  username,
		Email:     username + "@x.com",
		Password:  "secret123",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) product(t *testing.T, title, price string) *models.Product {
	t.Helper()
	ctx := context.Background()
	category := "integration-" + e.run
	if _, err := e.repo.FindCategoryByName(ctx, category); err != nil {
		_, err = e.catalog.CreateCategory(ctx, category)
		require.NoError(t, err)
	}
	p := decimal.RequireFromString(price)
	prod, err := e.catalog.CreateProduct(ctx, service.ProductInput{Title: title + "-" + e.run, Category: category, Price: &p})
	require.NoError(t, err)
	return prod
}

func (e *testEnv) countOrders(t *testing.T, userID uint, status models.OrderStatus) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.repo.DB.Model(&models.Order{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&n).Error)
	return n
}
