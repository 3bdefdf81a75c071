package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/pcshop/internal/hash"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/internal/storetest"
	"github.com/Skotchmaster/pcshop/internal/tokens"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	repo    *repo.GormRepo
	clock   *clock
	users   *UserService
	auth    *AuthService
	cart    *CartService
	orders  *OrderService
	catalog *CatalogService
	images  *ImageService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	r := &repo.GormRepo{DB: storetest.New(t)}
	clk := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	hasher := hash.Bcrypt{Cost: bcrypt.MinCost}
	issuer := tokens.NewIssuer([]byte("test-secret-test-secret-test-secret-test-secret!"), time.Hour, 24*time.Hour, tokens.WithClock(clk.Now))

	users := &UserService{Repo: r, Hasher: hasher}
	return &env{
		repo:    r,
		clock:   clk,
		users:   users,
		auth:    &AuthService{Repo: r, Tokens: issuer, Hasher: hasher, Users: users},
		cart:    &CartService{Repo: r},
		orders:  &OrderService{Repo: r},
		catalog: &CatalogService{Repo: r},
		images:  &ImageService{Repo: r},
	}
}

func (e *env) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), Profile{
		Firstname: "First",
		Lastname:  "Last",
		Username:  username,
		Email:     username + "@x.com",
		Password:  "secret123",
	})
	require.NoError(t, err)
	return u
}

func (e *env) login(t *testing.T, username string) *LoginResult {
	t.Helper()
	res, err := e.auth.Login(context.Background(), Credentials{Username: username, Password: "secret123"})
	require.NoError(t, err)
	return res
}

func (e *env) product(t *testing.T, title, price string) *models.Product {
	t.Helper()
	ctx := context.Background()
	if _, err := e.repo.FindCategoryByName(ctx, "storage"); err != nil {
		_, err = e.catalog.CreateCategory(ctx, "storage")
		require.NoError(t, err)
	}
	p := decimal.RequireFromString(price)
	prod, err := e.catalog.CreateProduct(ctx, ProductInput{Title: title, Category: "storage", Price: &p})
	require.NoError(t, err)
	return prod
}

func (e *env) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.repo.DB.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
