package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/pcshop/internal/hash"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/internal/service"
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

type testServer struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	clock   *clock
	users   *service.UserService
	cart    *service.CartService
	catalog *service.CatalogService
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	r := &repo.GormRepo{DB: storetest.New(t)}
	clk := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	hasher := hash.Bcrypt{Cost: bcrypt.MinCost}
	issuer := tokens.NewIssuer([]byte("http-secret-http-secret-http-secret-http-secret!"), time.Hour, 24*time.Hour, tokens.WithClock(clk.Now))

	users := &service.UserService{Repo: r, Hasher: hasher}
	authSvc := &service.AuthService{Repo: r, Tokens: issuer, Hasher: hasher, Users: users}
	cart := &service.CartService{Repo: r}
	catalog := &service.CatalogService{Repo: r}

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	Register(e, &Deps{
		AuthHandler:     &AuthHTTP{Svc: authSvc},
		CartHandler:     &CartHTTP{Svc: cart},
		OrderHandler:    &OrderHTTP{Svc: &service.OrderService{Repo: r}},
		ProductHandler:  &ProductHTTP{Svc: catalog},
		CategoryHandler: &CategoryHTTP{Svc: catalog},
		ImageHandler:    &ImageHTTP{Svc: &service.ImageService{Repo: r}},
		UserHandler:     &UserHTTP{Svc: users},
		Authenticator:   authSvc,
	})

	return &testServer{e: e, repo: r, clock: clk, users: users, cart: cart, catalog: catalog}
}

func (s *testServer) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func (s *testServer) upload(t *testing.T, method, target string, files []filePart, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// signIn creates the user and logs in through the API, returning the session cookies.
func (s *testServer) signIn(t *testing.T, username string, role models.Role) []*http.Cookie {
	t.Helper()

	_, err := s.users.Create(context.Background(), service.Profile{
		Firstname: "First",
		Lastname:  "Last",
		Username:  username,
		Email:     username + "@x.com",
		Password:  "secret123",
		Role:      role,
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/api/auth/login", echo.Map{"username": username, "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func (s *testServer) product(t *testing.T, title, price string) *models.Product {
	t.Helper()
	ctx := context.Background()
	if _, err := s.repo.FindCategoryByName(ctx, "storage"); err != nil {
		_, err = s.catalog.CreateCategory(ctx, "storage")
		require.NoError(t, err)
	}
	p := decimal.RequireFromString(price)
	prod, err := s.catalog.CreateProduct(ctx, service.ProductInput{Title: title, Category: "storage", Price: &p})
	require.NoError(t, err)
	return prod
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decode[map[string]any](t, rec)["message"].(string)
	return msg
}
