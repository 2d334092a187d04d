package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restobar-be/internal/access"
	"restobar-be/internal/auth"
	"restobar-be/internal/cart"
	"restobar-be/internal/dashboard"
	"restobar-be/internal/metrics"
	"restobar-be/internal/middleware"
	"restobar-be/internal/order"
	"restobar-be/internal/product"
	"restobar-be/internal/realtime"
	"restobar-be/internal/user"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type roleProfiles map[uuid.UUID]access.Role

// stalledRole makes the profile lookup behave as if it ran out of time.
const stalledRole access.Role = "stalled"

func (p roleProfiles) GetProfile(_ context.Context, id uuid.UUID) (*user.Profile, error) {
	role, ok := p[id]
	if !ok {
		return nil, user.ErrProfileNotFound
	}
	if role == stalledRole {
		return nil, context.DeadlineExceeded
	}
	return &user.Profile{UserID: id, Role: role}, nil
}

type noRevoke struct{}

func (noRevoke) Revoke(context.Context, string, time.Time) error  { return nil }
func (noRevoke) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type testEnv struct {
	router   http.Handler
	users    *MockUserService
	products *MockProductService
	orders   *MockOrderService
	storage  *cart.RedisStorage
	issuer   *auth.Issuer
	profiles roleProfiles
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	issuer, err := auth.NewIssuer("testsecret", time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		users:    new(MockUserService),
		products: new(MockProductService),
		orders:   new(MockOrderService),
		storage:  cart.NewRedisStorage(rdb, time.Hour),
		issuer:   issuer,
		profiles: roleProfiles{},
	}

	counters := metrics.NewSet()
	counters.Counter("realtime_published").Inc()

	h := New(Deps{
		Users:    env.users,
		Products: env.products,
		Orders:   env.orders,
		Carts:    cart.NewManager(env.storage, env.orders),
		Feed:     dashboard.NewFeed(env.orders, realtime.NewBroker(8, metrics.NewSet())),
		Upgrader: dashboard.NewUpgrader("http://localhost:3000"),
		Counters: counters,
	})
	env.router = NewRouter(h, RouterConfig{
		Authenticator: middleware.NewAuthenticator(issuer, noRevoke{}, env.profiles),
		Limiter:       middleware.NewRateLimiter("internal-secret"),
		CORSOrigin:    "http://localhost:3000",
	})
	return env
}

// signIn registers a principal with the given role and returns its token.
func (e *testEnv) signIn(t *testing.T, role access.Role) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	e.profiles[id] = role
	token, _, err := e.issuer.Issue(id, role.String()+"@example.com", role.String())
	require.NoError(t, err)
	return id, token
}

func (e *testEnv) do(method, path, body, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func isActor(role access.Role) any {
	return mock.MatchedBy(func(p access.Principal) bool { return p.Role == role })
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCounters(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/internal/counters", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/internal/counters", nil)
	req.Header.Set("X-Service-Auth", "internal-secret")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"realtime_published":1`)
}

func TestRoleGate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Customer On Admin Surface", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleUsuario)

		rec := env.do(http.MethodGet, "/admin", "", token)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/usuario", rec.Header().Get("Location"))
		assert.NotContains(t, rec.Body.String(), "Administración")
	})

	t.Run("Anonymous Goes To Login", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/admin/users", "", "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("Kitchen Board", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleCocinero)
		env.orders.On("List", mock.Anything, isActor(access.RoleCocinero), mock.MatchedBy(func(f order.ListFilter) bool {
			return assert.ObjectsAreEqual(order.KitchenStatuses(), f.Statuses)
		})).Return([]order.Order{{ID: uuid.New(), Status: order.StatusCocinando}}, nil).Once()

		rec := env.do(http.MethodGet, "/cocinero", "", token)
		require.Equal(t, http.StatusOK, rec.Code)

		var d dashboard.Dashboard
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
		assert.Equal(t, "Cocina", d.Title)
		assert.Len(t, d.Orders, 1)
	})

	t.Run("Unknown Role Denied But May Log Out", func(t *testing.T) {
		token, _, err := env.issuer.Issue(uuid.New(), "ghost@example.com", "")
		require.NoError(t, err)

		rec := env.do(http.MethodGet, "/cocinero", "", token)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		env.users.On("SignOut", mock.Anything, mock.AnythingOfType("*auth.Claims")).Return(nil).Once()
		rec = env.do(http.MethodPost, "/auth/logout", "", token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAuthHandlers(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Register Invalid Email", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/auth/register", `{"email":"nope","password":"longenough","full_name":"Ana"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env.users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("Register Email Taken", func(t *testing.T) {
		env.users.On("Register", mock.Anything, user.RegisterInput{Email: "ana@example.com", Password: "longenough", FullName: "Ana"}).
			Return(nil, user.ErrEmailExists).Once()

		rec := env.do(http.MethodPost, "/auth/register", `{"email":"ana@example.com","password":"longenough","full_name":"Ana"}`, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Login Merges Anonymous Cart", func(t *testing.T) {
		ctx := context.Background()
		cartID := uuid.New()
		userID := uuid.New()
		productID := uuid.New()

		require.NoError(t, env.storage.Save(ctx, cart.AnonOwner(cartID), []cart.Item{
			{ProductID: productID, Name: "Taco", Price: decimal.NewFromInt(3), Quantity: 2},
		}))

		env.users.On("Authenticate", mock.Anything, "ana@example.com", "secret123").Return(&user.AuthResult{
			Token:     "signed-token",
			ExpiresAt: time.Now().Add(time.Hour),
			Profile:   user.Profile{UserID: userID, Email: "ana@example.com", Role: access.RoleUsuario},
		}, nil).Once()

		rec := env.do(http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"secret123"}`, "",
			&http.Cookie{Name: middleware.CartCookieName, Value: cartID.String()})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"landing":"/usuario"`)

		var tokenCookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.CookieName {
				tokenCookie = c
			}
		}
		require.NotNil(t, tokenCookie)
		assert.Equal(t, "signed-token", tokenCookie.Value)

		merged, err := env.storage.Load(ctx, cart.UserOwner(userID))
		require.NoError(t, err)
		require.Len(t, merged, 1)
		assert.Equal(t, 2, merged[0].Quantity)

		left, err := env.storage.Load(ctx, cart.AnonOwner(cartID))
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("Login Bad Password", func(t *testing.T) {
		env.users.On("Authenticate", mock.Anything, "ana@example.com", "wrong-pass").Return(nil, user.ErrInvalidCredentials).Once()

		rec := env.do(http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"wrong-pass"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Me", func(t *testing.T) {
		id, token := env.signIn(t, access.RoleMesero)
		env.users.On("GetProfile", mock.Anything, id).Return(&user.Profile{UserID: id, FullName: "Luis", Role: access.RoleMesero}, nil).Once()

		rec := env.do(http.MethodGet, "/me", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"landing":"/mesero"`)
		assert.Contains(t, rec.Body.String(), "Luis")
	})
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) cart.Summary {
	t.Helper()
	var s cart.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	return s
}

func TestCartCheckout(t *testing.T) {
	env := newTestEnv(t)
	cookie := &http.Cookie{Name: middleware.CartCookieName, Value: uuid.NewString()}
	productID := uuid.New()

	env.products.On("GetAvailable", mock.Anything, productID).Return(&product.Product{
		ID: productID, Name: "Hamburguesa", Price: decimal.RequireFromString("5.50"), IsActive: true,
	}, nil)

	body := `{"product_id":"` + productID.String() + `"}`
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart", body, "", cookie).Code)
	rec := env.do(http.MethodPost, "/cart", body, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	s := decodeSummary(t, rec)
	assert.Equal(t, 2, s.ItemCount)
	assert.True(t, decimal.RequireFromString("11").Equal(s.Total))

	rec = env.do(http.MethodPatch, "/cart/items/"+productID.String(), `{"quantity":3}`, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeSummary(t, rec).ItemCount)

	t.Run("Blank Name Rejected Before Submit", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/cart/checkout", `{"customer_name":"   "}`, "", cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Inactive Product", func(t *testing.T) {
		other := uuid.New()
		env.products.On("GetAvailable", mock.Anything, other).Return(nil, product.ErrProductInactive).Once()

		rec := env.do(http.MethodPost, "/cart", `{"product_id":"`+other.String()+`"}`, "", cookie)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Submit Clears Cart", func(t *testing.T) {
		orderID := uuid.New()
		env.orders.On("Create", mock.Anything, mock.MatchedBy(func(in order.CreateOrderInput) bool {
			return in.CustomerName == "Ana" && in.UserID == nil && len(in.Items) == 1 && in.Items[0].Quantity == 3
		})).Return(&order.Order{ID: orderID, CustomerName: "Ana", Status: order.StatusPendiente}, nil).Once()

		rec := env.do(http.MethodPost, "/cart/checkout", `{"customer_name":"Ana"}`, "", cookie)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), orderID.String())

		rec = env.do(http.MethodGet, "/cart", "", "", cookie)
		assert.Equal(t, 0, decodeSummary(t, rec).ItemCount)
	})

	t.Run("Empty Cart", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/cart/checkout", `{"customer_name":"Ana"}`, "", cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandlers(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Advance Conflict", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleCocinero)
		id := uuid.New()
		env.orders.On("Advance", mock.Anything, isActor(access.RoleCocinero), id).Return(nil, order.ErrStatusConflict).Once()

		rec := env.do(http.MethodPost, "/orders/"+id.String()+"/advance", "", token)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "status_conflict")
	})

	t.Run("Advance Delivered", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleAdmin)
		id := uuid.New()
		env.orders.On("Advance", mock.Anything, isActor(access.RoleAdmin), id).Return(nil, order.ErrNoTransition).Once()

		rec := env.do(http.MethodPost, "/orders/"+id.String()+"/advance", "", token)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "no_transition")
	})

	t.Run("Waiter Cannot Advance Kitchen Order", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleMesero)
		id := uuid.New()
		env.orders.On("Advance", mock.Anything, isActor(access.RoleMesero), id).Return(nil, order.ErrForbidden).Once()

		rec := env.do(http.MethodPost, "/orders/"+id.String()+"/advance", "", token)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/mesero", rec.Header().Get("Location"))
	})

	t.Run("Customer Cannot Reach Advance", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleUsuario)

		rec := env.do(http.MethodPost, "/orders/"+uuid.NewString()+"/advance", "", token)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/usuario", rec.Header().Get("Location"))
		env.orders.AssertNotCalled(t, "Advance", mock.Anything, isActor(access.RoleUsuario), mock.Anything)
	})

	t.Run("Invalid Scope", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleCajero)

		rec := env.do(http.MethodGet, "/orders?scope=bogus", "", token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Delivery Scope", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleMesero)
		env.orders.On("List", mock.Anything, isActor(access.RoleMesero), order.ListFilter{
			Statuses:  order.DeliveryStatuses(),
			Ascending: true,
		}).Return([]order.Order{}, nil).Once()

		rec := env.do(http.MethodGet, "/orders?scope=delivery", "", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Own Orders", func(t *testing.T) {
		id, token := env.signIn(t, access.RoleUsuario)
		env.orders.On("List", mock.Anything, isActor(access.RoleUsuario), mock.MatchedBy(func(f order.ListFilter) bool {
			return f.UserID != nil && *f.UserID == id
		})).Return([]order.Order{}, nil).Once()

		rec := env.do(http.MethodGet, "/orders/mine", "", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Bad Order ID", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleUsuario)

		rec := env.do(http.MethodGet, "/orders/not-a-uuid", "", token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Invoice Not Found", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleCajero)
		id := uuid.New()
		env.orders.On("Invoice", mock.Anything, isActor(access.RoleCajero), id).Return(nil, order.ErrOrderNotFound).Once()

		rec := env.do(http.MethodGet, "/orders/"+id.String()+"/invoice", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Admin Deletes", func(t *testing.T) {
		_, token := env.signIn(t, access.RoleAdmin)
		id := uuid.New()
		env.orders.On("SafeDelete", mock.Anything, isActor(access.RoleAdmin), id).Return(nil).Once()

		rec := env.do(http.MethodDelete, "/orders/"+id.String(), "", token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAdminHandlers(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(t, access.RoleAdmin)

	t.Run("Role Outside Enum", func(t *testing.T) {
		rec := env.do(http.MethodPatch, "/admin/users/"+uuid.NewString()+"/role", `{"role":"chef"}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env.users.AssertNotCalled(t, "UpdateUserRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Role Change", func(t *testing.T) {
		target := uuid.New()
		env.users.On("UpdateUserRole", mock.Anything, isActor(access.RoleAdmin), target, access.RoleCocinero).
			Return(&user.Profile{UserID: target, Role: access.RoleCocinero}, nil).Once()

		rec := env.do(http.MethodPatch, "/admin/users/"+target.String()+"/role", `{"role":"cocinero"}`, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"cocinero"`)
	})

	t.Run("Rating Out Of Range", func(t *testing.T) {
		id := uuid.New()
		env.products.On("SetRating", mock.Anything, isActor(access.RoleAdmin), id, 7.5).Return(product.ErrInvalidRating).Once()

		rec := env.do(http.MethodPatch, "/admin/products/"+id.String()+"/rating", `{"rating":7.5}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Soft Delete", func(t *testing.T) {
		id := uuid.New()
		env.products.On("SetActive", mock.Anything, isActor(access.RoleAdmin), id, false).Return(nil).Once()

		rec := env.do(http.MethodPatch, "/admin/products/"+id.String()+"/active", `{"value":false}`, token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Create Product", func(t *testing.T) {
		env.products.On("Upsert", mock.Anything, isActor(access.RoleAdmin), mock.MatchedBy(func(p product.Product) bool {
			return p.Name == "Limonada" && p.Category == product.CategoryBebida && p.IsActive
		})).Return(&product.Product{ID: uuid.New(), Name: "Limonada"}, nil).Once()

		rec := env.do(http.MethodPost, "/admin/products", `{"name":"Limonada","category":"bebida","price":"2.50"}`, token)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Admin Board Includes Counts", func(t *testing.T) {
		env.orders.On("List", mock.Anything, isActor(access.RoleAdmin), mock.Anything).Return([]order.Order{}, nil).Once()
		env.orders.On("CountByStatus", mock.Anything, isActor(access.RoleAdmin)).
			Return(map[order.Status]int{order.StatusPendiente: 2}, nil).Once()

		rec := env.do(http.MethodGet, "/admin", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"pendiente":2`)
	})
}

func TestUpdateCartItemQuantity(t *testing.T) {
	env := newTestEnv(t)
	cookie := &http.Cookie{Name: middleware.CartCookieName, Value: uuid.NewString()}
	productID := uuid.New()

	env.products.On("GetAvailable", mock.Anything, productID).Return(&product.Product{
		ID: productID, Name: "Papas", Price: decimal.RequireFromString("3"), IsActive: true,
	}, nil)

	tests := []struct {
		name  string
		body  string
		count int
	}{
		{"Positive Integer", `{"quantity":4}`, 4},
		{"Integral Float", `{"quantity":2.0}`, 2},
		{"Fraction Removes", `{"quantity":1.5}`, 0},
		{"Text Removes", `{"quantity":"abc"}`, 0},
		{"Negative Removes", `{"quantity":-3}`, 0},
		{"Zero Removes", `{"quantity":0}`, 0},
		{"Null Removes", `{"quantity":null}`, 0},
		{"Missing Removes", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/cart", `{"product_id":"`+productID.String()+`"}`, "", cookie)
			require.Equal(t, http.StatusOK, rec.Code)

			rec = env.do(http.MethodPatch, "/cart/items/"+productID.String(), tt.body, "", cookie)
			require.Equal(t, http.StatusOK, rec.Code)
			s := decodeSummary(t, rec)
			assert.Equal(t, tt.count, s.ItemCount)
			if tt.count == 0 {
				assert.Empty(t, s.Items)
			}
		})
	}
}

func TestCartWaitsForIdentity(t *testing.T) {
	env := newTestEnv(t)
	cookie := &http.Cookie{Name: middleware.CartCookieName, Value: uuid.NewString()}
	anon, err := uuid.Parse(cookie.Value)
	require.NoError(t, err)

	productID := uuid.New()
	require.NoError(t, env.storage.Save(context.Background(), cart.AnonOwner(anon), []cart.Item{{
		ProductID: productID, Name: "anon-browser-cart", Price: decimal.NewFromInt(1), Quantity: 7,
	}}))

	_, token := env.signIn(t, stalledRole)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/cart", ""},
		{http.MethodPatch, "/cart/items/" + productID.String(), `{"quantity":2}`},
		{http.MethodPost, "/cart/checkout", `{"customer_name":"Ana"}`},
	} {
		rec := env.do(tc.method, tc.path, tc.body, token, cookie)
		assert.Equal(t, http.StatusAccepted, rec.Code, tc.path)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Empty(t, rec.Body.String())
	}
	env.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	items, err := env.storage.Load(context.Background(), cart.AnonOwner(anon))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}
