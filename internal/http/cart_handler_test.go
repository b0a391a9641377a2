package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
	"github.com/stevnathans/hustlecare-sub000/internal/catalog"
	"github.com/stevnathans/hustlecare-sub000/internal/snapshot"
)

type fakeRepo struct {
	saveFunc func(ctx context.Context, list *snapshot.SharedList) error
	getFunc  func(ctx context.Context, id string) (*snapshot.SharedList, error)

	saved []*snapshot.SharedList
}

func (f *fakeRepo) Save(ctx context.Context, list *snapshot.SharedList) error {
	if f.saveFunc != nil {
		if err := f.saveFunc(ctx, list); err != nil {
			return err
		}
	}
	if list.ID == "" {
		list.ID = "11111111-2222-3333-4444-555555555555"
	}
	f.saved = append(f.saved, list)
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*snapshot.SharedList, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, id)
	}
	return nil, snapshot.ErrNotFound
}

type fakePublisher struct {
	err       error
	published []*snapshot.SharedList
}

func (f *fakePublisher) PublishListShared(ctx context.Context, list *snapshot.SharedList) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, list)
	return nil
}

type fakeResolver struct {
	products map[int64]*catalog.Product
}

func (f *fakeResolver) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

type testEnv struct {
	store     *cart.MemoryStore
	repo      *fakeRepo
	publisher *fakePublisher
	router    http.Handler
}

func newTestEnv(resolver ProductResolver) *testEnv {
	store := cart.NewMemoryStore()
	repo := &fakeRepo{}
	publisher := &fakePublisher{}
	logger := log.New(io.Discard, "", 0)
	handler := NewListHandler(store, repo, publisher, resolver, "https://hustlecare.com", 3*time.Second, logger)
	return &testEnv{
		store:     store,
		repo:      repo,
		publisher: publisher,
		router:    NewRouter(handler, []string{"*"}),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func seedCart(t *testing.T, e *testEnv) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.SetBusiness(ctx, "s1", "biz-1", "Bakery"))
	require.NoError(t, e.store.AddItem(ctx, "s1", cart.LineItem{ProductID: 1, Name: "Register", Price: 100, Category: "Equipment", RequirementName: "Point of Sale System"}))
	require.NoError(t, e.store.AddItem(ctx, "s1", cart.LineItem{ProductID: 3, Name: "Misc", Price: 30}))
	require.NoError(t, e.store.SetQuantity(ctx, "s1", 1, 2))
}

func TestGetCartView(t *testing.T) {
	e := newTestEnv(nil)
	seedCart(t, e)

	w := e.do(t, http.MethodGet, "/api/cart/s1/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		BusinessName string  `json:"businessName"`
		TotalCost    float64 `json:"totalCost"`
		TotalItems   int     `json:"totalItems"`
		Groups       []struct {
			Name     string  `json:"name"`
			Subtotal float64 `json:"subtotal"`
		} `json:"groups"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	assert.Equal(t, "Bakery", view.BusinessName)
	assert.Equal(t, 230.0, view.TotalCost)
	assert.Equal(t, 3, view.TotalItems)
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "Equipment", view.Groups[0].Name)
	assert.Equal(t, 200.0, view.Groups[0].Subtotal)
	assert.Equal(t, "Uncategorized", view.Groups[1].Name)
}

func TestAddItemEndpoint(t *testing.T) {
	t.Run("full body", func(t *testing.T) {
		e := newTestEnv(nil)
		w := e.do(t, http.MethodPost, "/api/cart/s1/items", map[string]any{
			"productId": 7, "name": "Mixer", "price": 250.0, "category": "Equipment",
		})
		require.Equal(t, http.StatusOK, w.Code)

		c, err := e.store.GetCart(context.Background(), "s1")
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 1, c.Items[0].Quantity)
	})

	t.Run("resolves product from catalog", func(t *testing.T) {
		resolver := &fakeResolver{products: map[int64]*catalog.Product{
			7: {ID: 7, Name: "Mixer", Price: 250, Category: "Equipment"},
		}}
		e := newTestEnv(resolver)
		w := e.do(t, http.MethodPost, "/api/cart/s1/items", map[string]any{
			"productId": 7, "requirementName": "Dough Prep",
		})
		require.Equal(t, http.StatusOK, w.Code)

		c, err := e.store.GetCart(context.Background(), "s1")
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, "Mixer", c.Items[0].Name)
		assert.Equal(t, 250.0, c.Items[0].Price)
		assert.Equal(t, "Equipment", c.Items[0].Category)
		assert.Equal(t, "Dough Prep", c.Items[0].RequirementName)
	})

	t.Run("unknown catalog product", func(t *testing.T) {
		e := newTestEnv(&fakeResolver{})
		w := e.do(t, http.MethodPost, "/api/cart/s1/items", map[string]any{"productId": 99})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing name without catalog", func(t *testing.T) {
		e := newTestEnv(nil)
		w := e.do(t, http.MethodPost, "/api/cart/s1/items", map[string]any{"productId": 99})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		e := newTestEnv(nil)
		r := httptest.NewRequest(http.MethodPost, "/api/cart/s1/items", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetQuantityEndpoint(t *testing.T) {
	t.Run("zero removes the item", func(t *testing.T) {
		e := newTestEnv(nil)
		seedCart(t, e)

		w := e.do(t, http.MethodPut, "/api/cart/s1/items/1", map[string]any{"quantity": 0})
		require.Equal(t, http.StatusOK, w.Code)

		c, err := e.store.GetCart(context.Background(), "s1")
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, int64(3), c.Items[0].ProductID)
	})

	t.Run("invalid product id", func(t *testing.T) {
		e := newTestEnv(nil)
		w := e.do(t, http.MethodPut, "/api/cart/s1/items/abc", map[string]any{"quantity": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestClearEndpoints(t *testing.T) {
	t.Run("clear category", func(t *testing.T) {
		e := newTestEnv(nil)
		seedCart(t, e)

		w := e.do(t, http.MethodDelete, "/api/cart/s1/categories/Equipment", nil)
		require.Equal(t, http.StatusOK, w.Code)

		c, _ := e.store.GetCart(context.Background(), "s1")
		require.Len(t, c.Items, 1)
		assert.Equal(t, int64(3), c.Items[0].ProductID)
	})

	t.Run("clear requirement", func(t *testing.T) {
		e := newTestEnv(nil)
		seedCart(t, e)

		w := e.do(t, http.MethodDelete, "/api/cart/s1/requirements?requirement=Point+of+Sale+System&category=Equipment", nil)
		require.Equal(t, http.StatusOK, w.Code)

		c, _ := e.store.GetCart(context.Background(), "s1")
		require.Len(t, c.Items, 1)
	})

	t.Run("clear requirement missing params", func(t *testing.T) {
		e := newTestEnv(nil)
		w := e.do(t, http.MethodDelete, "/api/cart/s1/requirements", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestShare(t *testing.T) {
	t.Run("empty cart is rejected before any save", func(t *testing.T) {
		e := newTestEnv(nil)
		w := e.do(t, http.MethodPost, "/api/cart/s1/share", map[string]any{"name": "X"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, e.repo.saved)
	})

	t.Run("blank name falls back to business default", func(t *testing.T) {
		e := newTestEnv(nil)
		seedCart(t, e)

		w := e.do(t, http.MethodPost, "/api/cart/s1/share", map[string]any{"name": "  "})
		require.Equal(t, http.StatusCreated, w.Code)

		require.Len(t, e.repo.saved, 1)
		assert.Equal(t, "My Bakery List", e.repo.saved[0].Name)
		assert.Equal(t, 230.0, e.repo.saved[0].TotalCost)

		var resp struct {
			Success  bool   `json:"success"`
			ListID   string `json:"listId"`
			ShareURL string `json:"shareUrl"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.ListID)
		assert.Equal(t, "https://hustlecare.com/shared/"+resp.ListID, resp.ShareURL)

		require.Len(t, e.publisher.published, 1)
	})

	t.Run("storage failure returns success false", func(t *testing.T) {
		e := newTestEnv(nil)
		seedCart(t, e)
		e.repo.saveFunc = func(ctx context.Context, list *snapshot.SharedList) error {
			return errors.New("db down")
		}

		w := e.do(t, http.MethodPost, "/api/cart/s1/share", map[string]any{"name": "X"})
		require.Equal(t, http.StatusBadGateway, w.Code)

		var resp struct {
			Success bool `json:"success"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Success)
	})

	t.Run("publish failure does not fail the share", func(t *testing.T) {
		e := newTestEnv(nil)
		seedCart(t, e)
		e.publisher.err = errors.New("broker down")

		w := e.do(t, http.MethodPost, "/api/cart/s1/share", map[string]any{"name": "X"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestExport(t *testing.T) {
	t.Run("empty cart is rejected", func(t *testing.T) {
		e := newTestEnv(nil)
		w := e.do(t, http.MethodGet, "/api/cart/s1/export", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("returns a pdf attachment", func(t *testing.T) {
		e := newTestEnv(nil)
		seedCart(t, e)

		w := e.do(t, http.MethodGet, "/api/cart/s1/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "Bakery")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	})
}
