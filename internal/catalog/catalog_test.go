package catalog

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cart-service/internal/entity"
)

const productsJSON = `[
	{"id":1,"title":"Fjallraven Backpack","price":109.95,"category":"men's clothing","image":"https://img/1.jpg"},
	{"id":2,"title":"Slim Fit T-Shirt","price":22.3,"category":"men's clothing"},
	{"id":3,"title":"Cotton Jacket","price":55.99,"category":"men's clothing"},
	{"id":4,"title":"Casual Slim Fit","price":15.99,"category":"men's clothing","currency":"EUR"}
]`

func newCatalogServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListProducts(t *testing.T) {
	c := NewClient(newCatalogServer(t, http.StatusOK, productsJSON).URL, "USD", 42)

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 4)

	assert.Equal(t, "Fjallraven Backpack", products[0].Title)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("109.95")))
	assert.True(t, products[0].IsNew)
	assert.True(t, products[1].IsHot)
	assert.True(t, products[2].DiscountPercent.IsPositive())

	assert.Equal(t, "USD", products[0].Currency)
	assert.Equal(t, "EUR", products[3].Currency)

	again, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, products, again)
}

func TestGetProduct(t *testing.T) {
	c := NewClient(newCatalogServer(t, http.StatusOK, productsJSON).URL, "USD", 42)

	p, err := c.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Cotton Jacket", p.Title)
	assert.Equal(t, "USD", p.Currency)

	want := AssignFeatures(make([]entity.Product, 3), rand.New(rand.NewSource(42)))[2].DiscountPercent
	assert.True(t, p.DiscountPercent.Equal(want), "want %s, got %s", want, p.DiscountPercent)

	_, err = c.GetProduct(context.Background(), 99)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListProductsErrors(t *testing.T) {
	c := NewClient(newCatalogServer(t, http.StatusInternalServerError, "").URL, "USD", 1)
	_, err := c.GetProduct(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)

	c = NewClient(newCatalogServer(t, http.StatusOK, `{"id":1}`).URL, "USD", 1)
	_, err = c.ListProducts(context.Background())
	assert.Error(t, err)
}

func TestAssignFeaturesDeterministic(t *testing.T) {
	products := make([]entity.Product, 12)
	for i := range products {
		products[i] = entity.Product{ID: i + 1}
	}

	a := AssignFeatures(products, rand.New(rand.NewSource(7)))
	b := AssignFeatures(products, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)

	for i, p := range a {
		assert.Equal(t, i%6 == 0, p.IsNew, "index %d", i)
		assert.Equal(t, i%6 == 1, p.IsHot, "index %d", i)
		if i%6 == 2 {
			assert.True(t, p.DiscountPercent.GreaterThanOrEqual(decimal.NewFromInt(10)))
			assert.True(t, p.DiscountPercent.LessThanOrEqual(decimal.NewFromInt(30)))
		} else {
			assert.True(t, p.DiscountPercent.IsZero())
		}
	}

	// input is not modified
	assert.False(t, products[0].IsNew)
}
