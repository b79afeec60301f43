// Package catalog reads product records from the upstream catalog provider.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cart-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var ErrProductNotFound = errors.New("product not found")

// Client talks to a fakestore style catalog: GET /products.
// Products are tagged with the catalog currency and decorated by AssignFeatures using seed,
// so every lookup of the same catalog sees the same discounts.
type Client struct {
	baseURL    string
	currency   string
	seed       int64
	httpClient *http.Client
}

func NewClient(baseURL, currency string, seed int64) *Client {
	return &Client{
		baseURL:    baseURL,
		currency:   currency,
		seed:       seed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ListProducts fetches the whole catalog in provider order.
func (c *Client) ListProducts(ctx context.Context) ([]entity.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching products from catalog")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var products []entity.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Currency == "" {
			products[i].Currency = c.currency
		}
	}
	return AssignFeatures(products, rand.New(rand.NewSource(c.seed))), nil
}

// GetProduct returns one product as it appears in ListProducts.
func (c *Client) GetProduct(ctx context.Context, productID int) (*entity.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID == productID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
}

// AssignFeatures marks products by position: every sixth product starting at index 0 is new,
// at index 1 hot, and at index 2 discounted by 10 to 30 percent drawn from rng.
// The same seed always yields the same catalog.
func AssignFeatures(products []entity.Product, rng *rand.Rand) []entity.Product {
	out := make([]entity.Product, len(products))
	for i, p := range products {
		switch i % 6 {
		case 0:
			p.IsNew = true
		case 1:
			p.IsHot = true
		case 2:
			p.DiscountPercent = decimal.NewFromInt(int64(rng.Intn(21) + 10))
		}
		out[i] = p
	}
	return out
}
