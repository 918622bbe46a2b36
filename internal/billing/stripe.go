package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"golang.org/x/sync/errgroup"
)

// StripeCatalog reads products and prices from the Stripe API.
type StripeCatalog struct {
	api *client.API
}

// NewStripeCatalog creates a catalog authenticated with apiKey.
func NewStripeCatalog(apiKey string) *StripeCatalog {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeCatalog{api: api}
}

// Products lists the products with ids and looks up the first active price
// of each one concurrently.
func (s *StripeCatalog) Products(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := &stripe.ProductListParams{IDs: stripe.StringSlice(ids)}
	params.Context = ctx

	var products []*stripe.Product
	it := s.api.Products.List(params)
	for it.Next() {
		products = append(products, it.Product())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	out := make([]Product, len(products))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range products {
		g.Go(func() error {
			amount, err := s.firstActivePrice(ctx, p.ID)
			if err != nil {
				return err
			}
			out[i] = Product{ID: p.ID, Name: p.Name, Metadata: p.Metadata, UnitAmount: amount}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StripeCatalog) firstActivePrice(ctx context.Context, productID string) (int64, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := s.api.Prices.List(params)
	if it.Next() {
		return it.Price().UnitAmount, nil
	}
	if err := it.Err(); err != nil {
		return 0, fmt.Errorf("list prices of %s: %w", productID, err)
	}
	return 0, fmt.Errorf("%w: %s", ErrNoActivePrice, productID)
}
