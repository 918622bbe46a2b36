// Package billing reads the token pack catalog from Stripe and prices it in
// recording hours.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Meeting-BaaS/emails/pkg/cache"
)

var (
	ErrNoActivePrice  = errors.New("billing: product has no active price")
	ErrInvalidTokens  = errors.New("billing: product is missing a valid tokens metadata field")
	ErrCatalogFailure = errors.New("billing: failed to read token packs")
)

// Config holds the Stripe key and the product ids of the four token packs.
type Config struct {
	APIKey              string        `env:"STRIPE_API_KEY"`
	StarterProductID    string        `env:"STRIPE_STARTER_PACK_PRODUCT_ID"`
	ProProductID        string        `env:"STRIPE_PRO_PACK_PRODUCT_ID"`
	BusinessProductID   string        `env:"STRIPE_BUSINESS_PACK_PRODUCT_ID"`
	EnterpriseProductID string        `env:"STRIPE_ENTERPRISE_PACK_PRODUCT_ID"`
	CacheTTL            time.Duration `env:"TOKEN_PACKS_CACHE_TTL" envDefault:"10m"`
}

// ProductIDs lists the configured product ids, skipping empty ones.
func (c Config) ProductIDs() []string {
	ids := make([]string, 0, 4)
	for _, id := range []string{c.StarterProductID, c.ProProductID, c.BusinessProductID, c.EnterpriseProductID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Display rates in tokens per hour.
const (
	RecordingRate     = "1.00"
	TranscriptionRate = "+0.25"
	StreamingRate     = "+0.10"
)

// Product is a Stripe product with its first active price.
type Product struct {
	ID         string
	Name       string
	Metadata   map[string]string
	UnitAmount int64 // cents
}

// Catalog lists products by id.
type Catalog interface {
	Products(ctx context.Context, ids []string) ([]Product, error)
}

// TokenPack is a purchasable pack priced in recording hours.
type TokenPack struct {
	Name           string  `json:"name"`
	Tokens         float64 `json:"tokens"`
	Price          float64 `json:"price"`
	RecordingHours float64 `json:"recordingHours"`
	PricePerHour   float64 `json:"pricePerHour"`
	Popular        bool    `json:"isPopular"`
}

// ToTokenPacks converts products into packs using the recording rate. The
// pack whose product id is popularID is flagged as popular.
func ToTokenPacks(products []Product, popularID string, rate float64) ([]TokenPack, error) {
	packs := make([]TokenPack, 0, len(products))
	for _, p := range products {
		tokens, err := strconv.ParseFloat(p.Metadata["tokens"], 64)
		if err != nil || math.IsNaN(tokens) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTokens, p.ID)
		}
		price := float64(p.UnitAmount) / 100
		packs = append(packs, TokenPack{
			Name:           p.Name,
			Tokens:         tokens,
			Price:          price,
			RecordingHours: RecordingHours(tokens, rate),
			PricePerHour:   PricePerHour(tokens, price, rate),
			Popular:        p.ID == popularID,
		})
	}
	return packs, nil
}

// RecordingHours is tokens/rate rounded to cents, 0 for a non-positive rate.
func RecordingHours(tokens, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return round2(tokens / rate)
}

// PricePerHour is price divided by the recording hours the pack buys.
func PricePerHour(tokens, price, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	hours := tokens / rate
	if hours == 0 {
		return 0
	}
	return round2(price / hours)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Service serves token packs from the catalog through a cache.
type Service struct {
	catalog Catalog
	cfg     Config
	loader  *cache.Loader[[]TokenPack]
}

// NewService creates a Service. c may be shared with other processes when it
// is Redis backed.
func NewService(catalog Catalog, cfg Config, c cache.Cache[[]TokenPack]) *Service {
	return &Service{
		catalog: catalog,
		cfg:     cfg,
		loader:  cache.NewLoader(c),
	}
}

const packsKey = "token-packs"

// TokenPacks returns the current token packs.
func (s *Service) TokenPacks(ctx context.Context) ([]TokenPack, error) {
	return s.loader.Load(ctx, packsKey, s.cfg.CacheTTL, func(ctx context.Context) ([]TokenPack, error) {
		products, err := s.catalog.Products(ctx, s.cfg.ProductIDs())
		if err != nil {
			return nil, errors.Join(ErrCatalogFailure, err)
		}
		rate, _ := strconv.ParseFloat(RecordingRate, 64)
		return ToTokenPacks(products, s.cfg.ProProductID, rate)
	})
}
