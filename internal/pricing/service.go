package pricing

import (
	"context"
	"encoding/json"
	"time"

	"hawltrack/internal/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Source records where a price came from in the fallback cascade.
type Source string

const (
	SourceLive     Source = "live"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)

// Classical Nisab weights.
var (
	nisabGoldGrams   = decimal.NewFromFloat(87.48)
	nisabSilverGrams = decimal.NewFromFloat(612.36)
)

// Conservative per-gram USD fallbacks, deliberately below recent market
// lows so a degraded price feed never under-reports the obligation.
var fallbackPerGram = map[Metal]decimal.Decimal{
	MetalGold:   decimal.NewFromFloat(55.00),
	MetalSilver: decimal.NewFromFloat(0.60),
}

// Threshold is a resolved Nisab threshold. Source=fallback (and to a
// lesser degree cached) should be surfaced to callers as a non-blocking
// advisory; it is never an error.
type Threshold struct {
	Basis        Metal           `json:"basis"`
	Amount       decimal.Decimal `json:"amount"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	Currency     string          `json:"currency"`
	Source       Source          `json:"source"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// CacheEntry is the Redis-resident cached spot price for one metal.
// Ephemeral by design: entries expire with the cache TTL.
type CacheEntry struct {
	Metal        Metal           `json:"metal"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	Currency     string          `json:"currency"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

const cacheKeyPrefix = "price:"

// Service resolves Nisab thresholds. GetNisabThreshold never fails: the
// cascade is live fetch, then cache, then hardcoded fallback.
type Service struct {
	provider Provider
	rdb      *redis.Client
	currency string
	timeout  time.Duration
	cacheTTL time.Duration
}

// NewService creates a price service. rdb may be nil, which disables the
// cache tier (live + fallback only).
func NewService(provider Provider, rdb *redis.Client, currency string, timeout, cacheTTL time.Duration) *Service {
	return &Service{
		provider: provider,
		rdb:      rdb,
		currency: currency,
		timeout:  timeout,
		cacheTTL: cacheTTL,
	}
}

// nisabWeight returns the metal weight constant for a basis.
func nisabWeight(metal Metal) decimal.Decimal {
	if metal == MetalGold {
		return nisabGoldGrams
	}
	return nisabSilverGrams
}

// GetNisabThreshold resolves the Nisab threshold for the given basis in
// the reporting currency. A value is always returned; the Source field
// tells the caller how fresh it is.
func (s *Service) GetNisabThreshold(ctx context.Context, basis Metal) Threshold {
	price, source, fetchedAt := s.spotPrice(ctx, basis)

	return Threshold{
		Basis:        basis,
		Amount:       nisabWeight(basis).Mul(price).Round(4),
		PricePerGram: price,
		Currency:     s.currency,
		Source:       source,
		FetchedAt:    fetchedAt,
	}
}

// spotPrice runs the fallback cascade for one metal.
func (s *Service) spotPrice(ctx context.Context, metal Metal) (decimal.Decimal, Source, time.Time) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	price, err := s.provider.FetchSpot(fetchCtx, metal, s.currency)
	if err == nil {
		now := time.Now().UTC()
		s.storeCache(ctx, CacheEntry{Metal: metal, PricePerGram: price, Currency: s.currency, FetchedAt: now})
		return price, SourceLive, now
	}
	logger.Get().Warnw("live price fetch failed, falling back",
		"provider", s.provider.Name(),
		"metal", metal,
		"error", err,
	)

	if entry, ok := s.loadCache(ctx, metal); ok {
		return entry.PricePerGram, SourceCached, entry.FetchedAt
	}

	return fallbackPerGram[metal], SourceFallback, time.Now().UTC()
}

func cacheKey(metal Metal, currency string) string {
	return cacheKeyPrefix + string(metal) + ":" + currency
}

func (s *Service) storeCache(ctx context.Context, entry CacheEntry) {
	if s.rdb == nil {
		return
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(entry.Metal, entry.Currency), b, s.cacheTTL).Err(); err != nil {
		logger.Get().Warnw("failed to cache spot price", "metal", entry.Metal, "error", err)
	}
}

func (s *Service) loadCache(ctx context.Context, metal Metal) (CacheEntry, bool) {
	if s.rdb == nil {
		return CacheEntry{}, false
	}
	b, err := s.rdb.Get(ctx, cacheKey(metal, s.currency)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Get().Warnw("failed to read cached spot price", "metal", metal, "error", err)
		}
		return CacheEntry{}, false
	}
	var entry CacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return CacheEntry{}, false
	}
	// Entries expire with the Redis TTL, but double-check staleness in
	// case the TTL was configured longer than the cascade allows.
	if time.Since(entry.FetchedAt) > s.cacheTTL {
		return CacheEntry{}, false
	}
	return entry, true
}
