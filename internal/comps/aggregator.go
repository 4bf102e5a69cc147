// Package comps turns scraped sold-listing data into a fair-value
// band: relevance and authenticity filtering, IQR outlier rejection,
// and recency-weighted percentile statistics, with a deterministic
// heuristic fallback when the marketplace gives nothing usable.
package comps

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/pokescan/internal/model"
	"github.com/sells-group/pokescan/pkg/ebay"
)

// reportedWindowDays is the window reported on every valuation. It is
// a fixed reporting value, not a statistic computed from comp dates.
// TODO: report the actual comp date spread once the mobile client can
// render a variable window.
const reportedWindowDays = 90

const maxListings = 100

// Aggregator computes valuations from completed marketplace listings.
type Aggregator struct {
	market ebay.Client
	now    func() time.Time
}

// Option configures the aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator. market may be nil, in which
// case every valuation uses the heuristic fallback.
func NewAggregator(market ebay.Client, opts ...Option) *Aggregator {
	a := &Aggregator{market: market, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Valuate computes a fair-value band for the identity. It never
// returns an error: marketplace failures and empty result sets fall
// back to the deterministic heuristic valuation.
func (a *Aggregator) Valuate(ctx context.Context, card model.CardIdentity, grade float64, company model.GradingCompany) model.Valuation {
	if a.market == nil {
		return fallbackValuation(card, grade, company)
	}

	query := buildQuery(card, grade, company)
	listings, err := a.market.FindCompletedItems(ctx, query, maxListings)
	if err != nil {
		zap.L().Warn("comps: marketplace search failed, using fallback",
			zap.String("query", query),
			zap.Error(err),
		)
		return fallbackValuation(card, grade, company)
	}

	var filtered []model.SoldComp
	for _, listing := range listings {
		if rejectedByBlocklist(listing.Title) {
			continue
		}
		if !matchesIdentity(listing.Title, card, grade, company) {
			continue
		}
		filtered = append(filtered, model.SoldComp{
			Title:  listing.Title,
			Price:  listing.Price,
			SoldAt: listing.SoldAt,
		})
	}

	if len(filtered) == 0 {
		zap.L().Info("comps: no relevant comps survived filtering, using fallback",
			zap.String("query", query),
			zap.Int("raw_listings", len(listings)),
		)
		return fallbackValuation(card, grade, company)
	}

	low, mid, high, ok := weightedBand(filtered, a.now())
	if !ok {
		return fallbackValuation(card, grade, company)
	}

	zap.L().Info("comps: valuation computed",
		zap.String("card", card.Name),
		zap.String("card_number", card.CardNumber),
		zap.Float64("grade", grade),
		zap.String("company", string(company)),
		zap.Int("raw_listings", len(listings)),
		zap.Int("sample_size", len(filtered)),
		zap.Int("fmv", mid),
	)

	return model.Valuation{
		Currency:        "USD",
		FairMarketValue: mid,
		RangeLow:        low,
		RangeHigh:       high,
		SampleSize:      len(filtered),
		WindowDays:      reportedWindowDays,
	}
}

// buildQuery combines identity fields with negative terms excluding
// reprints, proxies, and bulk lots.
func buildQuery(card model.CardIdentity, grade float64, company model.GradingCompany) string {
	return fmt.Sprintf("%s %s %s %s %s -reprint -proxy -lot",
		card.Name, card.CardNumber, card.SetName, company, formatGrade(grade))
}
