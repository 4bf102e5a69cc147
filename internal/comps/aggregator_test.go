package comps

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pokescan/internal/model"
	"github.com/sells-group/pokescan/pkg/ebay"
)

type fakeMarket struct {
	listings []ebay.Listing
	err      error
	query    string
}

func (f *fakeMarket) FindCompletedItems(_ context.Context, query string, _ int) ([]ebay.Listing, error) {
	f.query = query
	return f.listings, f.err
}

func TestValuate_NilMarketUsesFallback(t *testing.T) {
	a := NewAggregator(nil)

	v := a.Valuate(context.Background(), charizard, 10, model.CompanyPSA)

	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, 2025, v.FairMarketValue, "round(900 * 2.25 * 1.0)")
	assert.Equal(t, 1883, v.RangeLow)
	assert.Equal(t, 2187, v.RangeHigh)
	assert.Equal(t, 0, v.SampleSize)
	assert.Equal(t, 90, v.WindowDays)
}

func TestValuate_FallbackGradeAndCompanyMultipliers(t *testing.T) {
	a := NewAggregator(nil)
	blastoise := model.CardIdentity{Name: "Blastoise", SetName: "Base Set", CardNumber: "2/102"}

	gengar := model.CardIdentity{Name: "Gengar", SetName: "Fossil", CardNumber: "5/62"}

	cases := []struct {
		name    string
		card    model.CardIdentity
		grade   float64
		company model.GradingCompany
		mid     int
	}{
		{"grade 9 PSA known card", blastoise, 9, model.CompanyPSA, 504},    // round(450 * 1.12)
		{"grade 8 BGS unknown card", gengar, 8, model.CompanyBGS, 321},     // round(380 * 0.87 * 0.97)
		{"grade 10 CGC known card", charizard, 10, model.CompanyCGC, 1924}, // round(900 * 2.25 * 0.95)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := a.Valuate(context.Background(), tc.card, tc.grade, tc.company)
			assert.Equal(t, tc.mid, v.FairMarketValue)
			assert.Equal(t, 0, v.SampleSize)
		})
	}
}

func TestValuate_MarketErrorFallsBack(t *testing.T) {
	market := &fakeMarket{err: eris.New("search timeout")}
	a := NewAggregator(market)

	v := a.Valuate(context.Background(), charizard, 10, model.CompanyPSA)

	assert.Equal(t, 2025, v.FairMarketValue)
	assert.Equal(t, 0, v.SampleSize)
	assert.Equal(t, "Charizard 4/102 Base Set PSA 10 -reprint -proxy -lot", market.query)
}

func TestValuate_NoSurvivorsFallsBack(t *testing.T) {
	market := &fakeMarket{listings: []ebay.Listing{
		{Title: "Lot of 5 reprint proxy cards", Price: 10, SoldAt: time.Now()},
		{Title: "PSA 9 Blastoise 2/102", Price: 400, SoldAt: time.Now()},
	}}
	a := NewAggregator(market)

	v := a.Valuate(context.Background(), charizard, 10, model.CompanyPSA)

	assert.Equal(t, 0, v.SampleSize)
	assert.Equal(t, 2025, v.FairMarketValue)
}

func TestValuate_ComputesBandFromComps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var listings []ebay.Listing
	for i, price := range []float64{1900, 1950, 2000, 2050, 2100, 2150, 9999999} {
		listings = append(listings, ebay.Listing{
			Title:  "PSA 10 Charizard 4/102 Base Set holo",
			Price:  price,
			SoldAt: now.AddDate(0, 0, -(i + 1)),
		})
	}
	market := &fakeMarket{listings: listings}
	a := NewAggregator(market, WithClock(func() time.Time { return now }))

	v := a.Valuate(context.Background(), charizard, 10, model.CompanyPSA)

	assert.Equal(t, 7, v.SampleSize, "sample counts filtered comps")
	assert.GreaterOrEqual(t, v.FairMarketValue, 1900)
	assert.LessOrEqual(t, v.FairMarketValue, 2150, "outlier excluded from the band")
	assert.LessOrEqual(t, v.RangeLow, v.FairMarketValue)
	assert.GreaterOrEqual(t, v.RangeHigh, v.FairMarketValue)
	assert.Equal(t, 90, v.WindowDays)
	assert.Equal(t, "USD", v.Currency)
}
