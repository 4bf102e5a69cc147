package comps

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/pokescan/internal/model"
)

// decayHalfLifeDays controls the exponential recency decay applied to
// comp weights.
const decayHalfLifeDays = 45.0

// minOutlierSample is the smallest sample quartile statistics are
// meaningful for; below it outlier removal is a no-op.
const minOutlierSample = 6

// removeOutliers drops prices outside [Q1-1.5*IQR, Q3+1.5*IQR].
// Returns the input unchanged for samples smaller than
// minOutlierSample. The result is sorted ascending.
func removeOutliers(prices []float64) []float64 {
	if len(prices) < minOutlierSample {
		return prices
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	q1 := sorted[len(sorted)/4]
	q3 := sorted[len(sorted)*3/4]
	iqr := q3 - q1
	lo := q1 - iqr*1.5
	hi := q3 + iqr*1.5

	kept := make([]float64, 0, len(sorted))
	for _, p := range sorted {
		if p >= lo && p <= hi {
			kept = append(kept, p)
		}
	}
	return kept
}

// weightedPoint pairs a price with its recency weight.
type weightedPoint struct {
	price  float64
	weight float64
}

// weightedPercentile sorts by price and walks cumulative weight until
// it reaches p of the total, returning that point's price.
func weightedPercentile(points []weightedPoint, p float64) float64 {
	if len(points) == 0 {
		return 0
	}

	sorted := make([]weightedPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].price < sorted[j].price })

	var total float64
	for _, pt := range sorted {
		total += pt.weight
	}
	target := total * p

	var cumulative float64
	for _, pt := range sorted {
		cumulative += pt.weight
		if cumulative >= target {
			return pt.price
		}
	}
	return sorted[len(sorted)-1].price
}

// recencyWeight computes exp(-ageDays/45) with ageDays floored at 1.
func recencyWeight(soldAt, now time.Time) float64 {
	ageDays := now.Sub(soldAt).Hours() / 24
	if ageDays < 1 {
		ageDays = 1
	}
	return math.Exp(-ageDays / decayHalfLifeDays)
}

// weightedBand computes the p25/p50/p75 band over outlier-cleaned,
// recency-weighted comps. ok is false when nothing survives cleaning.
func weightedBand(comps []model.SoldComp, now time.Time) (low, mid, high int, ok bool) {
	prices := make([]float64, len(comps))
	for i, comp := range comps {
		prices[i] = comp.Price
	}

	cleaned := map[float64]bool{}
	for _, p := range removeOutliers(prices) {
		cleaned[p] = true
	}

	var points []weightedPoint
	for _, comp := range comps {
		if !cleaned[comp.Price] {
			continue
		}
		points = append(points, weightedPoint{
			price:  comp.Price,
			weight: recencyWeight(comp.SoldAt, now),
		})
	}
	if len(points) == 0 {
		return 0, 0, 0, false
	}

	low = int(math.Round(weightedPercentile(points, 0.25)))
	mid = int(math.Round(weightedPercentile(points, 0.5)))
	high = int(math.Round(weightedPercentile(points, 0.75)))
	return low, mid, high, true
}
