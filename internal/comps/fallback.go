package comps

import (
	"math"

	"github.com/sells-group/pokescan/internal/model"
)

// fallbackBases keys a demo base price off known card numbers.
var fallbackBases = map[string]float64{
	"4/102": 900,
	"2/102": 450,
}

const fallbackDefaultBase = 380

// fallbackValuation produces a deterministic heuristic valuation used
// when the marketplace yields nothing usable. SampleSize 0 signals the
// caller that no comps backed the number.
func fallbackValuation(card model.CardIdentity, grade float64, company model.GradingCompany) model.Valuation {
	base, ok := fallbackBases[card.CardNumber]
	if !ok {
		base = fallbackDefaultBase
	}

	gradeMultiplier := 0.87
	switch grade {
	case 10:
		gradeMultiplier = 2.25
	case 9:
		gradeMultiplier = 1.12
	}

	companyMultiplier := 1.0
	switch company {
	case model.CompanyBGS:
		companyMultiplier = 0.97
	case model.CompanyCGC:
		companyMultiplier = 0.95
	}

	mid := int(math.Round(base * gradeMultiplier * companyMultiplier))

	return model.Valuation{
		Currency:        "USD",
		FairMarketValue: mid,
		RangeLow:        int(math.Round(float64(mid) * 0.93)),
		RangeHigh:       int(math.Round(float64(mid) * 1.08)),
		SampleSize:      0,
		WindowDays:      reportedWindowDays,
	}
}
