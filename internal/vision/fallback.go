package vision

import (
	"context"
	"hash/fnv"

	"github.com/sells-group/pokescan/internal/model"
)

// demoCatalog is the fixed catalog the offline resolver draws from.
var demoCatalog = []model.CardIdentity{
	{Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"},
	{Name: "Blastoise", SetName: "Base Set", CardNumber: "2/102"},
	{Name: "Venusaur", SetName: "Base Set", CardNumber: "15/102"},
}

// demoGrades is the fixed grade set the offline resolver draws from.
var demoGrades = []float64{8, 9, 10}

// seedPrefixLen bounds how much of the payload feeds the seed hash.
const seedPrefixLen = 120

// FallbackResolver derives a deterministic identity from the image
// payload alone. Same bytes always yield the same identity, grade, and
// confidence; Resolve never returns an error.
type FallbackResolver struct{}

// NewFallbackResolver creates the offline resolver.
func NewFallbackResolver() *FallbackResolver {
	return &FallbackResolver{}
}

// Resolve hashes a prefix of the payload into a seed and indexes the
// demo catalog. Confidence lands in [0.72, 0.92).
func (r *FallbackResolver) Resolve(_ context.Context, imageBase64 string, hint model.GradingCompany) (*model.ResolvedIdentity, error) {
	seed := payloadSeed(imageBase64)

	card := demoCatalog[seed%uint64(len(demoCatalog))]
	grade := demoGrades[seed%uint64(len(demoGrades))]
	confidence := 0.72 + float64(seed%20)/100

	company := model.CompanyPSA
	if hint != "" && hint.Valid() {
		company = hint
	}

	alternatives := make([]model.CardIdentity, 0, 2)
	for _, c := range demoCatalog {
		if c.CardNumber != card.CardNumber && len(alternatives) < 2 {
			alternatives = append(alternatives, c)
		}
	}

	return &model.ResolvedIdentity{
		Card:           card,
		GradingCompany: company,
		GradeNumeric:   grade,
		Confidence:     confidence,
		Alternatives:   alternatives,
	}, nil
}

// payloadSeed hashes up to seedPrefixLen bytes of the payload. FNV-1a
// is cheap and stable, which is all the determinism contract needs.
func payloadSeed(imageBase64 string) uint64 {
	prefix := imageBase64
	if len(prefix) > seedPrefixLen {
		prefix = prefix[:seedPrefixLen]
	}
	h := fnv.New64a()
	h.Write([]byte(prefix))
	return h.Sum64()
}
