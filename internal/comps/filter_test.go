package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pokescan/internal/model"
)

var charizard = model.CardIdentity{Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}

func TestRejectedByBlocklist(t *testing.T) {
	rejected := []string{
		"Lot of 5 reprint proxy cards",
		"Charizard REPRINT 4/102",
		"Custom orica Charizard",
		"PSA 9 Charizard - creased corner",
		"Charizard raw ungraded",
		"Charizard not graded 4/102",
	}
	for _, title := range rejected {
		assert.True(t, rejectedByBlocklist(title), "title %q", title)
	}

	accepted := []string{
		"PSA 9 Charizard 4/102 Base Set card",
		"BGS 9.5 Umbreon Evolving Skies",
	}
	for _, title := range accepted {
		assert.False(t, rejectedByBlocklist(title), "title %q", title)
	}
}

func TestMatchesIdentity_StrictMatch(t *testing.T) {
	ok := matchesIdentity("PSA 9 Charizard 4/102 Base Set card", charizard, 9, model.CompanyPSA)
	assert.True(t, ok)
}

func TestMatchesIdentity_SoftMatchViaSetName(t *testing.T) {
	// No grade token, but the set name substitutes for it.
	ok := matchesIdentity("PSA Charizard 4/102 Base Set holo", charizard, 10, model.CompanyPSA)
	assert.True(t, ok)
}

func TestMatchesIdentity_MissingNumberFails(t *testing.T) {
	ok := matchesIdentity("PSA 9 Charizard Base Set card", charizard, 9, model.CompanyPSA)
	assert.False(t, ok)
}

func TestMatchesIdentity_MissingCompanyFails(t *testing.T) {
	ok := matchesIdentity("Charizard 4/102 Base Set 9", charizard, 9, model.CompanyPSA)
	assert.False(t, ok)
}

func TestMatchesIdentity_WrongNameFails(t *testing.T) {
	ok := matchesIdentity("PSA 9 Blastoise 4/102 Base Set", charizard, 9, model.CompanyPSA)
	assert.False(t, ok)
}

func TestMatchesIdentity_HalfGradeSpokenVariant(t *testing.T) {
	umbreon := model.CardIdentity{Name: "Umbreon", SetName: "Evolving Skies", CardNumber: "215/203"}
	assert.True(t, matchesIdentity("BGS 9.5 Umbreon 215/203 gem", umbreon, 9.5, model.CompanyBGS))
	assert.True(t, matchesIdentity("BGS 9 5 Umbreon 215/203 gem", umbreon, 9.5, model.CompanyBGS))
}

func TestGradeTokens(t *testing.T) {
	tokens := gradeTokens(9.5)
	assert.Contains(t, tokens, "9 5")
	assert.Contains(t, tokens, "grade 9 5")

	whole := gradeTokens(10)
	assert.Contains(t, whole, "10")
	assert.Contains(t, whole, "grade 10")
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "psa 9 charizard 4/102", normalizeToken("PSA-9!! Charizard #4/102"))
}

func TestBuildQuery(t *testing.T) {
	query := buildQuery(charizard, 10, model.CompanyPSA)
	assert.Equal(t, "Charizard 4/102 Base Set PSA 10 -reprint -proxy -lot", query)
}
