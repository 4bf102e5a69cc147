package comps

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/pokescan/internal/model"
)

// blocklistPatterns flag titles that are not authentic single graded
// cards: reprints, proxies, bulk lots, and damaged or ungraded stock.
// "raw" is known to also hit phrases like "raw edge wear"; that
// false-positive rate is accepted.
var blocklistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\breprint\b`),
	regexp.MustCompile(`(?i)\bproxy\b`),
	regexp.MustCompile(`(?i)\bproxies\b`),
	regexp.MustCompile(`(?i)\bcustom\b`),
	regexp.MustCompile(`(?i)\bfan\s*art\b`),
	regexp.MustCompile(`(?i)\borica\b`),
	regexp.MustCompile(`(?i)\bworld\s*championship\b`),
	regexp.MustCompile(`(?i)\bcelebration\s*proxy\b`),
	regexp.MustCompile(`(?i)\blot\s*of\b`),
	regexp.MustCompile(`(?i)\blot\b`),
	regexp.MustCompile(`(?i)\bset\s*of\b`),
	regexp.MustCompile(`(?i)\bpack\s*fresh\b`),
	regexp.MustCompile(`(?i)\bdamaged\b`),
	regexp.MustCompile(`(?i)\bcreased\b`),
	regexp.MustCompile(`(?i)\bpoor\b`),
	regexp.MustCompile(`(?i)\bplayed\b`),
	regexp.MustCompile(`(?i)\bnot\s*graded\b`),
	regexp.MustCompile(`(?i)\braw\b`),
}

var nonTokenRe = regexp.MustCompile(`[^a-z0-9/]+`)

// rejectedByBlocklist reports whether a listing title trips any
// red-flag pattern.
func rejectedByBlocklist(title string) bool {
	for _, pattern := range blocklistPatterns {
		if pattern.MatchString(title) {
			return true
		}
	}
	return false
}

// normalizeToken lowercases and collapses everything outside
// [a-z0-9/] to single spaces.
func normalizeToken(input string) string {
	return strings.TrimSpace(nonTokenRe.ReplaceAllString(strings.ToLower(input), " "))
}

// formatGrade prints a grade without a trailing ".0".
func formatGrade(grade float64) string {
	return strconv.FormatFloat(grade, 'f', -1, 64)
}

// gradeTokens returns the normalized grade spellings a title may use,
// covering both "9.5" and spoken-style "9 5" variants.
func gradeTokens(grade float64) []string {
	text := formatGrade(grade)

	seen := map[string]bool{}
	var tokens []string
	add := func(raw string) {
		token := normalizeToken(raw)
		if token != "" && !seen[token] {
			seen[token] = true
			tokens = append(tokens, token)
		}
	}

	add(text)
	add("grade " + text)
	if strings.HasSuffix(text, ".5") {
		add(strings.Replace(text, ".5", " 5", 1))
	}

	return tokens
}

// matchesIdentity applies the relevance filter: strict match requires
// name + number + company + grade tokens; soft match substitutes the
// set name for the grade.
func matchesIdentity(title string, card model.CardIdentity, grade float64, company model.GradingCompany) bool {
	normalizedTitle := normalizeToken(title)

	nameTokens := strings.Fields(normalizeToken(card.Name))
	numberToken := normalizeToken(card.CardNumber)
	setTokens := strings.Fields(normalizeToken(card.SetName))

	hasName := containsAny(normalizedTitle, nameTokens)
	hasNumber := numberToken != "" && strings.Contains(normalizedTitle, numberToken)
	hasCompany := strings.Contains(normalizedTitle, normalizeToken(string(company)))
	hasGrade := containsAny(normalizedTitle, gradeTokens(grade))
	hasSetHint := containsAny(normalizedTitle, setTokens)

	strict := hasName && hasNumber && hasCompany && hasGrade
	soft := hasName && hasNumber && hasCompany && hasSetHint

	return strict || soft
}

func containsAny(haystack string, tokens []string) bool {
	for _, token := range tokens {
		if token != "" && strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}
