// Package labeltext parses unstructured slab-label and listing text
// into structured card fields by pattern matching against known
// vocabularies.
package labeltext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/pokescan/internal/model"
)

// Fields holds whatever could be parsed out of a block of label text.
// Absent fields stay nil/empty; unknown cards and sets are an expected
// degradation, not an error.
type Fields struct {
	RawLabelText string
	GradeNumeric *float64
	CardNumber   string
	CardName     string
	SetName      string
}

// UnknownSet is the sentinel set name used when an identity has a name
// and number but no recognizable set.
const UnknownSet = "Unknown Set"

var (
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Explicit grade label first, bare half-point token second. The
	// value set is the 1.0-10.0 half-point scale.
	gradeValue      = `(10|9(?:\.5)?|8(?:\.5)?|7(?:\.5)?|6(?:\.5)?|5(?:\.5)?|4(?:\.5)?|3(?:\.5)?|2(?:\.5)?|1(?:\.5)?)`
	gradeLabeledRe  = regexp.MustCompile(`(?i)(?:grade|final\s*grade|assessment)\s*[:#-]?\s*` + gradeValue)
	gradeBareRe     = regexp.MustCompile(`(?i)\b` + gradeValue + `\s*(?:gem\s*mint|near\s*mint|mint|nm|mt)?\b`)
	cardNumberRe    = regexp.MustCompile(`\b\d{1,3}\s*/\s*\d{1,3}\b`)
	hashedNumberRe  = regexp.MustCompile(`(?i)(?:card\s*#|#)\s*([A-Za-z0-9-]{1,12})`)
)

// knownNames is the card-name vocabulary. Deliberately not exhaustive:
// names outside it simply fail to resolve.
var knownNames = []string{
	"Charizard",
	"Blastoise",
	"Venusaur",
	"Pikachu",
	"Mew",
	"Mewtwo",
	"Lugia",
	"Gengar",
	"Umbreon",
	"Rayquaza",
}

// knownSets is the set-name vocabulary.
var knownSets = []string{
	"Base Set",
	"Jungle",
	"Fossil",
	"Team Rocket",
	"Neo Genesis",
	"Skyridge",
	"Evolving Skies",
}

// Extract parses raw HTML or plain text into Fields. Script blocks and
// tags are stripped and whitespace collapsed before matching; the
// cleaned text is the canonical RawLabelText.
func Extract(input string) Fields {
	text := Normalize(input)
	return Fields{
		RawLabelText: text,
		GradeNumeric: parseGrade(text),
		CardNumber:   parseCardNumber(text),
		CardName:     matchVocabulary(text, knownNames),
		SetName:      matchVocabulary(text, knownSets),
	}
}

// Normalize strips script blocks and tags, collapses runs of
// whitespace to single spaces, and trims.
func Normalize(input string) string {
	text := scriptRe.ReplaceAllString(input, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Identity builds a CardIdentity from parsed fields. Only
// constructible when both name and number resolved; the set name falls
// back to UnknownSet.
func (f Fields) Identity() *model.CardIdentity {
	if f.CardName == "" || f.CardNumber == "" {
		return nil
	}
	setName := f.SetName
	if setName == "" {
		setName = UnknownSet
	}
	return &model.CardIdentity{
		Name:       f.CardName,
		SetName:    setName,
		CardNumber: f.CardNumber,
	}
}

func parseGrade(text string) *float64 {
	for _, re := range []*regexp.Regexp{gradeLabeledRe, gradeBareRe} {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return &value
	}
	return nil
}

func parseCardNumber(text string) string {
	if m := cardNumberRe.FindString(text); m != "" {
		return whitespaceRe.ReplaceAllString(m, "")
	}
	if m := hashedNumberRe.FindStringSubmatch(text); len(m) == 2 {
		return strings.ToUpper(m[1])
	}
	return ""
}

// matchVocabulary returns the first vocabulary entry present in text,
// case-insensitively.
func matchVocabulary(text string, vocabulary []string) string {
	lower := strings.ToLower(text)
	for _, entry := range vocabulary {
		if strings.Contains(lower, strings.ToLower(entry)) {
			return entry
		}
	}
	return ""
}
