package model

import (
	"strings"
	"time"
)

// GradingCompany identifies the authority that graded a slab.
type GradingCompany string

const (
	CompanyPSA GradingCompany = "PSA"
	CompanyBGS GradingCompany = "BGS"
	CompanyCGC GradingCompany = "CGC"
)

// GradingCompanies lists every supported grading authority.
var GradingCompanies = []GradingCompany{CompanyPSA, CompanyBGS, CompanyCGC}

// Valid reports whether c is one of the supported companies.
func (c GradingCompany) Valid() bool {
	switch c {
	case CompanyPSA, CompanyBGS, CompanyCGC:
		return true
	}
	return false
}

// NormalizeCompany maps free-text grading company strings onto the
// closed enumeration. Substring matches on "BGS"/"BECKETT" and "CGC"
// win; everything else defaults to PSA.
func NormalizeCompany(input string) GradingCompany {
	value := strings.ToUpper(input)
	if strings.Contains(value, "BGS") || strings.Contains(value, "BECKETT") {
		return CompanyBGS
	}
	if strings.Contains(value, "CGC") {
		return CompanyCGC
	}
	return CompanyPSA
}

// CardIdentity is a best-effort label for a card, not a catalog key.
// CardNumber is preferably in "N/total" form.
type CardIdentity struct {
	Name       string `json:"name"`
	SetName    string `json:"setName"`
	CardNumber string `json:"cardNumber"`
}

// ResolvedIdentity is the full identity produced for one scan, refined
// in place by certificate corroboration.
type ResolvedIdentity struct {
	Card           CardIdentity   `json:"card"`
	GradingCompany GradingCompany `json:"gradingCompany"`
	GradeNumeric   float64        `json:"gradeNumeric"`
	CertNumber     string         `json:"certNumber,omitempty"`
	Confidence     float64        `json:"confidence"`
	Alternatives   []CardIdentity `json:"alternatives"`
	RawLabelText   string         `json:"rawLabelText,omitempty"`
}

// CertLookupResult is the outcome of resolving a certificate number
// against the issuing authority's public record. Transient: only its
// corroboration feeds back into a ResolvedIdentity.
type CertLookupResult struct {
	Matched        bool           `json:"matched"`
	Card           *CardIdentity  `json:"card,omitempty"`
	GradingCompany GradingCompany `json:"gradingCompany,omitempty"`
	GradeNumeric   *float64       `json:"gradeNumeric,omitempty"`
	RawLabelText   string         `json:"rawLabelText,omitempty"`
	SourceURL      string         `json:"sourceUrl,omitempty"`
}

// SoldComp is one observed completed marketplace transaction. Fetched
// per valuation request, never cached across requests.
type SoldComp struct {
	Title  string    `json:"title"`
	Price  float64   `json:"price"`
	SoldAt time.Time `json:"soldAt"`
}

// Valuation is a derived fair-value band, immutable once computed.
// Currency is always USD.
type Valuation struct {
	Currency        string `json:"currency"`
	FairMarketValue int    `json:"fairMarketValue"`
	RangeLow        int    `json:"rangeLow"`
	RangeHigh       int    `json:"rangeHigh"`
	SampleSize      int    `json:"sampleSize"`
	WindowDays      int    `json:"windowDays"`
}

// ScanStatus represents the lifecycle state of a scan record.
type ScanStatus string

const (
	ScanStatusAnalyzed  ScanStatus = "analyzed"
	ScanStatusConfirmed ScanStatus = "confirmed"
)

// ScanRecord is one persisted scan: resolved identity plus valuation.
// Created at analyze time; only a confirm mutates it afterwards.
type ScanRecord struct {
	ScanID                string           `json:"scanId"`
	Identity              ResolvedIdentity `json:"identity"`
	Valuation             Valuation        `json:"valuation"`
	NeedsUserConfirmation bool             `json:"needsUserConfirmation"`
	Status                ScanStatus       `json:"status"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// ClampGrade restricts a numeric grade to the 1-10 scale.
func ClampGrade(grade float64) float64 {
	if grade < 1 {
		return 1
	}
	if grade > 10 {
		return 10
	}
	return grade
}

// ClampConfidence restricts a confidence score to (0, 1) exclusive of
// the degenerate endpoints.
func ClampConfidence(c float64) float64 {
	if c < 0.01 {
		return 0.01
	}
	if c > 0.99 {
		return 0.99
	}
	return c
}

// ValidGrade reports whether grade falls on the 1.0-10.0 half-point scale.
func ValidGrade(grade float64) bool {
	if grade < 1 || grade > 10 {
		return false
	}
	doubled := grade * 2
	return doubled == float64(int(doubled))
}
