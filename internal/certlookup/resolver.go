// Package certlookup resolves slab certificate numbers against the
// issuing authority's public record pages.
package certlookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/pokescan/internal/labeltext"
	"github.com/sells-group/pokescan/internal/model"
)

// provider describes one grading authority's public record
// endpoint. Per-company behavior lives here as data rather than as
// three near-identical lookup functions.
type provider struct {
	urlTemplate  string // fmt template taking the escaped cert number
	matchPattern *regexp.Regexp
}

// defaultProviders maps each grading company to its public record page.
var defaultProviders = map[model.GradingCompany]provider{
	model.CompanyPSA: {
		urlTemplate:  "https://www.psacard.com/cert/%s",
		matchPattern: regexp.MustCompile(`(?i)psa|cert\s*verification`),
	},
	model.CompanyBGS: {
		urlTemplate:  "https://www.beckett.com/grading/card-lookup?item_type=BGS&item_id=%s",
		matchPattern: regexp.MustCompile(`(?i)beckett|bgs|grading`),
	},
	model.CompanyCGC: {
		urlTemplate:  "https://www.cgccards.com/certlookup/%s/",
		matchPattern: regexp.MustCompile(`(?i)cgc|cert\s*lookup|grading`),
	},
}

// Resolver looks up certificate numbers. All fetch and parse failures
// degrade to an unmatched result; Lookup never returns an error.
type Resolver struct {
	http      *http.Client
	providers map[model.GradingCompany]provider
}

// Option configures the resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.http = hc
	}
}

// WithURLTemplate overrides one company's record URL template. The
// template must contain a single %s for the escaped cert number.
func WithURLTemplate(company model.GradingCompany, template string) Option {
	return func(r *Resolver) {
		entry := r.providers[company]
		entry.urlTemplate = template
		r.providers[company] = entry
	}
}

// NewResolver creates a certificate resolver.
func NewResolver(opts ...Option) *Resolver {
	providers := make(map[model.GradingCompany]provider, len(defaultProviders))
	for company, entry := range defaultProviders {
		providers[company] = entry
	}
	r := &Resolver{
		http:      &http.Client{Timeout: 15 * time.Second},
		providers: providers,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Lookup fetches the public record for certNumber from the given
// company's registry and parses the page for corroborating identity
// fields. An empty cert number short-circuits to an unmatched result.
func (r *Resolver) Lookup(ctx context.Context, certNumber string, company model.GradingCompany) model.CertLookupResult {
	if certNumber == "" {
		return model.CertLookupResult{Matched: false}
	}

	entry, ok := r.providers[company]
	if !ok {
		entry = r.providers[model.CompanyPSA]
	}
	sourceURL := fmt.Sprintf(entry.urlTemplate, url.QueryEscape(certNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return model.CertLookupResult{Matched: false, SourceURL: sourceURL}
	}

	resp, err := r.http.Do(req)
	if err != nil {
		zap.L().Warn("certlookup: fetch failed",
			zap.String("company", string(company)),
			zap.String("source_url", sourceURL),
			zap.Error(err),
		)
		return model.CertLookupResult{Matched: false, SourceURL: sourceURL}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.CertLookupResult{Matched: false, SourceURL: sourceURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.CertLookupResult{Matched: false, SourceURL: sourceURL}
	}

	fields := labeltext.Extract(string(body))
	matched := entry.matchPattern.MatchString(fields.RawLabelText)

	result := model.CertLookupResult{
		Matched:      matched,
		RawLabelText: fields.RawLabelText,
		SourceURL:    sourceURL,
	}
	if matched {
		result.GradingCompany = company
		result.Card = fields.Identity()
		result.GradeNumeric = fields.GradeNumeric
	}

	zap.L().Debug("certlookup: lookup complete",
		zap.String("company", string(company)),
		zap.Bool("matched", matched),
		zap.String("source_url", sourceURL),
	)

	return result
}
