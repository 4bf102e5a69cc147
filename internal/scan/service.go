// Package scan orchestrates one scan request: visual identity
// resolution, certificate corroboration, valuation, and persistence.
package scan

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pokescan/internal/comps"
	"github.com/sells-group/pokescan/internal/model"
	"github.com/sells-group/pokescan/internal/store"
	"github.com/sells-group/pokescan/internal/vision"
)

const (
	// confirmationThreshold is the single policy gate surfaced to the
	// caller: below it the result needs user confirmation.
	confirmationThreshold = 0.82

	// certConfidenceBoost is added when the certificate authority
	// corroborates the visual identification.
	certConfidenceBoost = 0.10

	maxConfidence = 0.99
)

// CertResolver looks up a certificate number. Implemented by
// certlookup.Resolver.
type CertResolver interface {
	Lookup(ctx context.Context, certNumber string, company model.GradingCompany) model.CertLookupResult
}

// Service runs the per-scan pipeline. Each request is a short
// sequential chain: vision, certificate, marketplace. Upstream
// failures were absorbed inside those components; only store and
// programmer errors surface from here.
type Service struct {
	resolver vision.IdentityResolver
	certs    CertResolver
	comps    *comps.Aggregator
	scans    store.Store
}

// NewService wires the orchestrator.
func NewService(resolver vision.IdentityResolver, certs CertResolver, aggregator *comps.Aggregator, scans store.Store) *Service {
	return &Service{
		resolver: resolver,
		certs:    certs,
		comps:    aggregator,
		scans:    scans,
	}
}

// Analyze resolves the image, corroborates against the grading
// authority when a cert number surfaced, values the final identity,
// and persists the record.
func (s *Service) Analyze(ctx context.Context, imageBase64 string, hint model.GradingCompany) (*model.ScanRecord, error) {
	identity, err := s.resolver.Resolve(ctx, imageBase64, hint)
	if err != nil {
		return nil, eris.Wrap(err, "scan: resolve identity")
	}

	if identity.CertNumber != "" && s.certs != nil {
		lookup := s.certs.Lookup(ctx, identity.CertNumber, identity.GradingCompany)
		applyCertCorroboration(identity, lookup)
	}

	valuation := s.comps.Valuate(ctx, identity.Card, identity.GradeNumeric, identity.GradingCompany)

	record := model.ScanRecord{
		Identity:              *identity,
		Valuation:             valuation,
		NeedsUserConfirmation: identity.Confidence < confirmationThreshold,
		Status:                model.ScanStatusAnalyzed,
	}

	stored, err := s.scans.CreateScan(ctx, record)
	if err != nil {
		return nil, eris.Wrap(err, "scan: persist record")
	}

	zap.L().Info("scan: analyzed",
		zap.String("scan_id", stored.ScanID),
		zap.String("card", stored.Identity.Card.Name),
		zap.String("card_number", stored.Identity.Card.CardNumber),
		zap.Float64("grade", stored.Identity.GradeNumeric),
		zap.Float64("confidence", stored.Identity.Confidence),
		zap.Int("fmv", stored.Valuation.FairMarketValue),
		zap.Bool("needs_confirmation", stored.NeedsUserConfirmation),
	)

	return stored, nil
}

// applyCertCorroboration overlays a matched certificate record onto
// the visual identity. The authority's record wins over the vision
// guess; confidence is only ever raised.
func applyCertCorroboration(identity *model.ResolvedIdentity, lookup model.CertLookupResult) {
	if !lookup.Matched {
		return
	}

	if lookup.Card != nil {
		identity.Card = *lookup.Card
	}
	if lookup.GradingCompany != "" {
		identity.GradingCompany = lookup.GradingCompany
	}
	if lookup.GradeNumeric != nil {
		identity.GradeNumeric = model.ClampGrade(*lookup.GradeNumeric)
	}
	if lookup.RawLabelText != "" {
		identity.RawLabelText = lookup.RawLabelText
	}

	boosted := identity.Confidence + certConfidenceBoost
	if boosted > maxConfidence {
		boosted = maxConfidence
	}
	if boosted > identity.Confidence {
		identity.Confidence = boosted
	}
}

// Get returns a stored scan, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	return s.scans.GetScan(ctx, scanID)
}

// Confirm flips a scan to confirmed. Idempotent; unknown ids yield
// store.ErrNotFound.
func (s *Service) Confirm(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	record, err := s.scans.ConfirmScan(ctx, scanID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("scan: confirmed", zap.String("scan_id", record.ScanID))
	return record, nil
}
