package profile

import (
	"context"
	"math"

	"github.com/danupratama/backend-kasir/internal/cache"
	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/erp"
	"github.com/danupratama/backend-kasir/internal/money"
	"github.com/danupratama/backend-kasir/internal/payments"
	"github.com/danupratama/backend-kasir/internal/pricing"
)

const (
	profileKey = "kasir:cfg:profile"
	modesKey   = "kasir:cfg:modes"
	rulesKey   = "kasir:cfg:taxrules"
)

// Service syncs the POS profile, payment modes and tax rules from the ERP
// backend, with a short-lived Redis cache in front. Configuration is
// fail-closed: when the backend is unreachable and nothing is cached, the
// operation errors rather than guessing defaults.
type Service struct {
	ERP   erp.Client
	Cache *cache.Cache
}

// Profile returns the POS profile document.
func (s *Service) Profile(ctx context.Context) (erp.Profile, error) {
	var p erp.Profile
	if hit, err := s.Cache.GetJSON(ctx, profileKey, &p); err == nil && hit {
		return p, nil
	}
	p, err := s.ERP.Profile(ctx)
	if err != nil {
		return erp.Profile{}, common.ExternalError("unable to load POS profile", err)
	}
	_ = s.Cache.SetJSON(ctx, profileKey, p)
	return p, nil
}

// Modes returns the configured payment modes.
func (s *Service) Modes(ctx context.Context) ([]erp.PaymentMode, error) {
	var modes []erp.PaymentMode
	if hit, err := s.Cache.GetJSON(ctx, modesKey, &modes); err == nil && hit {
		return modes, nil
	}
	modes, err := s.ERP.PaymentModes(ctx)
	if err != nil {
		return nil, common.ExternalError("unable to load payment modes", err)
	}
	_ = s.Cache.SetJSON(ctx, modesKey, modes)
	return modes, nil
}

// Rules returns the configured tax rules.
func (s *Service) Rules(ctx context.Context) ([]erp.TaxRuleDoc, error) {
	var rules []erp.TaxRuleDoc
	if hit, err := s.Cache.GetJSON(ctx, rulesKey, &rules); err == nil && hit {
		return rules, nil
	}
	rules, err := s.ERP.TaxRules(ctx)
	if err != nil {
		return nil, common.ExternalError("unable to load tax rules", err)
	}
	_ = s.Cache.SetJSON(ctx, rulesKey, rules)
	return rules, nil
}

// Refresh drops the cached configuration so the next read hits the backend.
func (s *Service) Refresh(ctx context.Context) error {
	for _, key := range []string{profileKey, modesKey, rulesKey} {
		if err := s.Cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// PaymentModes adapts the ERP payment modes to the tracker's mode type.
func (s *Service) PaymentModes(ctx context.Context) ([]payments.Mode, error) {
	docs, err := s.Modes(ctx)
	if err != nil {
		return nil, err
	}
	modes := make([]payments.Mode, 0, len(docs))
	for _, d := range docs {
		modes = append(modes, payments.Mode{Method: d.ModeOfPayment, Type: d.Type, Default: d.Default})
	}
	return modes, nil
}

// TaxRule resolves a single tax rule by id, converted to the integer
// basis-point form the calculator uses. A nil result means the rule does not
// exist.
func (s *Service) TaxRule(ctx context.Context, id string) (*pricing.TaxRule, error) {
	rules, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		if r.ID == id {
			rule := convertRule(r)
			return &rule, nil
		}
	}
	return nil, nil
}

// DefaultTaxRule resolves the default-flagged rule, if any.
func (s *Service) DefaultTaxRule(ctx context.Context) (*pricing.TaxRule, error) {
	rules, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		if r.Default {
			rule := convertRule(r)
			return &rule, nil
		}
	}
	return nil, nil
}

// WriteOff returns the write-off allowance in cents and whether the profile
// permits write-offs at all.
func (s *Service) WriteOff(ctx context.Context) (pricing.Money, bool, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return 0, false, err
	}
	limit := money.Cents(math.Round(p.WriteOffLimit * 100))
	return limit, p.AllowWriteOff, nil
}

// BusinessType returns the profile's business mode; "invoice" marks an
// invoice-only deployment where payment completeness is not enforced.
func (s *Service) BusinessType(ctx context.Context) (string, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return "", err
	}
	return p.BusinessType, nil
}

func convertRule(d erp.TaxRuleDoc) pricing.TaxRule {
	return pricing.TaxRule{
		ID:        d.ID,
		RateBps:   int64(math.Round(d.Rate * 100)),
		Inclusive: d.Inclusive,
	}
}
