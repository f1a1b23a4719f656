package membership

import (
	"errors"
	"testing"
	"time"
)

func fixedEngine(at time.Time) *Engine {
	return NewEngine(func() time.Time { return at })
}

func member(tier Tier) Account {
	return Account{ID: "acct-1", Phone: "13800138000", Tier: tier, InvitationCode: "SW-AAAAAA"}
}

func TestFreeClaim(t *testing.T) {
	e := fixedEngine(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	acct := member(TierL1)

	grant, err := e.FreeClaim(acct, "12345")
	if err != nil {
		t.Fatalf("free claim: %v", err)
	}
	if grant.Code != "SW-0-8000-12345-250601" {
		t.Fatalf("unexpected code %s", grant.Code)
	}
	if grant.TradingAccountID != "12345" {
		t.Fatalf("unexpected account id %s", grant.TradingAccountID)
	}
}

func TestFreeClaimMissingAccount(t *testing.T) {
	e := fixedEngine(time.Now())
	grant, err := e.FreeClaim(member(TierL2), "")
	if !errors.Is(err, ErrMissingAccountID) {
		t.Fatalf("expected ErrMissingAccountID, got %v", err)
	}
	if grant.Code != "" {
		t.Fatalf("expected no code, got %s", grant.Code)
	}
}

func TestPurchaseL3AlwaysLifetime(t *testing.T) {
	issue := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	e := fixedEngine(issue)
	expiry := issue.AddDate(0, 3, 0)

	starts := []Account{member(TierL1), member(TierL2), member(TierL3)}
	starts[1].ExpiryDate = &expiry

	for _, acct := range starts {
		plan, err := e.Purchase(acct, SKULifetime)
		if err != nil {
			t.Fatalf("%s: purchase: %v", acct.Tier, err)
		}
		if plan.FromTier != acct.Tier {
			t.Fatalf("%s: plan records wrong origin %s", acct.Tier, plan.FromTier)
		}
		updated := e.ApplyPurchase(acct, plan.Product, issue)
		if updated.Tier != TierL3 {
			t.Fatalf("%s: expected L3, got %s", acct.Tier, updated.Tier)
		}
		if updated.ExpiryDate != nil {
			t.Fatalf("%s: expected lifetime, got %v", acct.Tier, updated.ExpiryDate)
		}
	}
}

func TestPurchaseAnnualExpiry(t *testing.T) {
	issue := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	e := fixedEngine(issue)

	plan, err := e.Purchase(member(TierL1), SKUAnnual)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	updated := e.ApplyPurchase(member(TierL1), plan.Product, issue)
	if updated.Tier != TierL2 {
		t.Fatalf("expected L2, got %s", updated.Tier)
	}
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if updated.ExpiryDate == nil || !updated.ExpiryDate.Equal(want) {
		t.Fatalf("expected expiry %s, got %v", want, updated.ExpiryDate)
	}
}

func TestPurchaseQuarterlyExpiry(t *testing.T) {
	issue := time.Date(2025, 11, 30, 10, 0, 0, 0, time.UTC)
	e := fixedEngine(issue)

	plan, err := e.Purchase(member(TierL1), SKUQuarterly)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	updated := e.ApplyPurchase(member(TierL1), plan.Product, issue)
	want := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	if updated.ExpiryDate == nil || !updated.ExpiryDate.Equal(want) {
		t.Fatalf("expected expiry %s, got %v", want, updated.ExpiryDate)
	}
}

func TestPurchaseUnknownSKU(t *testing.T) {
	e := fixedEngine(time.Now())
	if _, err := e.Purchase(member(TierL1), "L2-WEEKLY"); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestPurchaseDowngrade(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := fixedEngine(now)

	if _, err := e.Purchase(member(TierL3), SKUAnnual); !errors.Is(err, ErrDowngradeNotAllowed) {
		t.Fatalf("expected downgrade refusal, got %v", err)
	}

	lapsed := member(TierL3)
	past := now.AddDate(0, -1, 0)
	lapsed.ExpiryDate = &past
	if _, err := e.Purchase(lapsed, SKUAnnual); err != nil {
		t.Fatalf("lapsed membership should accept any plan: %v", err)
	}

	renewing := member(TierL2)
	future := now.AddDate(0, 1, 0)
	renewing.ExpiryDate = &future
	if _, err := e.Purchase(renewing, SKUQuarterly); err != nil {
		t.Fatalf("renewal at the same tier should be allowed: %v", err)
	}
}

func TestRepeatedPurchaseLastWriteWins(t *testing.T) {
	issue := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	e := fixedEngine(issue)
	quarterly, _ := LookupProduct(SKUQuarterly)
	annual, _ := LookupProduct(SKUAnnual)

	acct := e.ApplyPurchase(member(TierL1), annual, issue)
	acct = e.ApplyPurchase(acct, quarterly, issue)

	want := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	if acct.ExpiryDate == nil || !acct.ExpiryDate.Equal(want) {
		t.Fatalf("expected last purchase to win with %s, got %v", want, acct.ExpiryDate)
	}
}

func TestActivation(t *testing.T) {
	e := fixedEngine(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	req, err := e.Activation(member(TierL2), "mt5", "7654321")
	if err != nil {
		t.Fatalf("activation: %v", err)
	}
	if req.Platform != PlatformMT5 || req.TradingAccountID != "7654321" || req.AccountID != "acct-1" {
		t.Fatalf("unexpected request %+v", req)
	}

	if _, err := e.Activation(member(TierL3), "MT6", "1"); !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}
	if _, err := e.Activation(member(TierL3), "MT4", ""); !errors.Is(err, ErrMissingAccountID) {
		t.Fatalf("expected ErrMissingAccountID, got %v", err)
	}
}

func TestActivationRequiresPaidTier(t *testing.T) {
	e := fixedEngine(time.Now())
	inputs := []struct{ platform, account string }{
		{"MT4", "1234567"},
		{"", ""},
		{"bogus", "abc"},
	}
	for _, in := range inputs {
		_, err := e.Activation(member(TierL1), in.platform, in.account)
		if !errors.Is(err, ErrInsufficientTier) {
			t.Fatalf("%+v: expected ErrInsufficientTier, got %v", in, err)
		}
		if !IsDenied(err) {
			t.Fatalf("%+v: expected denial category", in)
		}
	}
}

func TestSubmitPkCode(t *testing.T) {
	e := fixedEngine(time.Now())

	sub, err := e.SubmitPkCode(member(TierL1), " Hunter_X ", "PK-CODE")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Alias != "Hunter_X" || sub.PkCode != "PK-CODE" {
		t.Fatalf("unexpected submission %+v", sub)
	}

	if _, err := e.SubmitPkCode(member(TierL1), "", "PK"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for alias, got %v", err)
	}
	if _, err := e.SubmitPkCode(member(TierL1), "alias", "   "); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for pk code, got %v", err)
	}
}

func TestSubmitProposalGate(t *testing.T) {
	e := fixedEngine(time.Now())

	for _, tier := range []Tier{TierL1, TierL2} {
		if _, err := e.SubmitProposal(member(tier), "Trailing stop", "Add one"); !errors.Is(err, ErrCapabilityDenied) {
			t.Fatalf("%s: expected ErrCapabilityDenied, got %v", tier, err)
		}
	}

	draft, err := e.SubmitProposal(member(TierL3), "Trailing stop", "Add one")
	if err != nil {
		t.Fatalf("L3 proposal: %v", err)
	}
	if draft.Author != "Hunter_8000" || draft.AuthorID != "acct-1" {
		t.Fatalf("unexpected draft %+v", draft)
	}

	if _, err := e.SubmitProposal(member(TierL3), "", "desc"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestVoteGate(t *testing.T) {
	e := fixedEngine(time.Now())

	if _, err := e.Vote(member(TierL1), "p-1"); !errors.Is(err, ErrCapabilityDenied) {
		t.Fatalf("expected ErrCapabilityDenied, got %v", err)
	}
	for _, tier := range []Tier{TierL2, TierL3} {
		ballot, err := e.Vote(member(tier), "p-1")
		if err != nil {
			t.Fatalf("%s: vote: %v", tier, err)
		}
		if ballot.ProposalID != "p-1" {
			t.Fatalf("unexpected ballot %+v", ballot)
		}
	}
	if _, err := e.Vote(member(TierL2), ""); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestEngineRejectsInvalidTier(t *testing.T) {
	e := fixedEngine(time.Now())
	bad := member(Tier(7))
	if _, err := e.FreeClaim(bad, "1"); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
	if _, err := e.Purchase(bad, SKUAnnual); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}
