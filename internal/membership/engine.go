package membership

import (
	"fmt"
	"strings"
	"time"
)

// Platform is a trading terminal an EA can be activated for.
type Platform string

const (
	PlatformMT4 Platform = "MT4"
	PlatformMT5 Platform = "MT5"
)

// ParsePlatform accepts MT4 or MT5 in any case.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToUpper(strings.TrimSpace(s))); p {
	case PlatformMT4, PlatformMT5:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, s)
	}
}

// AuthorizationGrant is the result of a free-tier claim.
type AuthorizationGrant struct {
	Code             string
	TradingAccountID string
	IssuedAt         time.Time
}

// PurchasePlan is an accepted purchase waiting for settlement.
type PurchasePlan struct {
	Product  Product
	FromTier Tier
}

// ActivationRequest is forwarded to the back office, which issues the
// activation code out of band.
type ActivationRequest struct {
	AccountID        string
	Phone            string
	Tier             Tier
	Platform         Platform
	TradingAccountID string
	RequestedAt      time.Time
}

// PkSubmission is a ladder entry forwarded to ranking.
type PkSubmission struct {
	AccountID   string
	Alias       string
	PkCode      string
	SubmittedAt time.Time
}

// ProposalDraft is an accepted feature proposal.
type ProposalDraft struct {
	AuthorID    string
	Author      string
	Title       string
	Description string
	SubmittedAt time.Time
}

// Ballot is an accepted vote.
type Ballot struct {
	AccountID  string
	ProposalID string
	CastAt     time.Time
}

// Engine applies membership transitions. It holds no state besides its clock
// and is safe for concurrent use.
type Engine struct {
	clock func() time.Time
}

// NewEngine builds an engine. A nil clock uses time.Now.
func NewEngine(clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{clock: clock}
}

// Now returns the engine clock in UTC.
func (e *Engine) Now() time.Time {
	return e.clock().UTC()
}

// FreeClaim issues an authorization code binding a trading account to the
// free edition. It never changes tier or expiry.
func (e *Engine) FreeClaim(acct Account, tradingAccountID string) (AuthorizationGrant, error) {
	if err := require(acct.Tier, CapabilityClaimFreeTier); err != nil {
		return AuthorizationGrant{}, err
	}
	issued := e.Now()
	code, err := GenerateAuthorizationCode(acct.Phone, tradingAccountID, issued)
	if err != nil {
		return AuthorizationGrant{}, err
	}
	return AuthorizationGrant{
		Code:             code,
		TradingAccountID: strings.TrimSpace(tradingAccountID),
		IssuedAt:         issued,
	}, nil
}

// Purchase validates a purchase request. Buying a plan below the current
// tier is refused while the current membership is still active.
func (e *Engine) Purchase(acct Account, sku string) (PurchasePlan, error) {
	if err := require(acct.Tier, CapabilityPurchase); err != nil {
		return PurchasePlan{}, err
	}
	product, err := LookupProduct(sku)
	if err != nil {
		return PurchasePlan{}, err
	}
	if product.Tier < acct.Tier && !acct.Expired(e.Now()) {
		return PurchasePlan{}, fmt.Errorf("%w: %s while %s", ErrDowngradeNotAllowed, product.SKU, acct.Tier)
	}
	return PurchasePlan{Product: product, FromTier: acct.Tier}, nil
}

// ApplyPurchase returns the account after a settled purchase. Tier and expiry
// are overwritten together; lifetime plans clear the expiry.
func (e *Engine) ApplyPurchase(acct Account, product Product, issueDate time.Time) Account {
	acct.Tier = product.Tier
	acct.ExpiryDate = product.ExpiryFor(issueDate.UTC())
	return acct
}

// Activation records a request to activate the paid EA on a trading account.
// The tier check runs before any field validation.
func (e *Engine) Activation(acct Account, platform, tradingAccountID string) (ActivationRequest, error) {
	if err := require(acct.Tier, CapabilityRequestActivation); err != nil {
		return ActivationRequest{}, err
	}
	if acct.Tier < TierL2 {
		return ActivationRequest{}, ErrInsufficientTier
	}
	p, err := ParsePlatform(platform)
	if err != nil {
		return ActivationRequest{}, err
	}
	tradingAccountID = strings.TrimSpace(tradingAccountID)
	if !isDigits(tradingAccountID) {
		return ActivationRequest{}, ErrMissingAccountID
	}
	return ActivationRequest{
		AccountID:        acct.ID,
		Phone:            acct.Phone,
		Tier:             acct.Tier,
		Platform:         p,
		TradingAccountID: tradingAccountID,
		RequestedAt:      e.Now(),
	}, nil
}

// SubmitPkCode accepts a ladder submission from any tier.
func (e *Engine) SubmitPkCode(acct Account, alias, pkCode string) (PkSubmission, error) {
	if err := require(acct.Tier, CapabilitySubmitPkCode); err != nil {
		return PkSubmission{}, err
	}
	alias, pkCode = strings.TrimSpace(alias), strings.TrimSpace(pkCode)
	if err := requireFields(field{"alias", alias}, field{"pk_code", pkCode}); err != nil {
		return PkSubmission{}, err
	}
	return PkSubmission{AccountID: acct.ID, Alias: alias, PkCode: pkCode, SubmittedAt: e.Now()}, nil
}

// SubmitProposal accepts a feature proposal from an L3 member.
func (e *Engine) SubmitProposal(acct Account, title, description string) (ProposalDraft, error) {
	if err := require(acct.Tier, CapabilitySubmitProposal); err != nil {
		return ProposalDraft{}, err
	}
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	if err := requireFields(field{"title", title}, field{"description", description}); err != nil {
		return ProposalDraft{}, err
	}
	return ProposalDraft{
		AuthorID:    acct.ID,
		Author:      acct.DisplayName(),
		Title:       title,
		Description: description,
		SubmittedAt: e.Now(),
	}, nil
}

// Vote accepts a ballot from an L2 or L3 member.
func (e *Engine) Vote(acct Account, proposalID string) (Ballot, error) {
	if err := require(acct.Tier, CapabilityVote); err != nil {
		return Ballot{}, err
	}
	proposalID = strings.TrimSpace(proposalID)
	if err := requireFields(field{"proposal_id", proposalID}); err != nil {
		return Ballot{}, err
	}
	return Ballot{AccountID: acct.ID, ProposalID: proposalID, CastAt: e.Now()}, nil
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}
