package hall

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartwin-lab/smartwin/internal/membership"
	"github.com/smartwin-lab/smartwin/internal/notification"
)

// Receipt acknowledges a submission handed over to the back office.
type Receipt struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"received_at"`
}

const statusReceived = "received"

// Service runs business hall actions through the engine and forwards the
// accepted ones to storage and the notifier.
type Service struct {
	engine   *membership.Engine
	repo     Repository
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a hall service.
func NewService(engine *membership.Engine, repo Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{engine: engine, repo: repo, notifier: notifier, logger: logger}
}

// FreeClaim issues the free-edition authorization code. Nothing is stored.
func (s *Service) FreeClaim(ctx context.Context, acct membership.Account, tradingAccountID string) (membership.AuthorizationGrant, error) {
	grant, err := s.engine.FreeClaim(acct, tradingAccountID)
	if err != nil {
		return membership.AuthorizationGrant{}, err
	}
	s.logger.InfoContext(ctx, "free edition claimed",
		slog.String("account_id", acct.ID),
		slog.String("trading_account_id", grant.TradingAccountID),
	)
	return grant, nil
}

// RequestActivation records an EA activation request for a paid member.
func (s *Service) RequestActivation(ctx context.Context, acct membership.Account, platform, tradingAccountID string) (Receipt, error) {
	req, err := s.engine.Activation(acct, platform, tradingAccountID)
	if err != nil {
		return Receipt{}, err
	}
	id, err := s.repo.SaveActivation(ctx, req)
	if err != nil {
		return Receipt{}, fmt.Errorf("save activation request: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:      notification.KindActivationRequested,
		AccountID: acct.ID,
		Body:      fmt.Sprintf("%s requests %s activation for %s", acct.DisplayName(), req.Platform, req.TradingAccountID),
		Attrs:     map[string]string{"platform": string(req.Platform), "trading_account_id": req.TradingAccountID, "tier": req.Tier.String()},
	})
	return Receipt{ID: id, Status: statusReceived, ReceivedAt: req.RequestedAt}, nil
}

// SubmitPkCode records a ladder submission.
func (s *Service) SubmitPkCode(ctx context.Context, acct membership.Account, alias, pkCode string) (Receipt, error) {
	sub, err := s.engine.SubmitPkCode(acct, alias, pkCode)
	if err != nil {
		return Receipt{}, err
	}
	id, err := s.repo.SavePkSubmission(ctx, sub)
	if err != nil {
		return Receipt{}, fmt.Errorf("save pk submission: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:      notification.KindPkSubmitted,
		AccountID: acct.ID,
		Body:      fmt.Sprintf("%s submitted a PK code", sub.Alias),
		Attrs:     map[string]string{"alias": sub.Alias},
	})
	return Receipt{ID: id, Status: statusReceived, ReceivedAt: sub.SubmittedAt}, nil
}

// SubmitProposal opens a new proposal authored by an L3 member.
func (s *Service) SubmitProposal(ctx context.Context, acct membership.Account, title, description string) (Proposal, error) {
	draft, err := s.engine.SubmitProposal(acct, title, description)
	if err != nil {
		return Proposal{}, err
	}
	p, err := s.repo.CreateProposal(ctx, draft)
	if err != nil {
		return Proposal{}, fmt.Errorf("create proposal: %w", err)
	}
	s.notify(ctx, notification.Message{
		Kind:      notification.KindProposalSubmitted,
		AccountID: acct.ID,
		Body:      p.Title,
		Attrs:     map[string]string{"proposal_id": p.ID},
	})
	return p, nil
}

// Proposals lists open proposals, most voted first.
func (s *Service) Proposals(ctx context.Context) ([]Proposal, error) {
	return s.repo.ListProposals(ctx)
}

// Vote casts the member's ballot and returns the new tally.
func (s *Service) Vote(ctx context.Context, acct membership.Account, proposalID string) (Proposal, error) {
	ballot, err := s.engine.Vote(acct, proposalID)
	if err != nil {
		return Proposal{}, err
	}
	p, err := s.repo.CastVote(ctx, ballot)
	if err != nil {
		return Proposal{}, err
	}
	s.notify(ctx, notification.Message{
		Kind:      notification.KindVoteCast,
		AccountID: acct.ID,
		Body:      p.Title,
		Attrs:     map[string]string{"proposal_id": p.ID},
	})
	return p, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "hall notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}
