package hall

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrAlreadyVoted     = errors.New("account already voted on this proposal")
)

// Proposal is a feature request open for votes.
type Proposal struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id,omitempty"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Votes       int       `json:"votes"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Repository stores business hall submissions. CastVote accepts one ballot
// per account and proposal.
type Repository interface {
	SaveActivation(ctx context.Context, req membership.ActivationRequest) (string, error)
	SavePkSubmission(ctx context.Context, sub membership.PkSubmission) (string, error)
	CreateProposal(ctx context.Context, draft membership.ProposalDraft) (Proposal, error)
	ListProposals(ctx context.Context) ([]Proposal, error)
	CastVote(ctx context.Context, ballot membership.Ballot) (Proposal, error)
}

// SeedProposals are the proposals open on a fresh install. The schema
// migration inserts the same rows.
func SeedProposals() []Proposal {
	return []Proposal{
		{
			ID:          "6f1c2d3e-0000-4000-8000-000000000001",
			Author:      "SmartWin",
			Title:       "Add trailing stop",
			Description: "Let the EA trail profitable positions with a configurable step.",
			Votes:       42,
			SubmittedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "6f1c2d3e-0000-4000-8000-000000000002",
			Author:      "SmartWin",
			Title:       "Filter late-night volatility",
			Description: "Pause new entries during the low-liquidity rollover window.",
			Votes:       28,
			SubmittedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

// sortProposals orders by votes, most first, then by submission time.
func sortProposals(ps []Proposal) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Votes != ps[j].Votes {
			return ps[i].Votes > ps[j].Votes
		}
		return ps[i].SubmittedAt.Before(ps[j].SubmittedAt)
	})
}

type voteKey struct {
	proposalID string
	accountID  string
}

type memoryRepository struct {
	mu          sync.RWMutex
	activations []membership.ActivationRequest
	pkCodes     []membership.PkSubmission
	proposals   map[string]Proposal
	votes       map[voteKey]struct{}
}

// NewMemoryRepository builds an in-memory hall store seeded with SeedProposals.
func NewMemoryRepository() Repository {
	r := &memoryRepository{
		proposals: make(map[string]Proposal),
		votes:     make(map[voteKey]struct{}),
	}
	for _, p := range SeedProposals() {
		r.proposals[p.ID] = p
	}
	return r
}

func (r *memoryRepository) SaveActivation(_ context.Context, req membership.ActivationRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activations = append(r.activations, req)
	return uuid.NewString(), nil
}

func (r *memoryRepository) SavePkSubmission(_ context.Context, sub membership.PkSubmission) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pkCodes = append(r.pkCodes, sub)
	return uuid.NewString(), nil
}

func (r *memoryRepository) CreateProposal(_ context.Context, draft membership.ProposalDraft) (Proposal, error) {
	p := Proposal{
		ID:          uuid.NewString(),
		AuthorID:    draft.AuthorID,
		Author:      draft.Author,
		Title:       draft.Title,
		Description: draft.Description,
		SubmittedAt: draft.SubmittedAt,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proposals[p.ID] = p
	return p, nil
}

func (r *memoryRepository) ListProposals(_ context.Context) ([]Proposal, error) {
	r.mu.RLock()
	out := make([]Proposal, 0, len(r.proposals))
	for _, p := range r.proposals {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sortProposals(out)
	return out, nil
}

func (r *memoryRepository) CastVote(_ context.Context, ballot membership.Ballot) (Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[ballot.ProposalID]
	if !ok {
		return Proposal{}, ErrProposalNotFound
	}
	key := voteKey{proposalID: ballot.ProposalID, accountID: ballot.AccountID}
	if _, voted := r.votes[key]; voted {
		return Proposal{}, ErrAlreadyVoted
	}
	r.votes[key] = struct{}{}
	p.Votes++
	r.proposals[p.ID] = p
	return p, nil
}
