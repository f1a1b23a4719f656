package account

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

func newTestService(rand io.Reader) (*Service, Repository) {
	repo := NewMemoryRepository()
	factory := membership.Factory{
		Codes:    &membership.CodeGenerator{Rand: rand},
		HashCost: bcrypt.MinCost,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	}
	return NewService(repo, factory), repo
}

func registration(phone string) membership.Registration {
	return membership.Registration{Phone: phone, Password: "secret1", ConfirmPassword: "secret1"}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	acct, err := svc.Register(ctx, registration("13800138000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.Tier != membership.TierL1 || acct.ExpiryDate != nil {
		t.Fatalf("expected fresh L1 account, got %+v", acct)
	}
	if _, err := repo.FindByID(ctx, acct.ID); err != nil {
		t.Fatalf("account not persisted: %v", err)
	}

	authed, err := svc.Login(ctx, "13800138000", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if authed.ID != acct.ID {
		t.Fatalf("login returned %s, want %s", authed.ID, acct.ID)
	}

	if _, err := svc.Login(ctx, "13800138000", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "13900000000", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown phone should look like bad credentials, got %v", err)
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registration("13800138000")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, registration("13800138000")); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(nil)
	reg := registration("12345")
	if _, err := svc.Register(context.Background(), reg); !errors.Is(err, membership.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestRegisterResolvesInviteCode(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	referrer, err := svc.Register(ctx, registration("13800138000"))
	if err != nil {
		t.Fatalf("register referrer: %v", err)
	}

	reg := registration("13900139000")
	reg.InviteCode = referrer.InvitationCode
	invited, err := svc.Register(ctx, reg)
	if err != nil {
		t.Fatalf("register invited: %v", err)
	}
	if invited.ReferrerPhone != referrer.Phone {
		t.Fatalf("expected referrer %s, got %q", referrer.Phone, invited.ReferrerPhone)
	}

	reg = registration("13700137000")
	reg.InviteCode = "SW-NOSUCH"
	if _, err := svc.Register(ctx, reg); !errors.Is(err, membership.ErrUnknownInviteCode) {
		t.Fatalf("expected ErrUnknownInviteCode, got %v", err)
	}
}

func TestRegisterRetriesInvitationCollision(t *testing.T) {
	// Six zero bytes always produce the same code; the second account collides
	// once and succeeds on a regenerated code.
	zeros := bytes.Repeat([]byte{0}, 6)
	ones := bytes.Repeat([]byte{1}, 6)
	svc, _ := newTestService(io.MultiReader(bytes.NewReader(zeros), bytes.NewReader(zeros), bytes.NewReader(ones)))
	ctx := context.Background()

	first, err := svc.Register(ctx, registration("13800138000"))
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	second, err := svc.Register(ctx, registration("13900139000"))
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if first.InvitationCode == second.InvitationCode {
		t.Fatalf("invitation codes must be unique, both %s", first.InvitationCode)
	}
}

func TestRegisterInvitationCollisionExhausted(t *testing.T) {
	svc, _ := newTestService(bytes.NewReader(make([]byte, 64)))
	ctx := context.Background()

	if _, err := svc.Register(ctx, registration("13800138000")); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if _, err := svc.Register(ctx, registration("13900139000")); !errors.Is(err, ErrInvitationCodeExhausted) {
		t.Fatalf("expected ErrInvitationCodeExhausted, got %v", err)
	}
}

func TestUpdateAlias(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	acct, err := svc.Register(ctx, registration("13800138000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateAlias(ctx, acct.ID, "  金色闪光  ")
	if err != nil {
		t.Fatalf("update alias: %v", err)
	}
	if updated.DisplayName() != "金色闪光" {
		t.Fatalf("unexpected display name %s", updated.DisplayName())
	}

	for _, alias := range []string{"", "   ", string(bytes.Repeat([]byte("a"), 33))} {
		if _, err := svc.UpdateAlias(ctx, acct.ID, alias); !errors.Is(err, ErrInvalidAlias) {
			t.Fatalf("alias %q: expected ErrInvalidAlias, got %v", alias, err)
		}
	}
	if _, err := svc.UpdateAlias(ctx, "missing", "alias"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryKeepsIdentityImmutable(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	acct, err := svc.Register(ctx, registration("13800138000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	tampered := acct
	tampered.Phone = "13999999999"
	tampered.Tier = membership.TierL2
	tampered.PasswordHash = nil
	if err := svc.Save(ctx, tampered); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, err := repo.FindByID(ctx, acct.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Phone != acct.Phone || stored.Tier != membership.TierL2 {
		t.Fatalf("unexpected stored account %+v", stored)
	}
	if _, err := svc.Login(ctx, acct.Phone, "secret1"); err != nil {
		t.Fatalf("saving a snapshot without a hash must keep credentials: %v", err)
	}
}

func TestFormatCommission(t *testing.T) {
	cases := map[int64]string{0: "¥0.00", 5: "¥0.05", 12345: "¥123.45", -250: "-¥2.50"}
	for fen, want := range cases {
		if got := FormatCommission(fen); got != want {
			t.Fatalf("FormatCommission(%d) = %s, want %s", fen, got, want)
		}
	}
}
