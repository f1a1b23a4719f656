package membership

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type stubDirectory map[string]string

func (d stubDirectory) ReferrerPhone(_ context.Context, code string) (string, error) {
	phone, ok := d[code]
	if !ok {
		return "", ErrUnknownInviteCode
	}
	return phone, nil
}

func testFactory() *Factory {
	fixed := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return &Factory{HashCost: bcrypt.MinCost, Now: func() time.Time { return fixed }}
}

func TestCreateAccountDefaults(t *testing.T) {
	f := testFactory()
	acct, err := f.Create(context.Background(), Registration{
		Phone:           "13800138000",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if acct.ID == "" {
		t.Fatal("expected an id")
	}
	if acct.Tier != TierL1 {
		t.Fatalf("expected L1, got %s", acct.Tier)
	}
	if acct.ExpiryDate != nil {
		t.Fatalf("expected no expiry, got %v", acct.ExpiryDate)
	}
	if acct.CommissionBalance != 0 {
		t.Fatalf("expected zero commission, got %d", acct.CommissionBalance)
	}
	if !invitationPattern.MatchString(acct.InvitationCode) {
		t.Fatalf("bad invitation code %q", acct.InvitationCode)
	}
	if acct.ReferrerPhone != "" {
		t.Fatalf("expected no referrer, got %q", acct.ReferrerPhone)
	}
	if !acct.CheckPassword("secret1") || acct.CheckPassword("secret2") {
		t.Fatal("password hash does not verify")
	}
	if string(acct.PasswordHash) == "secret1" {
		t.Fatal("password stored in plain text")
	}
	if !acct.CreatedAt.Equal(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created at %s", acct.CreatedAt)
	}
}

func TestCreateAccountIDsAreUnique(t *testing.T) {
	f := testFactory()
	reg := Registration{Phone: "13800138000", Password: "secret1", ConfirmPassword: "secret1"}
	a, _ := f.Create(context.Background(), reg)
	b, _ := f.Create(context.Background(), reg)
	if a.ID == b.ID {
		t.Fatal("expected distinct ids")
	}
}

func TestCreateAccountValidationOrder(t *testing.T) {
	cases := []struct {
		name string
		reg  Registration
		want error
	}{
		{name: "short phone", reg: Registration{Phone: "1380013800", Password: "x", ConfirmPassword: "y"}, want: ErrInvalidPhone},
		{name: "long phone", reg: Registration{Phone: "138001380001", Password: "secret1", ConfirmPassword: "secret1"}, want: ErrInvalidPhone},
		{name: "letters in phone", reg: Registration{Phone: "1380013800a", Password: "secret1", ConfirmPassword: "secret1"}, want: ErrInvalidPhone},
		{name: "formatted phone", reg: Registration{Phone: "138-0013-80", Password: "secret1", ConfirmPassword: "secret1"}, want: ErrInvalidPhone},
		{name: "weak before mismatch", reg: Registration{Phone: "13800138000", Password: "12345", ConfirmPassword: "54321"}, want: ErrWeakPassword},
		{name: "short multibyte password", reg: Registration{Phone: "13800138000", Password: "密码三", ConfirmPassword: "密码三"}, want: ErrWeakPassword},
		{name: "mismatch", reg: Registration{Phone: "13800138000", Password: "secret1", ConfirmPassword: "secret2"}, want: ErrPasswordMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := testFactory().Create(context.Background(), tc.reg)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateAccountReferrer(t *testing.T) {
	f := testFactory()
	f.Referrers = stubDirectory{"SW-ABC123": "13900139000"}

	acct, err := f.Create(context.Background(), Registration{
		Phone: "13800138000", Password: "secret1", ConfirmPassword: "secret1", InviteCode: " sw-abc123 ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.ReferrerPhone != "13900139000" {
		t.Fatalf("expected referrer phone, got %q", acct.ReferrerPhone)
	}

	_, err = f.Create(context.Background(), Registration{
		Phone: "13800138000", Password: "secret1", ConfirmPassword: "secret1", InviteCode: "SW-NOPE00",
	})
	if !errors.Is(err, ErrUnknownInviteCode) {
		t.Fatalf("expected unknown invite code, got %v", err)
	}
}

func TestCreateAccountReferrerWithoutDirectory(t *testing.T) {
	acct, err := testFactory().Create(context.Background(), Registration{
		Phone: "13800138000", Password: "secret1", ConfirmPassword: "secret1", InviteCode: "sw-xyz789",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.ReferrerPhone != "SW-XYZ789" {
		t.Fatalf("expected raw invite code, got %q", acct.ReferrerPhone)
	}
}

func TestDisplayName(t *testing.T) {
	acct := Account{Phone: "13800138000"}
	if got := acct.DisplayName(); got != "Hunter_8000" {
		t.Fatalf("expected fallback alias, got %s", got)
	}
	acct.DisplayAlias = "  Golden Flash "
	if got := acct.DisplayName(); got != "Golden Flash" {
		t.Fatalf("expected alias, got %s", got)
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	if (Account{}).Expired(now) {
		t.Fatal("nil expiry must never expire")
	}
	if !(Account{ExpiryDate: &past}).Expired(now) {
		t.Fatal("expected past expiry to be expired")
	}
	if !(Account{ExpiryDate: &now}).Expired(now) {
		t.Fatal("expiry instant itself counts as expired")
	}
	if (Account{ExpiryDate: &future}).Expired(now) {
		t.Fatal("future expiry must not be expired")
	}
}

func TestAccountJSONOmitsPasswordHash(t *testing.T) {
	acct, err := testFactory().Create(context.Background(), Registration{
		Phone: "13800138000", Password: "secret1", ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	raw, err := json.Marshal(acct)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	payload := string(raw)
	if strings.Contains(payload, "password") || strings.Contains(payload, string(acct.PasswordHash)) {
		t.Fatalf("password hash leaked: %s", payload)
	}
}

func TestPasswordLengthCountsCharacters(t *testing.T) {
	acct, err := testFactory().Create(context.Background(), Registration{
		Phone: "13800138000", Password: "六个汉字密码", ConfirmPassword: "六个汉字密码",
	})
	if err != nil {
		t.Fatalf("six-character password rejected: %v", err)
	}
	if !acct.CheckPassword("六个汉字密码") {
		t.Fatal("password hash does not verify")
	}
}
