package account

import (
	"fmt"
	"time"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

const (
	expiryLayout = "2006-01-02"
	neverExpires = "never"
)

// View is the client-facing projection of an account.
type View struct {
	ID                string          `json:"id"`
	Phone             string          `json:"phone"`
	DisplayName       string          `json:"display_name"`
	Tier              membership.Tier `json:"tier"`
	TierName          string          `json:"tier_name"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	ExpiryLabel       string          `json:"expiry_label"`
	Expired           bool            `json:"expired"`
	InvitationCode    string          `json:"invitation_code"`
	ReferrerPhone     string          `json:"referrer_phone,omitempty"`
	CommissionBalance int64           `json:"commission_balance"`
	CommissionLabel   string          `json:"commission_label"`
}

// NewView projects an account at now. Unknown tiers render without a name.
func NewView(acct membership.Account, now time.Time) View {
	v := View{
		ID:                acct.ID,
		Phone:             acct.Phone,
		DisplayName:       acct.DisplayName(),
		Tier:              acct.Tier,
		ExpiryDate:        acct.ExpiryDate,
		ExpiryLabel:       neverExpires,
		Expired:           acct.Expired(now),
		InvitationCode:    acct.InvitationCode,
		ReferrerPhone:     acct.ReferrerPhone,
		CommissionBalance: acct.CommissionBalance,
		CommissionLabel:   FormatCommission(acct.CommissionBalance),
	}
	if def, err := membership.Lookup(acct.Tier); err == nil {
		v.TierName = def.Name
	}
	if acct.ExpiryDate != nil {
		v.ExpiryLabel = acct.ExpiryDate.UTC().Format(expiryLayout)
	}
	return v
}

// FormatCommission renders a balance held in fen as yuan with two decimals.
func FormatCommission(fen int64) string {
	sign := ""
	if fen < 0 {
		sign, fen = "-", -fen
	}
	return fmt.Sprintf("%s¥%d.%02d", sign, fen/100, fen%100)
}
