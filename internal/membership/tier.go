package membership

import (
	"fmt"
	"strings"
)

// Tier is a membership privilege level. Tiers are strictly ordered, so
// comparisons such as t >= TierL2 express "L2 or above".
type Tier int

const (
	TierL1 Tier = iota + 1
	TierL2
	TierL3
)

// String returns the wire name of the tier ("L1", "L2", "L3").
func (t Tier) String() string {
	switch t {
	case TierL1:
		return "L1"
	case TierL2:
		return "L2"
	case TierL3:
		return "L3"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Valid reports whether t is one of the three defined tiers.
func (t Tier) Valid() bool {
	return t >= TierL1 && t <= TierL3
}

// ParseTier parses a tier name, ignoring case and surrounding space.
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L1":
		return TierL1, nil
	case "L2":
		return TierL2, nil
	case "L3":
		return TierL3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
}

// MarshalText encodes the tier by name so JSON payloads carry "L2" rather than 2.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTier, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Definition describes what a tier costs and grants.
type Definition struct {
	Tier          Tier     `json:"tier"`
	Name          string   `json:"name"`
	PriceLabel    string   `json:"price_label"`
	DurationLabel string   `json:"duration_label"`
	Benefits      []string `json:"benefits"`
	EADownload    string   `json:"ea_download"`
}

var catalog = [...]Definition{
	{
		Tier:          TierL1,
		Name:          "PK Hunter",
		PriceLabel:    "¥0",
		DurationLabel: "Free for life",
		Benefits: []string{
			"XAU free PK edition EA (L1)",
			"Ladder tournament entry",
			"Personal invitation code",
			"Official news feed",
			"Public community",
		},
		EADownload: "https://example.com/downloads/SW_XAU_L1_PK.ex4",
	},
	{
		Tier:          TierL2,
		Name:          "Elite Hunter",
		PriceLabel:    "¥29.9 / quarter",
		DurationLabel: "Quarterly / Annual (¥88)",
		Benefits: []string{
			"All L1 benefits",
			"XAU assessment edition EA (L2)",
			"Enforced risk-control mode",
			"Private community and support",
			"Referral commission rewards",
		},
		EADownload: "https://example.com/downloads/SW_XAU_L2_PRO.ex4",
	},
	{
		Tier:          TierL3,
		Name:          "Legend Hunter",
		PriceLabel:    "¥598",
		DurationLabel: "Lifetime",
		Benefits: []string{
			"All L2 benefits",
			"XAU full edition EA (L3)",
			"Member voting on custom features",
			"Senior referrer revenue share",
			"Dedicated technical advisor",
		},
		EADownload: "https://example.com/downloads/SW_XAU_L3_LEGEND.ex4",
	},
}

// Lookup returns the definition for a tier. The returned value is a copy and
// may be modified freely.
func Lookup(t Tier) (Definition, error) {
	if !t.Valid() {
		return Definition{}, fmt.Errorf("%w: %d", ErrInvalidTier, int(t))
	}
	return cloneDefinition(catalog[t-TierL1]), nil
}

// Tiers returns every tier definition ordered from L1 to L3.
func Tiers() []Definition {
	out := make([]Definition, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, cloneDefinition(def))
	}
	return out
}

func cloneDefinition(def Definition) Definition {
	def.Benefits = append([]string(nil), def.Benefits...)
	return def
}
