package membership

import (
	"fmt"
	"strings"
)

// Capability is an action a member may attempt in the business hall.
type Capability int

const (
	CapabilitySubmitProposal Capability = iota + 1
	CapabilityVote
	CapabilityPurchase
	CapabilityRequestActivation
	CapabilitySubmitPkCode
	CapabilityClaimFreeTier
)

var capabilityNames = map[Capability]string{
	CapabilitySubmitProposal:    "submit_proposal",
	CapabilityVote:              "vote",
	CapabilityPurchase:          "purchase",
	CapabilityRequestActivation: "request_activation",
	CapabilitySubmitPkCode:      "submit_pk_code",
	CapabilityClaimFreeTier:     "claim_free_tier",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// ParseCapability parses the snake_case capability name.
func ParseCapability(s string) (Capability, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for c, name := range capabilityNames {
		if name == want {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, s)
}

// Capabilities lists every capability in declaration order.
func Capabilities() []Capability {
	return []Capability{
		CapabilitySubmitProposal,
		CapabilityVote,
		CapabilityPurchase,
		CapabilityRequestActivation,
		CapabilitySubmitPkCode,
		CapabilityClaimFreeTier,
	}
}

// CanAccess resolves whether a tier may use a capability.
func CanAccess(tier Tier, capability Capability) (bool, error) {
	if !tier.Valid() {
		return false, fmt.Errorf("%w: %d", ErrInvalidTier, int(tier))
	}
	switch capability {
	case CapabilitySubmitProposal:
		return tier == TierL3, nil
	case CapabilityVote:
		return tier >= TierL2, nil
	case CapabilityPurchase, CapabilityRequestActivation, CapabilitySubmitPkCode, CapabilityClaimFreeTier:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownCapability, int(capability))
	}
}

// Permissions returns the resolved capability table for a tier keyed by
// capability name.
func Permissions(tier Tier) (map[string]bool, error) {
	out := make(map[string]bool, len(capabilityNames))
	for _, c := range Capabilities() {
		ok, err := CanAccess(tier, c)
		if err != nil {
			return nil, err
		}
		out[c.String()] = ok
	}
	return out, nil
}

// require converts a denied capability into ErrCapabilityDenied.
func require(tier Tier, capability Capability) error {
	ok, err := CanAccess(tier, capability)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s requires a higher tier than %s", ErrCapabilityDenied, capability, tier)
	}
	return nil
}
