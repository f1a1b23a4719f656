package membership

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLookupCatalog(t *testing.T) {
	defs := Tiers()
	if len(defs) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(defs))
	}
	for i, def := range defs {
		if def.Tier != Tier(i+1) {
			t.Fatalf("tiers out of order at %d: %s", i, def.Tier)
		}
		if def.Name == "" || def.EADownload == "" || len(def.Benefits) == 0 {
			t.Fatalf("incomplete definition for %s: %+v", def.Tier, def)
		}
	}

	l3, err := Lookup(TierL3)
	if err != nil {
		t.Fatalf("lookup L3: %v", err)
	}
	if l3.Name != "Legend Hunter" || l3.PriceLabel != "¥598" {
		t.Fatalf("unexpected L3 definition: %+v", l3)
	}
}

func TestLookupReturnsCopies(t *testing.T) {
	def, _ := Lookup(TierL1)
	def.Benefits[0] = "tampered"

	again, _ := Lookup(TierL1)
	if again.Benefits[0] == "tampered" {
		t.Fatal("catalog mutated through returned definition")
	}
}

func TestLookupInvalidTier(t *testing.T) {
	for _, tier := range []Tier{0, 4, -1} {
		if _, err := Lookup(tier); !errors.Is(err, ErrInvalidTier) {
			t.Fatalf("tier %d: expected ErrInvalidTier, got %v", tier, err)
		}
	}
}

func TestTierText(t *testing.T) {
	payload, err := json.Marshal(struct {
		Tier Tier `json:"tier"`
	}{TierL2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"tier":"L2"}` {
		t.Fatalf("unexpected payload %s", payload)
	}

	var decoded struct {
		Tier Tier `json:"tier"`
	}
	if err := json.Unmarshal([]byte(`{"tier":"l3"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Tier != TierL3 {
		t.Fatalf("expected L3, got %s", decoded.Tier)
	}

	if err := json.Unmarshal([]byte(`{"tier":"gold"}`), &decoded); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}
