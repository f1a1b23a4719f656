package membership

import (
	"fmt"
	"strings"
	"time"
)

// Product is a purchasable membership plan. Months is zero for lifetime plans.
type Product struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Tier       Tier   `json:"tier"`
	Months     int    `json:"months"`
	PriceLabel string `json:"price_label"`
}

// Lifetime reports whether the plan never expires.
func (p Product) Lifetime() bool { return p.Months == 0 }

// Product SKUs.
const (
	SKUQuarterly = "L2-QUARTERLY"
	SKUAnnual    = "L2-ANNUAL"
	SKULifetime  = "L3-LIFETIME"
)

var products = [...]Product{
	{SKU: SKUQuarterly, Name: "Hunter L2 quarterly", Tier: TierL2, Months: 3, PriceLabel: "¥29.9"},
	{SKU: SKUAnnual, Name: "Hunter L2 annual", Tier: TierL2, Months: 12, PriceLabel: "¥88.0"},
	{SKU: SKULifetime, Name: "Hunter L3 lifetime full edition", Tier: TierL3, Months: 0, PriceLabel: "¥598.0"},
}

// LookupProduct resolves a SKU against the product table. Matching is exact
// after trimming and upper-casing; there is no fallback plan.
func LookupProduct(sku string) (Product, error) {
	want := strings.ToUpper(strings.TrimSpace(sku))
	for _, p := range products {
		if p.SKU == want {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: %q", ErrUnknownProduct, sku)
}

// Products returns the full product table.
func Products() []Product {
	return append([]Product(nil), products[:]...)
}

// ExpiryFor returns when a plan bought at issueDate ends, or nil for lifetime plans.
func (p Product) ExpiryFor(issueDate time.Time) *time.Time {
	if p.Lifetime() {
		return nil
	}
	expiry := AddMonths(issueDate, p.Months)
	return &expiry
}

// AddMonths adds calendar months to t. When the day of month does not exist
// in the target month it is clamped to that month's last day, so Nov 30 plus
// three months is Feb 28 (or 29).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
