package purchase

import (
	"time"

	"github.com/smartwin-lab/smartwin/internal/account"
	"github.com/smartwin-lab/smartwin/internal/membership"
)

// PurchaseRequest selects the plan to buy.
type PurchaseRequest struct {
	SKU string `json:"sku"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID          string          `json:"order_id"`
	SKU         string          `json:"sku"`
	Tier        membership.Tier `json:"tier"`
	Months      int             `json:"months"`
	Status      Phase           `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	AppliedAt   *time.Time      `json:"applied_at,omitempty"`
	Reason      string          `json:"reject_reason,omitempty"`
}

// StatusResponse carries the order and, once applied, the updated account.
type StatusResponse struct {
	Order   OrderResponse `json:"order"`
	Account *account.View `json:"account,omitempty"`
}

func newOrderResponse(o Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		SKU:         o.SKU,
		Tier:        o.Tier,
		Months:      o.Months,
		Status:      o.Status,
		SubmittedAt: o.SubmittedAt,
		Reason:      o.RejectReason,
	}
	if o.Status == PhaseApplied {
		resp.AppliedAt = o.AppliedAt
	}
	return resp
}
