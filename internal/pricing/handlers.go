package pricing

import (
	"net/http"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes the tax calculator over HTTP.
type Handler struct{}

// Rates lists the GST slabs.
func (Handler) Rates(w http.ResponseWriter, r *http.Request) {
	common.Data(w, http.StatusOK, Rates())
}

type computeRequest struct {
	Price Amount  `json:"price"`
	Mode  string  `json:"mode"`
	Rate  *Amount `json:"rate"`
	Split *bool   `json:"split"`
}

// Compute taxes a single price.
func (Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if !common.DecodeAndValidate(w, r, &req) {
		return
	}
	rate := DefaultRate
	if req.Rate != nil {
		rate = req.Rate.Decimal
	}
	split := true
	if req.Split != nil {
		split = *req.Split
	}
	common.Data(w, http.StatusOK, ComputeTax(req.Price.Decimal, ParseMode(req.Mode, Inclusive), rate, split))
}

type orderItemRequest struct {
	Price    Amount  `json:"price"`
	Quantity int     `json:"quantity"`
	Mode     string  `json:"mode"`
	Rate     *Amount `json:"rate"`
	Split    *bool   `json:"split"`
}

type orderTotalsRequest struct {
	Items    []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount Amount             `json:"discount"`
}

// OrderTotals aggregates a list of items.
func (Handler) OrderTotals(w http.ResponseWriter, r *http.Request) {
	var req orderTotalsRequest
	if !common.DecodeAndValidate(w, r, &req) {
		return
	}
	items := make([]OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		item := OrderItem{Price: it.Price.Decimal, Quantity: it.Quantity, Split: it.Split}
		if it.Mode != "" {
			item.Mode = ParseMode(it.Mode, Inclusive)
		}
		if it.Rate != nil {
			rate := it.Rate.Decimal
			item.Rate = &rate
		}
		items = append(items, item)
	}
	common.Data(w, http.StatusOK, ComputeOrderTotals(items, req.Discount.Decimal))
}
