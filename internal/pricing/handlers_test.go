package pricing_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/pricing"
)

func TestComputeHandler(t *testing.T) {
	body := `{"price":"35.00","mode":"exclusive","rate":18,"split":true}`
	rr := httptest.NewRecorder()
	pricing.Handler{}.Compute(rr, httptest.NewRequest(http.MethodPost, "/api/v1/tax/compute", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "41.3", resp.Data["total"])
	require.Equal(t, "6.3", resp.Data["totalTax"])
}

func TestOrderTotalsHandlerRequiresItems(t *testing.T) {
	rr := httptest.NewRecorder()
	pricing.Handler{}.OrderTotals(rr, httptest.NewRequest(http.MethodPost, "/api/v1/tax/order-totals", strings.NewReader(`{"items":[]}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
