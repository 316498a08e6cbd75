package common_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/common"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestDecodeAndValidateReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	rr := httptest.NewRecorder()
	var p samplePayload
	require.False(t, common.DecodeAndValidate(rr, req, &p))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Error struct {
			Code    string              `json:"code"`
			Details []common.FieldError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	fields := map[string]string{}
	for _, f := range body.Error.Details {
		fields[f.Field] = f.Rule
	}
	require.Equal(t, "required", fields["name"])
	require.Equal(t, "email", fields["email"])
}

func TestDecodeAndValidateAcceptsValidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Asha"}`))
	rr := httptest.NewRecorder()
	var p samplePayload
	require.True(t, common.DecodeAndValidate(rr, req, &p))
	require.Equal(t, "Asha", p.Name)
}

func TestWriteErrorUsesAppErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, common.NewAppError("CONTENTION", "coupon exhausted", http.StatusConflict, nil), http.StatusBadRequest, "BAD_REQUEST")
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "CONTENTION")
}

func TestDecodeAndValidateOversizedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a very long name indeed"}`))
	req.Body = http.MaxBytesReader(rr, req.Body, 8)
	var p samplePayload
	require.False(t, common.DecodeAndValidate(rr, req, &p))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")
}
