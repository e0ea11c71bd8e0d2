package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/voltaic-labs/examdex/internal/api"
	"github.com/voltaic-labs/examdex/internal/verify"
)

type VerifyHandler struct{}

func NewVerifyHandler() *VerifyHandler {
	return &VerifyHandler{}
}

type VerifyCalculationRequest struct {
	Formula       string             `json:"formula"`
	Variables     map[string]float64 `json:"variables"`
	ClaimedResult float64            `json:"claimed_result"`
}

type VerifyCalculationResponse struct {
	Valid            bool    `json:"valid"`
	Verified         bool    `json:"verified"`
	CalculatedResult float64 `json:"calculated_result,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// VerifyCalculation checks a claimed formula result against the known
// formula templates. Unrecognized formulas pass unverified.
func (h *VerifyHandler) VerifyCalculation(w http.ResponseWriter, r *http.Request) {
	var req VerifyCalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Formula == "" {
		api.Error(w, http.StatusBadRequest, "formula is required")
		return
	}

	check := verify.VerifyCalculation(req.Formula, req.Variables, req.ClaimedResult)

	api.Success(w, http.StatusOK, VerifyCalculationResponse{
		Valid:            check.Valid,
		Verified:         check.Verified,
		CalculatedResult: check.CalculatedResult,
		Error:            check.Error,
	})
}
