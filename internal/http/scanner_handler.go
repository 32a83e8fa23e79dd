package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nakanohidekatsu/pos-terminal/internal/scanner"
)

// ScannerHandler is the decode-injection surface of the simulated
// scanner: it plays the role of the hardware decoder firing.
type ScannerHandler struct {
	simulator *scanner.Simulator
}

func NewScannerHandler(simulator *scanner.Simulator) *ScannerHandler {
	return &ScannerHandler{simulator: simulator}
}

func (h *ScannerHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "empty_code", "code must not be empty")
		return
	}

	if err := h.simulator.Inject(req.Code); err != nil {
		if errors.Is(err, scanner.ErrNotScanning) {
			respondError(w, http.StatusConflict, "not_scanning", "no scan session is active")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "decoded"})
}
