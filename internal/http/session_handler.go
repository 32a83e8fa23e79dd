package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nakanohidekatsu/pos-terminal/internal/pos"
	"github.com/nakanohidekatsu/pos-terminal/internal/register"
	"github.com/nakanohidekatsu/pos-terminal/internal/scanner"
)

// SessionHandler exposes the operator-facing surface of one register
// session: scan trigger, code entry, lookup, add, purchase, reset.
type SessionHandler struct {
	session *pos.Session
	logger  *zap.Logger
	timeout time.Duration
}

func NewSessionHandler(session *pos.Session, logger *zap.Logger, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		session: session,
		logger:  logger,
		timeout: timeout,
	}
}

func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toStateResponse(h.session.CurrentView()))
}

func (h *SessionHandler) SetCode(w http.ResponseWriter, r *http.Request) {
	var req SetCodeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view, err := h.session.SetCode(req.Code)
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStateResponse(view))
}

func (h *SessionHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.session.Lookup(ctx)
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStateResponse(view))
}

func (h *SessionHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.session.AddToCart()
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStateResponse(view))
}

func (h *SessionHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.session.Purchase(ctx)
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStateResponse(view))
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.session.Reset()
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStateResponse(view))
}

// BeginScan starts a scan session. The session outlives this request:
// it ends on decode, cancel, or scanner failure.
func (h *SessionHandler) BeginScan(w http.ResponseWriter, r *http.Request) {
	if err := h.session.BeginScan(context.Background()); err != nil {
		h.handleSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, toStateResponse(h.session.CurrentView()))
}

func (h *SessionHandler) CancelScan(w http.ResponseWriter, r *http.Request) {
	if err := h.session.CancelScan(); err != nil {
		h.handleSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStateResponse(h.session.CurrentView()))
}

func (h *SessionHandler) handleSessionError(w http.ResponseWriter, err error) {
	var partial *register.PartialRecordError

	switch {
	case errors.Is(err, pos.ErrEmptyCode):
		respondError(w, http.StatusBadRequest, "empty_code", "no product code entered")
	case errors.Is(err, pos.ErrNoProduct):
		respondError(w, http.StatusConflict, "no_product", "no resolved product to add")
	case errors.Is(err, pos.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
	case errors.Is(err, pos.ErrBusy):
		respondError(w, http.StatusConflict, "busy", "a purchase is in progress")
	case errors.Is(err, scanner.ErrAlreadyScanning):
		respondError(w, http.StatusConflict, "already_scanning", "a scan session is already active")
	case errors.As(err, &partial):
		h.logger.Error("transaction partially recorded",
			zap.String("trd_id", partial.TrdID),
			zap.Int("recorded", partial.Recorded),
			zap.Error(err))
		respondError(w, http.StatusBadGateway, "partial_record", "purchase failed after partial recording; retry")
	case errors.Is(err, register.ErrHeaderRejected):
		respondError(w, http.StatusBadGateway, "purchase_failed", "purchase failed")
	default:
		h.logger.Error("session operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
