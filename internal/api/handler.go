package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerkit/statement-ledger/internal/interfaces"
	"github.com/ledgerkit/statement-ledger/internal/ledger"
	"github.com/ledgerkit/statement-ledger/internal/metrics"
	"github.com/ledgerkit/statement-ledger/internal/models"
)

// Handler exposes the ledger operations over HTTP. Input shape validation and
// error-to-status mapping live here; the core re-validates amounts itself and
// stays transport-free.
type Handler struct {
	ledger  *ledger.Ledger
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewHandler(l *ledger.Ledger, collector *metrics.Collector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ledger: l, metrics: collector, logger: logger}
}

// Routes returns the server mux with every ledger endpoint registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/statements", h.createStatement)
	mux.HandleFunc("POST /api/transfers", h.createTransfer)
	mux.HandleFunc("GET /api/accounts/{id}/balance", h.getBalance)
	mux.HandleFunc("GET /api/accounts/{id}/statements", h.getStatement)
	mux.HandleFunc("GET /api/accounts/{id}/statements/{entry_id}", h.getStatementEntry)
	mux.HandleFunc("GET /health", h.health)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return mux
}

type createStatementRequest struct {
	AccountID   string               `json:"account_id"`
	Kind        models.OperationType `json:"kind"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
}

type createTransferRequest struct {
	SenderID    string          `json:"sender_id"`
	ReceiverID  string          `json:"receiver_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type balanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) createStatement(w http.ResponseWriter, r *http.Request) {
	var req createStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccountID == "" {
		h.sendError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	start := time.Now()
	entry, err := h.ledger.CreateStatement(r.Context(), req.AccountID, req.Kind, req.Amount, req.Description)
	h.record(string(req.Kind), start, err)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, entry)
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SenderID == "" || req.ReceiverID == "" {
		h.sendError(w, http.StatusBadRequest, "sender_id and receiver_id are required")
		return
	}

	start := time.Now()
	entry, err := h.ledger.Transfer(r.Context(), req.SenderID, req.ReceiverID, req.Amount, req.Description)
	h.record(string(models.OperationTransfer), start, err)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, entry)
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	balance, err := h.ledger.GetBalance(r.Context(), accountID)
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, Balance: balance})
}

func (h *Handler) getStatement(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.GetStatement(r.Context(), r.PathValue("id"))
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.StatementEntry{}
	}
	h.sendJSON(w, http.StatusOK, entries)
}

func (h *Handler) getStatementEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledger.GetStatementEntry(r.Context(), r.PathValue("id"), r.PathValue("entry_id"))
	if err != nil {
		h.sendLedgerError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, entry)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) record(kind string, start time.Time, err error) {
	if h.metrics != nil {
		h.metrics.RecordOperation(kind, time.Since(start), err == nil)
	}
}

// sendLedgerError translates the core's error kinds into transport codes.
// Validation failures mean nothing was written; 503 means the write was
// attempted and its outcome is undetermined, which is never reported as
// success.
func (h *Handler) sendLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interfaces.ErrAccountNotFound),
		errors.Is(err, interfaces.ErrStatementEntryNotFound):
		h.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interfaces.ErrInsufficientFunds):
		h.sendError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, interfaces.ErrInvalidAmount),
		errors.Is(err, interfaces.ErrInvalidOperation):
		h.sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, interfaces.ErrStorageUnavailable):
		h.logger.Error("storage failure", zap.String("path", r.URL.Path), zap.Error(err))
		h.sendError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		h.logger.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) sendError(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, errorResponse{Error: msg})
}
