package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/service"
	"momo-proxy-backend/internal/utils"
)

const maxNoticeBytes = 64 << 10

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	intake    service.IntakeService
	txs       service.TransactionService
	ledger    service.LedgerService
	fees      service.FeeService
	resolver  service.DestinationResolver
	reconcile service.ReconcileService
	db        Pinger
}

func NewHandler(
	intake service.IntakeService,
	txs service.TransactionService,
	ledger service.LedgerService,
	fees service.FeeService,
	resolver service.DestinationResolver,
	reconcile service.ReconcileService,
	db Pinger,
) *Handler {
	return &Handler{
		intake:    intake,
		txs:       txs,
		ledger:    ledger,
		fees:      fees,
		resolver:  resolver,
		reconcile: reconcile,
		db:        db,
	}
}

type submitRequest struct {
	Kind         domain.TransactionKind `json:"transaction_type"`
	Counterparty string                 `json:"counterparty"`
	Amount       decimal.Decimal        `json:"amount"`
	PartnerCode  string                 `json:"partner_code"`
	CountryCode  *string                `json:"country_code,omitempty"`
}

type submitResponse struct {
	Reference string                `json:"reference"`
	Status    domain.WorkItemStatus `json:"status"`
}

func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PartnerCode == "" {
		req.PartnerCode = claims.PartnerCode
	}

	item, err := h.intake.Submit(r.Context(), service.SubmitRequest{
		Kind:         req.Kind,
		Counterparty: req.Counterparty,
		Amount:       req.Amount,
		PartnerCode:  req.PartnerCode,
		CompanyID:    claims.CompanyID,
		CountryHint:  req.CountryCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/work-items/"+item.Reference)
	respondJSON(w, http.StatusAccepted, submitResponse{Reference: item.Reference, Status: item.Status})
}

func (h *Handler) GetWorkItem(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	item, err := h.intake.GetWorkItem(r.Context(), claims.CompanyID, mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

type listTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int32                `json:"total"`
	Limit        int32                `json:"limit"`
	Offset       int32                `json:"offset"`
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	q := r.URL.Query()

	limit, err := queryInt32(q.Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt32(q.Get("offset"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	counterparty := q.Get("counterparty")
	if counterparty != "" {
		if counterparty, err = utils.CanonicalMSISDN(counterparty); err != nil {
			respondError(w, http.StatusBadRequest, "invalid counterparty")
			return
		}
	}

	filter := domain.TransactionFilter{
		CompanyID:    claims.CompanyID,
		Kind:         domain.TransactionKind(q.Get("kind")),
		Counterparty: counterparty,
		PartnerCode:  q.Get("partner_code"),
		Status:       domain.TransactionStatus(q.Get("status")),
		Limit:        limit,
		Offset:       offset,
	}
	txs, total, err := h.txs.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	respondJSON(w, http.StatusOK, listTransactionsResponse{Transactions: txs, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tx, err := h.txs.Get(r.Context(), claims.CompanyID, int32(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	summaries, err := h.ledger.Summary(r.Context(), claims.CompanyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []domain.BalanceSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"balances": summaries})
}

func (h *Handler) QuoteFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil || !amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	kind := domain.TransactionKind(q.Get("kind"))
	if !kind.Valid() {
		respondError(w, http.StatusBadRequest, "invalid kind")
		return
	}
	code := q.Get("country")
	if code == "" {
		respondError(w, http.StatusBadRequest, "country is required")
		return
	}
	country, err := h.resolver.Resolve(r.Context(), &code, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	quote, err := h.fees.Quote(r.Context(), country.ID, kind, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// IngestConfirmation accepts one raw notice, either as plain text or as
// {"body": "..."}.
func (h *Handler) IngestConfirmation(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxNoticeBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	text := utils.DecodeNotice(raw)
	if strings.TrimSpace(text) == "" {
		respondError(w, http.StatusBadRequest, "empty notice")
		return
	}

	result, err := h.reconcile.HandleNotice(r.Context(), text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type topUpRequest struct {
	CompanyID   int32           `json:"company_id"`
	CountryCode string          `json:"country_code"`
	PartnerCode string          `json:"partner_code"`
	Amount      decimal.Decimal `json:"amount"`
}

func (h *Handler) TopUpBalance(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	balance, err := h.ledger.TopUp(r.Context(), req.CompanyID, req.CountryCode, req.PartnerCode, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

func (h *Handler) ProposeFeeRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.FeeRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.fees.ProposeRule(r.Context(), &rule); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

func (h *Handler) ApproveFeeRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	claims := ClaimsFromContext(r.Context())
	approver := claims.PartnerCode
	if approver == "" {
		approver = claims.Subject
	}
	if err := h.fees.ApproveRule(r.Context(), int32(id), approver); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ActivateFeeRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.fees.ActivateRule(r.Context(), int32(id)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var blackout *domain.BlackoutError
	switch {
	case errors.As(err, &blackout):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(blackout.RetryAfter.Seconds()))))
		respondError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoCountry):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrRuleImmutable), errors.Is(err, domain.ErrRuleNotApproved):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("Request failed", "request_id", RequestIDFromContext(r.Context()), "route", routeName(r), "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt32(s string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v < 0 {
		return 0, errors.New("invalid integer")
	}
	return int32(v), nil
}
