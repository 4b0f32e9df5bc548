package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"momo-proxy-backend/internal/security"
)

// NewRouter builds the REST surface. Every route is named; the name selects
// its security level.
func NewRouter(h *Handler, tokenManager security.TokenManager, ingest *security.IngestVerifier) *mux.Router {
	r := mux.NewRouter()
	auth := &authMiddleware{tokenManager: tokenManager, ingest: ingest}
	r.Use(requestMiddleware, auth.Middleware)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet).Name("healthz")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/transactions", h.SubmitTransaction).Methods(http.MethodPost).Name("submit-transaction")
	v1.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet).Name("list-transactions")
	v1.HandleFunc("/transactions/{id:[0-9]+}", h.GetTransaction).Methods(http.MethodGet).Name("get-transaction")
	v1.HandleFunc("/work-items/{reference}", h.GetWorkItem).Methods(http.MethodGet).Name("get-work-item")
	v1.HandleFunc("/balances", h.ListBalances).Methods(http.MethodGet).Name("list-balances")
	v1.HandleFunc("/fees/quote", h.QuoteFee).Methods(http.MethodGet).Name("quote-fee")
	v1.HandleFunc("/confirmations", h.IngestConfirmation).Methods(http.MethodPost).Name("ingest-confirmation")

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/balances/top-up", h.TopUpBalance).Methods(http.MethodPost).Name("top-up-balance")
	admin.HandleFunc("/fee-rules", h.ProposeFeeRule).Methods(http.MethodPost).Name("propose-fee-rule")
	admin.HandleFunc("/fee-rules/{id:[0-9]+}/approve", h.ApproveFeeRule).Methods(http.MethodPost).Name("approve-fee-rule")
	admin.HandleFunc("/fee-rules/{id:[0-9]+}/activate", h.ActivateFeeRule).Methods(http.MethodPost).Name("activate-fee-rule")

	return r
}
