package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/response"
)

// Services are the workflows the API exposes.
type Services struct {
	Applications *service.ApplicationService
	Loans        *service.LoanService
	Installments *service.InstallmentService
	Precloses    *service.PrecloseService
	Savings      *service.SavingsService
	Ledger       *service.LedgerService
}

// RouterOptions carry the optional pieces of the router.
type RouterOptions struct {
	Health *HealthHandler
	// Limiter is skipped when nil
	Limiter  *RateLimiter
	Location *time.Location
}

// NewRouter mounts every endpoint under /api/v1.
func NewRouter(svc Services, opts RouterOptions) *mux.Router {
	v := NewValidator()
	applications := NewApplicationHandler(svc.Applications, v)
	loans := NewLoanHandler(svc.Loans, svc.Precloses, v)
	installments := NewInstallmentHandler(svc.Installments, v)
	savings := NewSavingsHandler(svc.Savings, v, opts.Location)
	ledger := NewLedgerHandler(svc.Ledger, v, opts.Location)

	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware, response.CORSMiddleware, response.JSONMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "route not found")
	})

	if opts.Health != nil {
		router.HandleFunc("/health", opts.Health.Health).Methods(http.MethodGet)
		router.HandleFunc("/health/ready", opts.Health.Ready).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Middleware)
	}

	api.HandleFunc("/loan-applications", applications.Create).Methods(http.MethodPost)
	api.HandleFunc("/loan-applications/{applicationId}", applications.Get).Methods(http.MethodGet)
	api.HandleFunc("/loan-applications/{applicationId}/witness-actions", applications.WitnessAction).Methods(http.MethodPost)
	api.HandleFunc("/loan-applications/{applicationId}/status", applications.UpdateStatus).Methods(http.MethodPut)

	api.HandleFunc("/loans/quote", loans.Quote).Methods(http.MethodPost)
	api.HandleFunc("/loans", loans.Create).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}", loans.Get).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/schedule", installments.Schedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/preclose-quote", loans.PrecloseQuote).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/preclose", loans.Preclose).Methods(http.MethodPost)

	api.HandleFunc("/loan-payments", installments.Submit).Methods(http.MethodPost)
	api.HandleFunc("/loan-payments/{paymentId}/review", installments.Review).Methods(http.MethodPut)
	api.HandleFunc("/installments/{installmentId}/penalty", installments.ApplyPenalty).Methods(http.MethodPost)

	api.HandleFunc("/savings/{savingsId}/submit", savings.Submit).Methods(http.MethodPut)
	api.HandleFunc("/savings/{savingsId}/review", savings.Review).Methods(http.MethodPut)
	api.HandleFunc("/savings/{savingsId}/penalty", savings.ApplyPenalty).Methods(http.MethodPost)

	api.HandleFunc("/transactions", ledger.Record).Methods(http.MethodPost)

	groups := api.PathPrefix("/groups/{groupId}").Subrouter()
	groups.HandleFunc("/loan-applications", applications.List).Methods(http.MethodGet)
	groups.HandleFunc("/loan-applications/eligible", applications.Eligible).Methods(http.MethodGet)
	groups.HandleFunc("/loans", loans.List).Methods(http.MethodGet)
	groups.HandleFunc("/installments", installments.ListByStatus).Methods(http.MethodGet)
	groups.HandleFunc("/members/{memberId}/loan-summary", loans.Summary).Methods(http.MethodGet)
	groups.HandleFunc("/installment-penalties", installments.ApplyGroupPenalties).Methods(http.MethodPost)
	groups.HandleFunc("/savings", savings.List).Methods(http.MethodGet)
	groups.HandleFunc("/savings/initiate", savings.Initiate).Methods(http.MethodPost)
	groups.HandleFunc("/savings/initiation-status", savings.InitiationStatus).Methods(http.MethodGet)
	groups.HandleFunc("/savings-penalties", savings.ApplyGroupPenalties).Methods(http.MethodPost)
	groups.HandleFunc("/transactions", ledger.List).Methods(http.MethodGet)
	groups.HandleFunc("/transactions/summary", ledger.Summary).Methods(http.MethodGet)
	groups.HandleFunc("/balance", ledger.Balance).Methods(http.MethodGet)
	groups.HandleFunc("/balance-sheet", ledger.BalanceSheet).Methods(http.MethodGet)

	return router
}
