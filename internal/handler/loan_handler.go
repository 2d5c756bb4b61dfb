package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/amortization"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/response"
)

type LoanHandler struct {
	loans     *service.LoanService
	precloses *service.PrecloseService
	validator *validator.Validate
}

func NewLoanHandler(loans *service.LoanService, precloses *service.PrecloseService, v *validator.Validate) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		precloses: precloses,
		validator: v,
	}
}

type quoteRequest struct {
	Principal       decimal.Decimal        `json:"principal" validate:"decimal_gt=0"`
	InterestRate    decimal.Decimal        `json:"interest_rate" validate:"decimal_gte=0,decimal_lte=100"`
	Tenure          int                    `json:"tenure" validate:"required,gt=0"`
	Frequency       domain.Frequency       `json:"installment_frequency" validate:"required,oneof=monthly weekly"`
	InstallmentType domain.InstallmentType `json:"installment_type" validate:"required,oneof=flat reducing"`
}

// Quote prices a loan without touching any state.
func (h *LoanHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	quote, err := h.loans.Quote(r.Context(), amortization.Terms{
		Principal:       req.Principal,
		InterestRate:    req.InterestRate,
		Tenure:          req.Tenure,
		Frequency:       req.Frequency,
		InstallmentType: req.InstallmentType,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, quote)
}

// Create disburses an approved application and returns the loan with its
// installment schedule.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.loans.CreateLoan(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, resp)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.loans.GetLoan(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, resp)
}

// List returns the group's loans newest first. Supports status, member_id
// (comma-separated or repeated), limit and offset.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	filter := domain.LoanFilter{
		ShgGroupID: groupID,
		Status:     domain.LoanStatus(r.URL.Query().Get("status")),
	}
	if filter.MemberIDs, err = queryIDs(r, "member_id"); err != nil {
		response.FromError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		response.FromError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		response.FromError(w, r, err)
		return
	}

	loans, err := h.loans.List(r.Context(), filter)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	memberID, err := pathID(r, "memberId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	summary, err := h.loans.Summary(r.Context(), groupID, memberID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, summary)
}

func (h *LoanHandler) PrecloseQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	quote, err := h.precloses.Quote(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, quote)
}

// Preclose settles the loan early. The loan comes from the path.
func (h *LoanHandler) Preclose(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.PrecloseRequest
	if err := readJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	req.LoanID = id
	if err := validate(h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	preclose, err := h.precloses.Preclose(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, preclose)
}
