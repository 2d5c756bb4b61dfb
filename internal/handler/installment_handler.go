package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/response"
)

type InstallmentHandler struct {
	service   *service.InstallmentService
	validator *validator.Validate
}

func NewInstallmentHandler(service *service.InstallmentService, v *validator.Validate) *InstallmentHandler {
	return &InstallmentHandler{
		service:   service,
		validator: v,
	}
}

func (h *InstallmentHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	schedule, err := h.service.Schedule(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, schedule)
}

// ListByStatus returns the group's installments in the required status
// query parameter, for example the submitted queue awaiting review.
func (h *InstallmentHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	items, err := h.service.ListByStatus(r.Context(), groupID, domain.ScheduleStatus(r.URL.Query().Get("status")))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, items)
}

// Submit records a member's payment against a pending installment.
func (h *InstallmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitPaymentRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	payment, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, payment)
}

// Review approves or rejects a submitted payment.
func (h *InstallmentHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "paymentId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.ReviewPaymentRequest
	if err := readJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	req.PaymentID = id
	if err := validate(h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	payment, err := h.service.Review(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, payment)
}

func (h *InstallmentHandler) ApplyGroupPenalties(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.service.ApplyGroupPenalties(r.Context(), groupID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *InstallmentHandler) ApplyPenalty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "installmentId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	schedule, err := h.service.ApplyPenalty(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, schedule)
}
