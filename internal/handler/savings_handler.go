package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/response"
)

type SavingsHandler struct {
	service   *service.SavingsService
	validator *validator.Validate
	location  *time.Location
}

func NewSavingsHandler(service *service.SavingsService, v *validator.Validate, loc *time.Location) *SavingsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SavingsHandler{
		service:   service,
		validator: v,
		location:  loc,
	}
}

// Initiate opens the cycle containing ?date (default today) for every member.
func (h *SavingsHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	date, err := queryDate(r, "date", h.location)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.service.Initiate(r.Context(), groupID, date)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *SavingsHandler) InitiationStatus(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	date, err := queryDate(r, "date", h.location)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	status, err := h.service.InitiationStatus(r.Context(), groupID, date)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, status)
}

// List filters by ?member_id and ?status (comma separated).
func (h *SavingsHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	memberID, err := queryID(r, "member_id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var statuses []domain.SavingsStatus
	for _, raw := range queryList(r, "status") {
		status := domain.SavingsStatus(raw)
		switch status {
		case domain.SavingsStatusPending, domain.SavingsStatusSubmitted,
			domain.SavingsStatusApproved, domain.SavingsStatusRejected:
			statuses = append(statuses, status)
		default:
			response.FromError(w, r, customError.Validation("unknown savings status %q", raw))
			return
		}
	}

	records, err := h.service.List(r.Context(), groupID, memberID, statuses)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, records)
}

func (h *SavingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "savingsId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.SubmitSavingsRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	record, err := h.service.Submit(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, record)
}

func (h *SavingsHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "savingsId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.ReviewSavingsRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	record, err := h.service.Review(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, record)
}

func (h *SavingsHandler) ApplyGroupPenalties(w http.ResponseWriter, r *http.Request) {
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

func (h *SavingsHandler) ApplyPenalty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "savingsId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	record, err := h.service.ApplyPenalty(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, record)
}
