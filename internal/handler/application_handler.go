package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/response"
)

type ApplicationHandler struct {
	service   *service.ApplicationService
	validator *validator.Validate
}

func NewApplicationHandler(service *service.ApplicationService, v *validator.Validate) *ApplicationHandler {
	return &ApplicationHandler{
		service:   service,
		validator: v,
	}
}

// Create files a loan application and opens one action per witness.
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateApplicationRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, resp)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "applicationId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, resp)
}

// List returns the group's applications with their witness actions,
// optionally filtered by status.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	apps, err := h.service.List(r.Context(), groupID, domain.ApplicationStatus(r.URL.Query().Get("status")))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, apps)
}

// Eligible lists pending applications whose witnesses have all approved.
func (h *ApplicationHandler) Eligible(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	apps, err := h.service.Eligible(r.Context(), groupID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, apps)
}

// WitnessAction records one witness's approval or rejection.
func (h *ApplicationHandler) WitnessAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "applicationId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.WitnessActionRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	action, err := h.service.Act(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, action)
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "applicationId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.UpdateApplicationStatusRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	app, err := h.service.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, app)
}
