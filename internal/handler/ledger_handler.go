package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/response"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/utils"
)

type LedgerHandler struct {
	service   *service.LedgerService
	validator *validator.Validate
	location  *time.Location
}

func NewLedgerHandler(service *service.LedgerService, v *validator.Validate, loc *time.Location) *LedgerHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerHandler{
		service:   service,
		validator: v,
		location:  loc,
	}
}

// Record posts a manual entry (deposit, expense, withdrawal, other).
func (h *LedgerHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req domain.ManualTransactionRequest
	if err := decode(w, r, h.validator, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	tx, err := h.service.RecordManual(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, tx)
}

// dateRange reads ?from and ?to; to covers its whole day.
func (h *LedgerHandler) dateRange(r *http.Request) (from, to *time.Time, err error) {
	if from, err = queryDate(r, "from", h.location); err != nil {
		return nil, nil, err
	}
	if to, err = queryDate(r, "to", h.location); err != nil {
		return nil, nil, err
	}
	if to != nil {
		end := utils.EndOfDay(*to)
		to = &end
	}
	return from, to, nil
}

func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), groupID, from, to)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, summary)
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	balance, err := h.service.Balance(r.Context(), groupID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, map[string]any{
		"shg_group_id": groupID,
		"balance":      balance,
	})
}

func (h *LedgerHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
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

	sheet, err := h.service.BalanceSheet(r.Context(), groupID, memberID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, sheet)
}

// List pages through entries newest first. Supports member_id, flow_type,
// transaction_type, from, to, limit and offset.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	filter := domain.TransactionFilter{
		ShgGroupID:      groupID,
		FlowType:        domain.FlowType(r.URL.Query().Get("flow_type")),
		TransactionType: domain.TransactionType(r.URL.Query().Get("transaction_type")),
	}

	var memberID *uuid.UUID
	if memberID, err = queryID(r, "member_id"); err != nil {
		response.FromError(w, r, err)
		return
	}
	if memberID != nil {
		filter.MemberID = uuid.NullUUID{UUID: *memberID, Valid: true}
	}
	if filter.From, filter.To, err = h.dateRange(r); err != nil {
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

	txs, err := h.service.List(r.Context(), filter)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, txs)
}
