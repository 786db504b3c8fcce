package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paulzwecker/asklio-case-study/model"
)

// RequestService encapsulates business logic around procurement requests
type RequestService struct {
	store     *RequestStore
	commodity *CommodityService
}

func NewRequestService(store *RequestStore, commodity *CommodityService) *RequestService {
	return &RequestService{
		store:     store,
		commodity: commodity,
	}
}

// List returns all requests matching the filter
func (s *RequestService) List(filter ListFilter) []*model.ProcurementRequest {
	return s.store.List(filter)
}

// Get returns a single request, or ErrNotFound
func (s *RequestService) Get(id uuid.UUID) (*model.ProcurementRequest, error) {
	req := s.store.Get(id)
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// Create stores a new request. A missing commodity group is filled in by the
// classifier, and the total is forced to the exact sum of line totals before
// the record is persisted.
func (s *RequestService) Create(payload *model.ProcurementRequestCreate) *model.ProcurementRequest {
	if payload.CommodityGroup == nil || *payload.CommodityGroup == "" {
		suggested := s.commodity.SuggestForRequest(payload)
		payload.CommodityGroup = &suggested
	}

	s.reconcileTotal(payload)

	now := time.Now().UTC()
	req := &model.ProcurementRequest{
		ID:             uuid.New(),
		RequestorName:  payload.RequestorName,
		Title:          payload.Title,
		VendorName:     payload.VendorName,
		VendorVATID:    payload.VendorVATID,
		Department:     payload.Department,
		CommodityGroup: payload.CommodityGroup,
		OrderLines:     payload.OrderLines,
		TotalCost:      payload.TotalCost,
		Status:         model.StatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.store.Create(req)
	return req
}

// reconcileTotal overwrites the caller-supplied total with the exact decimal
// sum of line totals. The client aggregate is advisory; the line-level detail
// is the source of truth, so a mismatch is corrected rather than rejected.
func (s *RequestService) reconcileTotal(payload *model.ProcurementRequestCreate) {
	sum := decimal.Zero
	for _, line := range payload.OrderLines {
		sum = sum.Add(line.TotalPrice)
	}

	if !payload.TotalCost.Equal(sum) {
		slog.Info("correcting submitted total to line sum",
			"submitted", payload.TotalCost,
			"calculated", sum,
		)
		payload.TotalCost = sum
	}
}

// UpdateStatus transitions a request to newStatus. A transition to the
// current status is a no-op: the stored record is returned unchanged with no
// timestamp bump and no store write.
func (s *RequestService) UpdateStatus(id uuid.UUID, newStatus model.RequestStatus) (*model.ProcurementRequest, error) {
	req := s.store.Get(id)
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status == newStatus {
		return req, nil
	}

	req.Status = newStatus
	req.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(req); err != nil {
		return nil, err
	}
	return req, nil
}
