package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of a procurement request
type RequestStatus string

const (
	StatusOpen       RequestStatus = "Open"
	StatusInProgress RequestStatus = "In Progress"
	StatusClosed     RequestStatus = "Closed"
)

// Valid reports whether s is one of the known statuses
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// OrderLine is one priced item or service within an offer or request
type OrderLine struct {
	ID                  *int64          `json:"id,omitempty"`
	PositionDescription string          `json:"position_description"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Amount              decimal.Decimal `json:"amount"`
	Unit                string          `json:"unit"`
	TotalPrice          decimal.Decimal `json:"total_price"`
}

// ProcurementRequestCreate is the payload for creating a request
type ProcurementRequestCreate struct {
	RequestorName  string          `json:"requestor_name" binding:"required"`
	Title          string          `json:"title" binding:"required"`
	VendorName     string          `json:"vendor_name" binding:"required"`
	VendorVATID    string          `json:"vendor_vat_id" binding:"required"`
	Department     string          `json:"department" binding:"required"`
	CommodityGroup *string         `json:"commodity_group"`
	OrderLines     []OrderLine     `json:"order_lines" binding:"required,min=1"`
	TotalCost      decimal.Decimal `json:"total_cost"`
}

// ProcurementRequest is a stored procurement record
type ProcurementRequest struct {
	ID             uuid.UUID       `json:"id"`
	RequestorName  string          `json:"requestor_name"`
	Title          string          `json:"title"`
	VendorName     string          `json:"vendor_name"`
	VendorVATID    string          `json:"vendor_vat_id"`
	Department     string          `json:"department"`
	CommodityGroup *string         `json:"commodity_group"`
	OrderLines     []OrderLine     `json:"order_lines"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Status         RequestStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so store readers never share line slices
// with a record that a concurrent writer may mutate.
func (r *ProcurementRequest) Clone() *ProcurementRequest {
	cp := *r
	if r.CommodityGroup != nil {
		group := *r.CommodityGroup
		cp.CommodityGroup = &group
	}
	cp.OrderLines = make([]OrderLine, len(r.OrderLines))
	copy(cp.OrderLines, r.OrderLines)
	for i, line := range r.OrderLines {
		if line.ID != nil {
			id := *line.ID
			cp.OrderLines[i].ID = &id
		}
	}
	return &cp
}
